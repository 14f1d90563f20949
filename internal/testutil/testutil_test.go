package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/testutil"
)

func TestSetupMemoryTest(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	require.NotNil(t, mem.Allocator)

	arr := testutil.BuildArray(t, mem.Allocator, datatype.Int64, 1, nil, 3)
	defer arr.Release()
	assert.Positive(t, mem.Allocator.CurrentAlloc())
}

func TestBuildArray(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	t.Run("flat", func(t *testing.T) {
		arr := testutil.BuildArray(t, mem.Allocator, datatype.Utf8, "a", nil, "c")
		defer arr.Release()

		assert.Equal(t, []any{"a", nil, "c"}, testutil.Values(arr))
		assert.Equal(t, 1, arr.NullN())
	})

	t.Run("nested", func(t *testing.T) {
		st := datatype.StructOf(
			datatype.Field{Name: "id", Type: datatype.Int32, Nullable: true},
			datatype.Field{Name: "tags", Type: datatype.ListOf(datatype.Utf8), Nullable: true},
		)
		arr := testutil.BuildArray(t, mem.Allocator, st,
			map[string]any{"id": 1, "tags": []string{"x"}},
			nil,
		)
		defer arr.Release()

		assert.Equal(t, 2, arr.Len())
		assert.Equal(t, 1, arr.NullN())
		assert.Equal(t, map[string]any{"id": int32(1), "tags": []any{"x"}}, arr.GetOneForMarshal(0))
	})
}
