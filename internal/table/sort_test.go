package table_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/table/tabletest"
	"github.com/paveg/colframe/internal/testutil"
)

func TestSortIndices(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	tests := []struct {
		name string
		keys []table.SortKey
		opts table.SortOptions
		want []int
	}{
		{
			name: "ascending nulls last",
			keys: []table.SortKey{{Column: "age"}},
			want: []int{4, 2, 0, 3, 1},
		},
		{
			name: "descending is stable and keeps nulls last",
			keys: []table.SortKey{{Column: "age", Descending: true}},
			want: []int{0, 3, 2, 4, 1},
		},
		{
			name: "descending nulls first",
			keys: []table.SortKey{{Column: "age", Descending: true}},
			opts: table.SortOptions{NullPlacement: array.NullsFirst},
			want: []int{1, 0, 3, 2, 4},
		},
		{
			name: "second key breaks ties",
			keys: []table.SortKey{{Column: "age", Descending: true}, {Column: "score"}},
			want: []int{3, 0, 2, 4, 1},
		},
		{
			name: "strings",
			keys: []table.SortKey{{Column: "name", Descending: true}},
			want: []int{4, 3, 2, 1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.SortIndices(tt.keys, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortIndicesErrors(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	_, err := tbl.SortIndices(nil, table.SortOptions{})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))

	_, err = tbl.SortIndices([]table.SortKey{{Column: "missing"}}, table.SortOptions{})
	assert.True(t, stderrors.Is(err, errors.ErrColumnNotFound))
}

func TestSort(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.Build(t, mem.Allocator,
		tabletest.Col("k", datatype.DictionaryOf(datatype.Int8, datatype.Utf8), "b", "a", nil, "b"),
		tabletest.Col("v", datatype.Int32, int32(1), int32(2), int32(3), int32(4)),
	)
	defer tbl.Release()

	out, err := tbl.Sort([]table.SortKey{{Column: "k"}, {Column: "v", Descending: true}}, table.SortOptions{})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []any{"a", "b", "b", nil}, tabletest.Values(t, out, "k"))
	assert.Equal(t, []any{int32(2), int32(4), int32(1), int32(3)}, tabletest.Values(t, out, "v"))
}

func TestDefaultSortOptions(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	assert.Equal(t, array.NullsLast, table.DefaultSortOptions().NullPlacement)

	cfg := config.NewConfig()
	cfg.NullPlacement = "first"
	config.SetGlobalConfig(cfg)
	assert.Equal(t, array.NullsFirst, table.DefaultSortOptions().NullPlacement)
}
