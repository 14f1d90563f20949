package memory

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/testutil"
)

func TestNewAllocator(t *testing.T) {
	mem, err := NewAllocator("go")
	require.NoError(t, err)
	assert.IsType(t, &memory.GoAllocator{}, mem)

	mem, err = NewAllocator("")
	require.NoError(t, err)
	assert.NotNil(t, mem)

	mem, err = NewAllocator("checked")
	require.NoError(t, err)
	assert.IsType(t, &memory.CheckedAllocator{}, mem)

	_, err = NewAllocator("jemalloc")
	assert.Error(t, err)
}

func TestBufferFootprint(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	arr := testutil.BuildArray(t, mem.Allocator, datatype.Utf8, "abc", nil, "de")
	defer arr.Release()

	full := BufferFootprint(arr)
	assert.Positive(t, full)

	// A view shares every buffer with its base.
	view, err := array.SliceN(arr, 1, 2)
	require.NoError(t, err)
	defer view.Release()
	assert.Equal(t, full, BufferFootprint(view))

	var sum int64
	for _, b := range arr.Data().Buffers() {
		if b != nil {
			sum += int64(b.Len())
		}
	}
	assert.Equal(t, sum, full)
}

func TestBufferFootprintNested(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	list := testutil.BuildArray(t, mem.Allocator, datatype.ListOf(datatype.Int64), []any{1, 2, 3}, nil)
	defer list.Release()
	child := list.(*array.List).ListValues()
	assert.Greater(t, BufferFootprint(list), BufferFootprint(child))

	dict := testutil.BuildArray(t, mem.Allocator, datatype.DictionaryOf(datatype.Int8, datatype.Utf8), "a", "b", "a")
	defer dict.Release()
	values := dict.(*array.Dictionary).Dictionary()
	assert.Greater(t, BufferFootprint(dict), BufferFootprint(values))
}

type countingResource struct {
	released *[]int
	id       int
}

func (c countingResource) Release() { *c.released = append(*c.released, c.id) }

func TestTracker(t *testing.T) {
	var released []int
	tr := NewTracker()
	tr.Track(countingResource{&released, 1})
	tr.Track(nil)
	tr.Track(countingResource{&released, 2})

	tr.ReleaseAll()
	assert.Equal(t, []int{2, 1}, released)

	tr.ReleaseAll()
	assert.Len(t, released, 2)
}
