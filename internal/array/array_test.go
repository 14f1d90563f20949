package array

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

func newInt32(t *testing.T, mem memory.Allocator, vals []int32, valid []bool) *Int32 {
	t.Helper()
	b := NewNumericBuilder[int32](mem)
	require.NoError(t, b.AppendValues(vals, valid))
	arr, err := b.Finish()
	require.NoError(t, err)
	return arr.(*Int32)
}

func TestStringArrayLayout(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := NewStringBuilder(mem)
	require.NoError(t, b.Append("ab"))
	require.NoError(t, b.AppendNull())
	require.NoError(t, b.Append("c"))
	arr, err := b.Finish()
	require.NoError(t, err)
	defer arr.Release()

	s := arr.(*String)
	assert.Equal(t, []int32{0, 2, 2, 3}, s.ValueOffsets())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.NullN())
	assert.Equal(t, "ab", s.Value(0))
	assert.True(t, s.IsNull(1))
	assert.Equal(t, "c", s.Value(2))
	assert.Equal(t, `["ab" (null) "c"]`, s.String())

	view, err := SliceN(arr, 1, 2)
	require.NoError(t, err)
	defer view.Release()

	sv := view.(*String)
	assert.Equal(t, 2, sv.Len())
	assert.True(t, sv.IsNull(0))
	got, err := sv.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "c", got)
	assert.Equal(t, 1, sv.NullN())
}

func TestNumericBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr := newInt32(t, mem, []int32{1, 0, 3}, []bool{true, false, true})
	defer arr.Release()

	assert.Equal(t, datatype.Int32, arr.DataType())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, int32(1), arr.Value(0))
	assert.True(t, arr.IsNull(1))
	assert.Equal(t, "[1 (null) 3]", arr.String())
	assert.Nil(t, arr.GetOneForMarshal(1))
	assert.Equal(t, int32(3), arr.GetOneForMarshal(2))

	_, err := arr.Get(3)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)
}

func TestNoNullsDropsValidity(t *testing.T) {
	arr := newInt32(t, memory.NewGoAllocator(), []int32{1, 2}, nil)
	defer arr.Release()

	assert.Nil(t, arr.Data().Buffers()[0])
	assert.Equal(t, 0, arr.NullN())
}

func TestIsNullBounds(t *testing.T) {
	arr := newInt32(t, memory.NewGoAllocator(), []int32{1, 2}, []bool{true, false})
	defer arr.Release()

	null, err := IsNull(arr, 1)
	require.NoError(t, err)
	assert.True(t, null)

	_, err = IsNull(arr, 2)
	assert.Equal(t, errors.KindIndexOutOfRange, errors.KindOf(err))
	_, err = IsNull(arr, -1)
	assert.Error(t, err)
}

func TestAppendValueConversion(t *testing.T) {
	b := NewNumericBuilder[int8](memory.NewGoAllocator())
	defer b.Release()

	require.NoError(t, b.AppendValue(int8(1)))
	require.NoError(t, b.AppendValue(100))
	require.NoError(t, b.AppendValue(2.0))
	require.NoError(t, b.AppendValue(nil))

	assert.ErrorIs(t, b.AppendValue(300), errors.ErrInvalidInput)
	assert.ErrorIs(t, b.AppendValue(1.5), errors.ErrInvalidInput)
	assert.ErrorIs(t, b.AppendValue("7"), errors.ErrInvalidInput)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 1, b.NullN())

	ub := NewNumericBuilder[uint16](memory.NewGoAllocator())
	defer ub.Release()
	assert.Error(t, ub.AppendValue(-1))
	assert.NoError(t, ub.AppendValue(uint64(65535)))
}

func TestBuilderFinished(t *testing.T) {
	b := NewStringBuilder(memory.NewGoAllocator())
	require.NoError(t, b.Append("x"))
	arr, err := b.Finish()
	require.NoError(t, err)
	defer arr.Release()

	assert.ErrorIs(t, b.Append("y"), errors.ErrBuilderFinished)
	assert.ErrorIs(t, b.AppendNull(), errors.ErrBuilderFinished)
	_, err = b.Finish()
	assert.ErrorIs(t, err, errors.ErrBuilderFinished)
}

func TestStringBuilderOverflow(t *testing.T) {
	b := NewStringBuilder(memory.NewGoAllocator())
	defer b.Release()
	b.maxOffset = 4

	require.NoError(t, b.Append("abc"))
	err := b.Append("de")
	assert.ErrorIs(t, err, errors.ErrBuilderOverflow)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 3, b.DataLen())

	require.NoError(t, b.Append("d"))
	arr, err := b.Finish()
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, "d", arr.(*String).Value(1))
}

func TestGrowth(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := NewNumericBuilder[int64](mem)
	for i := 0; i < 1000; i++ {
		if i%7 == 0 {
			require.NoError(t, b.AppendNull())
			continue
		}
		require.NoError(t, b.Append(int64(i)))
	}
	assert.GreaterOrEqual(t, b.Cap(), 1000)

	arr, err := b.Finish()
	require.NoError(t, err)
	defer arr.Release()

	ints := arr.(*Int64)
	assert.Equal(t, 1000, ints.Len())
	assert.Equal(t, 143, ints.NullN())
	assert.Equal(t, int64(999), ints.Value(999))
	assert.True(t, ints.IsNull(994))
}

func TestBooleanBuilder(t *testing.T) {
	b := NewBooleanBuilder(memory.NewGoAllocator())
	require.NoError(t, b.Append(true))
	require.NoError(t, b.AppendNull())
	require.NoError(t, b.AppendValue(false))
	arr, err := b.Finish()
	require.NoError(t, err)
	defer arr.Release()

	bools := arr.(*Boolean)
	assert.True(t, bools.Value(0))
	assert.True(t, bools.IsNull(1))
	assert.False(t, bools.Value(2))
	assert.Equal(t, "[true (null) false]", bools.String())
}

func TestNullArray(t *testing.T) {
	arr, err := MakeArrayOfNull(memory.NewGoAllocator(), datatype.Null, 3)
	require.NoError(t, err)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 3, arr.NullN())
	assert.True(t, arr.IsNull(2))

	view, err := NewSlice(arr, 1, 3)
	require.NoError(t, err)
	defer view.Release()
	assert.Equal(t, 2, view.NullN())
}

func TestMakeArrayOfNull(t *testing.T) {
	st := datatype.StructOf(datatype.Field{Name: "a", Type: datatype.ListOf(datatype.Utf8), Nullable: true})
	arr, err := MakeArrayOfNull(memory.NewGoAllocator(), st, 4)
	require.NoError(t, err)
	defer arr.Release()

	assert.Equal(t, 4, arr.NullN())
	assert.Equal(t, 4, arr.(*Struct).Field(0).NullN())
	assert.NoError(t, Validate(arr))
}

func TestTemporalArrays(t *testing.T) {
	mem := memory.NewGoAllocator()
	ts := NewTimestampBuilder(mem, datatype.TimestampOf(datatype.Millisecond, "UTC"))
	require.NoError(t, ts.Append(1_500))
	require.NoError(t, ts.AppendNull())
	arr, err := ts.Finish()
	require.NoError(t, err)
	defer arr.Release()

	tsa := arr.(*Timestamp)
	assert.Equal(t, int64(1_500), tsa.Value(0))
	assert.Equal(t, "1970-01-01T00:00:01.5Z", tsa.ValueStr(0))
	assert.Equal(t, NullValueStr, tsa.ValueStr(1))

	db := NewDate32Builder(mem)
	require.NoError(t, db.AppendValue(int32(19_000)))
	arr2, err := db.Finish()
	require.NoError(t, err)
	defer arr2.Release()
	assert.Equal(t, "2022-01-08", arr2.ValueStr(0))
	assert.Equal(t, int32(19_000), TimeToDate32(arr2.(*Date32).Time(0)))
}

func TestNewBuilderCoversEveryKind(t *testing.T) {
	types := []datatype.Type{
		datatype.Null, datatype.Boolean, datatype.Int16, datatype.Uint64, datatype.Float32,
		datatype.Utf8, datatype.LargeUtf8, datatype.ListOf(datatype.Int8),
		datatype.LargeListOf(datatype.Utf8),
		datatype.StructOf(datatype.Field{Name: "a", Type: datatype.Int8}),
		datatype.DictionaryOf(datatype.Int8, datatype.Utf8),
		datatype.Date32, datatype.TimestampOf(datatype.Second, ""),
	}
	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			b, err := NewBuilder(memory.NewGoAllocator(), typ)
			require.NoError(t, err)
			require.NoError(t, b.AppendNull())
			arr, err := b.Finish()
			require.NoError(t, err)
			defer arr.Release()

			assert.True(t, datatype.Equal(typ, arr.DataType()))
			assert.Equal(t, 1, arr.Len())
			assert.True(t, arr.IsNull(0))
			assert.NoError(t, Validate(arr))
		})
	}
}

func TestNewBuilderWithConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.BuilderInitialCapacity = 100

	b, err := NewBuilderWithConfig(memory.NewGoAllocator(), datatype.Utf8, cfg)
	require.NoError(t, err)
	defer b.Release()
	assert.GreaterOrEqual(t, b.Cap(), 100)
	assert.Equal(t, 0, b.Len())
}
