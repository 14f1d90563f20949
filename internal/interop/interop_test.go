package interop

import (
	stderrors "errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/testutil"
)

func TestTypeRoundTrip(t *testing.T) {
	types := []datatype.Type{
		datatype.Null, datatype.Boolean, datatype.Int8, datatype.Uint64, datatype.Float32,
		datatype.Utf8, datatype.LargeUtf8, datatype.Date32,
		datatype.TimestampOf(datatype.Microsecond, "Asia/Tokyo"),
		datatype.ListOf(datatype.Int32),
		datatype.LargeListOf(datatype.Utf8),
		datatype.StructOf(
			datatype.Field{Name: "a", Type: datatype.Int64},
			datatype.Field{Name: "b", Type: datatype.ListOf(datatype.Float64), Nullable: true},
		),
		&datatype.DictionaryType{Index: datatype.Uint16, Value: datatype.Utf8, Ordered: true},
	}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			got, err := FromArrowType(ToArrowType(typ))
			require.NoError(t, err)
			assert.True(t, datatype.Equal(typ, got), "got %s", got)
		})
	}
}

func TestFromArrowTypeUnsupported(t *testing.T) {
	for _, typ := range []arrow.DataType{
		arrow.BinaryTypes.Binary,
		arrow.FixedWidthTypes.Float16,
		arrow.ListOf(arrow.FixedWidthTypes.Date64),
	} {
		_, err := FromArrowType(typ)
		assert.True(t, stderrors.Is(err, errors.ErrUnsupportedType), "%s", typ)
	}
}

func TestArrayRoundTrip(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tests := []struct {
		name   string
		typ    datatype.Type
		values []any
	}{
		{"null", datatype.Null, []any{nil, nil}},
		{"bool", datatype.Boolean, []any{true, nil, false}},
		{"int16", datatype.Int16, []any{int16(-3), nil, int16(7)}},
		{"string", datatype.Utf8, []any{"x", nil, "yz"}},
		{"large string", datatype.LargeUtf8, []any{"", "long"}},
		{"timestamp", datatype.TimestampOf(datatype.Millisecond, "UTC"), []any{int64(1500), nil}},
		{"list", datatype.ListOf(datatype.Int32), []any{[]any{int32(1), nil}, nil, []any{}}},
		{
			"struct",
			datatype.StructOf(
				datatype.Field{Name: "a", Type: datatype.Int64, Nullable: true},
				datatype.Field{Name: "b", Type: datatype.Utf8, Nullable: true},
			),
			[]any{map[string]any{"a": int64(1), "b": "x"}, nil, map[string]any{"a": nil, "b": "z"}},
		},
		{"dictionary", datatype.DictionaryOf(datatype.Int8, datatype.Utf8), []any{"a", "b", nil, "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := testutil.BuildArray(t, mem.Allocator, tt.typ, tt.values...)
			defer orig.Release()

			a := ToArrow(orig)
			defer a.Release()
			assert.Equal(t, orig.Len(), a.Len())
			assert.Equal(t, orig.NullN(), a.NullN())

			back, err := FromArrow(a)
			require.NoError(t, err)
			defer back.Release()

			assert.True(t, array.Equal(orig, back))
			assert.NoError(t, array.Validate(back))
		})
	}
}

func TestToArrowSharesBuffers(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	orig := testutil.BuildArray(t, mem.Allocator, datatype.Int64, int64(1), int64(2), int64(3), int64(4))
	defer orig.Release()
	view, err := array.NewSlice(orig, 1, 3)
	require.NoError(t, err)
	defer view.Release()

	before := mem.Allocator.CurrentAlloc()
	a := ToArrow(view)
	defer a.Release()
	assert.Equal(t, before, mem.Allocator.CurrentAlloc())

	assert.Same(t, orig.Data().Buffers()[1], a.Data().Buffers()[1])
	assert.Equal(t, []int64{2, 3}, a.(*arrowarray.Int64).Int64Values())
}

func TestFromArrowBuilder(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	b := arrowarray.NewStringBuilder(mem.Allocator)
	defer b.Release()
	b.AppendValues([]string{"p", "q", "r"}, []bool{true, false, true})
	a := b.NewArray()
	defer a.Release()

	arr, err := FromArrow(a)
	require.NoError(t, err)
	defer arr.Release()

	assert.Equal(t, []any{"p", nil, "r"}, testutil.Values(arr))
}

func TestRecords(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	build := func(ids []any, names []any) *table.Table {
		idArr := testutil.BuildArray(t, mem.Allocator, datatype.Int32, ids...)
		nameArr := testutil.BuildArray(t, mem.Allocator, datatype.Utf8, names...)
		cols := []*table.Column{table.NewColumn("id", idArr), table.NewColumn("name", nameArr)}
		idArr.Release()
		nameArr.Release()
		tbl, err := table.NewWithAllocator(mem.Allocator, cols...)
		require.NoError(t, err)
		for _, c := range cols {
			c.Release()
		}
		return tbl
	}

	first := build([]any{int32(1), int32(2)}, []any{"a", nil})
	defer first.Release()
	second := build([]any{int32(3)}, []any{"c"})
	defer second.Release()

	r1, r2 := ToRecord(first, nil), ToRecord(second, nil)
	defer r1.Release()
	defer r2.Release()
	assert.Equal(t, int64(2), r1.NumRows())

	t.Run("single batch", func(t *testing.T) {
		out, err := FromRecords(mem.Allocator, r1.Schema(), []arrow.Record{r1})
		require.NoError(t, err)
		defer out.Release()
		assert.True(t, first.Schema().Equal(out.Schema()))
	})

	t.Run("stacked", func(t *testing.T) {
		out, err := FromRecords(mem.Allocator, r1.Schema(), []arrow.Record{r1, r2})
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, 3, out.Len())
		id, _ := out.Column("id")
		name, _ := out.Column("name")
		assert.Equal(t, []any{int32(1), int32(2), int32(3)}, testutil.Values(id.Data()))
		assert.Equal(t, []any{"a", nil, "c"}, testutil.Values(name.Data()))
	})

	t.Run("no batches", func(t *testing.T) {
		out, err := FromRecords(mem.Allocator, r1.Schema(), nil)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, 0, out.Len())
		assert.Equal(t, 2, out.Width())
	})
}

func TestFromArrowPlainArrays(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	ib := arrowarray.NewInt32Builder(mem.Allocator)
	defer ib.Release()
	ib.AppendValues([]int32{4, 5, 6}, nil)
	ints := ib.NewArray()
	defer ints.Release()

	fb := arrowarray.NewFloat64Builder(mem.Allocator)
	defer fb.Release()
	fb.AppendValues([]float64{1.5, 0}, []bool{true, false})
	floats := fb.NewArray()
	defer floats.Release()

	lb := arrowarray.NewListBuilder(mem.Allocator, arrow.PrimitiveTypes.Int64)
	defer lb.Release()
	vb := lb.ValueBuilder().(*arrowarray.Int64Builder)
	lb.Append(true)
	vb.AppendValues([]int64{1, 2}, nil)
	lb.AppendNull()
	lists := lb.NewArray()
	defer lists.Release()

	tests := []struct {
		name  string
		arr   arrow.Array
		typ   datatype.Type
		want  []any
		nulls int
	}{
		{"int32", ints, datatype.Int32, []any{int32(4), int32(5), int32(6)}, 0},
		{"float64", floats, datatype.Float64, []any{1.5, nil}, 1},
		{"list", lists, datatype.ListOf(datatype.Int64), []any{[]any{int64(1), int64(2)}, nil}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromArrow(tt.arr)
			require.NoError(t, err)
			defer got.Release()

			assert.True(t, datatype.Equal(tt.typ, got.DataType()), "got %s", got.DataType())
			assert.Equal(t, tt.nulls, got.NullN())
			assert.Equal(t, tt.want, testutil.Values(got))
			assert.NoError(t, array.Validate(got))
		})
	}
}

func TestFromArrowRecountsNulls(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	values := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes([]int32{1, 2, 3}))
	bitmap := memory.NewBufferBytes([]byte{0b101})

	t.Run("count disagrees with bitmap", func(t *testing.T) {
		d := arrowarray.NewData(arrow.PrimitiveTypes.Int32, 3, []*memory.Buffer{bitmap, values}, nil, 0, 0)
		defer d.Release()
		a := arrowarray.MakeFromData(d)
		defer a.Release()

		got, err := FromArrow(a)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, 1, got.NullN())
		assert.Equal(t, []any{int32(1), nil, int32(3)}, testutil.Values(got))
	})

	t.Run("bitmap too short", func(t *testing.T) {
		d := arrowarray.NewData(arrow.PrimitiveTypes.Int32, 3, []*memory.Buffer{memory.NewBufferBytes(nil), values}, nil, 0, 0)
		defer d.Release()
		a := arrowarray.MakeFromData(d)
		defer a.Release()

		_, err := FromArrow(a)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidInput), "%v", err)
	})
}
