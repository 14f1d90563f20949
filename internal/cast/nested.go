package cast

import (
	stderrors "errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

func castList(arr array.Array, to *datatype.ListType, o *Options) (array.Array, error) {
	switch src := arr.(type) {
	case *array.List:
		if to.Large {
			return castListAs[int32, int64](src, to, o)
		}
		return castListAs[int32, int32](src, to, o)
	case *array.LargeList:
		if to.Large {
			return castListAs[int64, int64](src, to, o)
		}
		return castListAs[int64, int32](src, to, o)
	}
	return nil, incompatible(arr.DataType(), to, "source is not a list")
}

// castListAs casts the child values. The offsets buffer is shared when the
// widths agree and the source covers its whole child from zero; otherwise
// offsets are rebased and only the referenced child range is cast.
func castListAs[S, D array.Offset](src *array.ListArray[S], to *datatype.ListType, o *Options) (array.Array, error) {
	var (
		zs S
		zd D
	)
	offs := src.Offsets()
	start, end := int64(offs[0]), int64(offs[len(offs)-1])
	child := src.ListValues()

	if unsafe.Sizeof(zs) == unsafe.Sizeof(zd) && src.Offset() == 0 && start == 0 && int64(child.Len()) == end {
		values, err := cast(child, to.Elem, o)
		if err != nil {
			return nil, err
		}
		shared := src.Data().Buffers()[1]
		shared.Retain()
		return assemble(to, src.Len(), src.NullN(),
			[]*memory.Buffer{validityOf(src, o.Allocator), shared}, []array.Array{values}), nil
	}

	limit := int64(math.MaxInt64)
	if unsafe.Sizeof(zd) == 4 {
		limit = math.MaxInt32
	}
	if end-start > limit {
		return nil, errors.NewCastOverflow(opCast, errors.NoIndex,
			fmt.Sprintf("%d child values exceed %s offsets", end-start, to))
	}
	buf, out := newValues[D](o.Allocator, len(offs))
	for i, off := range offs {
		out[i] = D(int64(off) - start)
	}

	part, err := array.NewSlice(child, int(start), int(end))
	if err != nil {
		buf.Release()
		return nil, err
	}
	defer part.Release()
	values, err := cast(part, to.Elem, o)
	if err != nil {
		buf.Release()
		return nil, err
	}
	return assemble(to, src.Len(), src.NullN(),
		[]*memory.Buffer{validityOf(src, o.Allocator), buf}, []array.Array{values}), nil
}

// castStruct matches fields by name. Both types must carry the same set of
// names; field order may differ.
func castStruct(src *array.Struct, to *datatype.StructType, o *Options) (array.Array, error) {
	from := src.DataType().(*datatype.StructType)
	if from.NumFields() != to.NumFields() {
		return nil, incompatible(from, to, "field counts differ")
	}
	for i := 0; i < from.NumFields(); i++ {
		if _, ok := to.FieldIndex(from.Field(i).Name); !ok {
			return nil, incompatible(from, to, fmt.Sprintf("field %q has no counterpart", from.Field(i).Name))
		}
	}

	children := make([]array.Array, 0, to.NumFields())
	for i := 0; i < to.NumFields(); i++ {
		f := to.Field(i)
		field, err := src.FieldByName(f.Name)
		if err != nil {
			releaseAll(children)
			return nil, incompatible(from, to, fmt.Sprintf("field %q has no counterpart", f.Name))
		}
		c, err := cast(field, f.Type, o)
		if err != nil {
			releaseAll(children)
			return nil, attributeField(err, f.Name)
		}
		children = append(children, c)
	}
	return assemble(to, src.Len(), src.NullN(),
		[]*memory.Buffer{validityOf(src, o.Allocator)}, children), nil
}

// attributeField names the struct field a nested failure came from, keeping
// the innermost name when fields nest.
func attributeField(err error, name string) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Column == "" {
		return e.WithColumn(name)
	}
	return err
}

func castFromDictionary(src *array.Dictionary, to datatype.Type, o *Options) (array.Array, error) {
	from := src.DataType().(*datatype.DictionaryType)
	if td, ok := to.(*datatype.DictionaryType); ok && datatype.Equal(from.Value, td.Value) {
		if datatype.Equal(from.Index, td.Index) {
			return retype(src, td), nil
		}
		return reindex(src, td, o)
	}

	decoded, err := decode(src, o)
	if err != nil {
		return nil, err
	}
	defer decoded.Release()
	return cast(decoded, to, o)
}

// reindex changes the index width and keeps the dictionary. An entry whose
// dictionary position the new index type cannot hold is out of range.
func reindex(src *array.Dictionary, to *datatype.DictionaryType, o *Options) (array.Array, error) {
	limit := indexLimit(to.Index)
	for i := 0; i < src.Len(); i++ {
		if src.IsValid(i) && src.IndexAt(i) >= limit {
			return nil, errors.NewIndexOutOfRange(opCast, i, limit)
		}
	}

	strict := *o
	strict.Overflow = OverflowError
	idx, err := castNumeric(src.Indices(), to.Index, &strict)
	if err != nil {
		return nil, err
	}
	defer idx.Release()

	d := idx.Data()
	nd := array.NewDataWithDictionary(to, d.Len(), d.Buffers(), d.NullN(), d.Offset(), src.Dictionary().Data())
	defer nd.Release()
	return array.MakeFromData(nd), nil
}

// indexLimit is the number of dictionary positions an index type can address.
func indexLimit(t *datatype.NumericType) int {
	b := numericBounds[t.ID()]
	if b.unsigned {
		if b.maxU >= math.MaxInt {
			return math.MaxInt
		}
		return int(b.maxU) + 1
	}
	if b.maxI >= math.MaxInt {
		return math.MaxInt
	}
	return int(b.maxI) + 1
}

// decode materialises the dictionary values of src.
func decode(src *array.Dictionary, o *Options) (array.Array, error) {
	dict := src.Dictionary()
	b, err := array.NewBuilder(o.Allocator, dict.DataType())
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.Reserve(src.Len()); err != nil {
		return nil, err
	}
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			err = b.AppendNull()
		} else {
			err = array.AppendFrom(b, dict, src.IndexAt(i))
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

func encodeDictionary(arr array.Array, to *datatype.DictionaryType, o *Options) (array.Array, error) {
	values, err := cast(arr, to.Value, o)
	if err != nil {
		return nil, err
	}
	defer values.Release()

	b, err := array.NewDictionaryBuilder(o.Allocator, to)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.Reserve(values.Len()); err != nil {
		return nil, err
	}
	for i := 0; i < values.Len(); i++ {
		if err := b.AppendValue(values.GetOneForMarshal(i)); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
