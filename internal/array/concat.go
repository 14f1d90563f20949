package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// AppendFrom appends entry i of src to b. Nested entries keep their child
// values even below a null parent.
func AppendFrom(b Builder, src Array, i int) error {
	switch src := src.(type) {
	case *Struct:
		sb, ok := b.(*StructBuilder)
		if !ok {
			return errors.NewIncompatibleSchema("AppendFrom", fmt.Sprintf("cannot append %s to %s", src.DataType(), b.Type()))
		}
		if err := sb.Append(src.IsValid(i)); err != nil {
			return err
		}
		for k := 0; k < src.NumField(); k++ {
			if err := AppendFrom(sb.FieldBuilder(k), src.Field(k), i); err != nil {
				return err
			}
		}
		return nil
	case *List:
		return appendListFrom(b, src, i)
	case *LargeList:
		return appendListFrom(b, src, i)
	}
	return b.AppendValue(src.GetOneForMarshal(i))
}

func appendListFrom[O Offset](b Builder, src *ListArray[O], i int) error {
	var (
		open   func(bool) error
		values Builder
	)
	switch lb := b.(type) {
	case *ListBuilder:
		open, values = lb.Append, lb.ValueBuilder()
	case *LargeListBuilder:
		open, values = lb.Append, lb.ValueBuilder()
	default:
		return errors.NewIncompatibleSchema("AppendFrom", fmt.Sprintf("cannot append %s to %s", src.DataType(), b.Type()))
	}
	if err := open(src.IsValid(i)); err != nil {
		return err
	}
	if src.IsNull(i) {
		return nil
	}
	start, end := src.ValueOffsets(i)
	for j := start; j < end; j++ {
		if err := AppendFrom(values, src.values, j); err != nil {
			return err
		}
	}
	return nil
}

// Concatenate copies arrs, which must share one type, into a new array.
func Concatenate(mem memory.Allocator, arrs ...Array) (Array, error) {
	if len(arrs) == 0 {
		return nil, errors.NewInvalidInputError("Concatenate", "no arrays to concatenate")
	}
	dtype := arrs[0].DataType()
	total := 0
	for _, arr := range arrs {
		if !datatype.Equal(dtype, arr.DataType()) {
			return nil, errors.NewIncompatibleSchema("Concatenate",
				fmt.Sprintf("cannot concatenate %s with %s", dtype, arr.DataType()))
		}
		total += arr.Len()
	}

	b, err := NewBuilder(mem, dtype)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.Reserve(total); err != nil {
		return nil, err
	}
	for _, arr := range arrs {
		for i := 0; i < arr.Len(); i++ {
			if err := AppendFrom(b, arr, i); err != nil {
				return nil, err
			}
		}
	}
	return b.Finish()
}

// Take gathers arr[indices[k]] into a new array.
func Take(mem memory.Allocator, arr Array, indices []int) (Array, error) {
	b, err := NewBuilder(mem, arr.DataType())
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.Reserve(len(indices)); err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if err := checkIndex("Take", idx, arr.Len()); err != nil {
			return nil, err
		}
		if err := AppendFrom(b, arr, idx); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// MakeArrayOfNull returns an array of n nulls of type t.
func MakeArrayOfNull(mem memory.Allocator, t datatype.Type, n int) (Array, error) {
	b, err := NewBuilder(mem, t)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.AppendNulls(n); err != nil {
		return nil, err
	}
	return b.Finish()
}

