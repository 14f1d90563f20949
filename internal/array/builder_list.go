package array

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// ListBuilderOf builds ListArray[O] values. Elements are appended to the
// ValueBuilder after Append(true) opens a list entry.
type ListBuilderOf[O Offset] struct {
	builder
	offsets   *typedBuffer[O]
	values    Builder
	maxOffset int64
}

type (
	ListBuilder      = ListBuilderOf[int32]
	LargeListBuilder = ListBuilderOf[int64]
)

func newListBuilder[O Offset](mem memory.Allocator, elem datatype.Type) (*ListBuilderOf[O], error) {
	values, err := NewBuilder(mem, elem)
	if err != nil {
		return nil, err
	}
	dtype := &datatype.ListType{Elem: elem, Large: isLargeOffset[O]()}
	b := newBuilder(mem, dtype)
	return &ListBuilderOf[O]{
		builder:   b,
		offsets:   newTypedBuffer[O](b.mem),
		values:    values,
		maxOffset: maxOffsetOf[O](),
	}, nil
}

// NewListBuilder returns a builder for list<elem>.
func NewListBuilder(mem memory.Allocator, elem datatype.Type) (*ListBuilder, error) {
	return newListBuilder[int32](mem, elem)
}

// NewLargeListBuilder returns a builder for large_list<elem>.
func NewLargeListBuilder(mem memory.Allocator, elem datatype.Type) (*LargeListBuilder, error) {
	return newListBuilder[int64](mem, elem)
}

// ValueBuilder returns the child builder receiving list elements.
func (b *ListBuilderOf[O]) ValueBuilder() Builder { return b.values }

// Append starts a new entry. A valid entry holds every element appended to
// ValueBuilder until the next Append or Finish.
func (b *ListBuilderOf[O]) Append(valid bool) error {
	if err := b.checkOpen("Append"); err != nil {
		return err
	}
	start := int64(b.values.Len())
	if start > b.maxOffset {
		return errors.NewBuilderOverflow("Append", start, b.maxOffset)
	}
	b.offsets.append(O(start))
	b.appendValid(valid)
	return nil
}

func (b *ListBuilderOf[O]) AppendNull() error { return b.Append(false) }

func (b *ListBuilderOf[O]) AppendNulls(n int) error {
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	for i := 0; i < n; i++ {
		if err := b.Append(false); err != nil {
			return err
		}
	}
	return nil
}

// AppendValue accepts []any or any other slice whose elements the child
// builder accepts.
func (b *ListBuilderOf[O]) AppendValue(v any) error {
	if v == nil {
		return b.AppendNull()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errors.NewInvalidInputError("AppendValue", fmt.Sprintf("cannot append %T to %s builder", v, b.dtype))
	}
	if err := b.Append(true); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := b.values.AppendValue(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (b *ListBuilderOf[O]) Reserve(n int) error {
	if err := b.checkOpen("Reserve"); err != nil {
		return err
	}
	b.validity.reserve(n)
	b.offsets.reserve(n + 1)
	return nil
}

func (b *ListBuilderOf[O]) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	end := int64(b.values.Len())
	if end > b.maxOffset {
		b.Release()
		return nil, errors.NewBuilderOverflow("Finish", end, b.maxOffset)
	}
	child, err := b.values.Finish()
	if err != nil {
		b.Release()
		return nil, err
	}
	b.offsets.append(O(end))
	length, nulls := b.length, b.nulls
	offsets := b.offsets.finish()
	validity := b.finishValidity()
	return newFinishedArray(b.dtype, length, nulls, []*memory.Buffer{validity, offsets}, []Array{child}, nil), nil
}

func (b *ListBuilderOf[O]) Release() {
	if b.finished {
		return
	}
	b.finished = true
	b.offsets.release()
	b.values.Release()
	b.releaseValidity()
}
