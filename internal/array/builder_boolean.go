package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// BooleanBuilder builds Boolean arrays.
type BooleanBuilder struct {
	builder
	values *bitmapBuffer
}

func NewBooleanBuilder(mem memory.Allocator) *BooleanBuilder {
	b := newBuilder(mem, datatype.Boolean)
	return &BooleanBuilder{builder: b, values: newBitmapBuffer(b.mem)}
}

func (b *BooleanBuilder) Append(v bool) error {
	if err := b.checkOpen("Append"); err != nil {
		return err
	}
	b.values.append(v)
	b.appendValid(true)
	return nil
}

func (b *BooleanBuilder) AppendNull() error {
	return b.AppendNulls(1)
}

func (b *BooleanBuilder) AppendNulls(n int) error {
	if err := b.checkOpen("AppendNulls"); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	b.values.appendN(n, false)
	b.appendValidN(n, false)
	return nil
}

func (b *BooleanBuilder) AppendValue(v any) error {
	switch v := v.(type) {
	case nil:
		return b.AppendNull()
	case bool:
		return b.Append(v)
	}
	return errors.NewInvalidInputError("AppendValue", fmt.Sprintf("cannot append %T to bool builder", v))
}

func (b *BooleanBuilder) Reserve(n int) error {
	if err := b.checkOpen("Reserve"); err != nil {
		return err
	}
	b.validity.reserve(n)
	b.values.reserve(n)
	return nil
}

func (b *BooleanBuilder) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	length, nulls := b.length, b.nulls
	values := b.values.finish()
	validity := b.finishValidity()
	return newFinishedArray(b.dtype, length, nulls, []*memory.Buffer{validity, values}, nil, nil), nil
}

func (b *BooleanBuilder) Release() {
	if b.finished {
		return
	}
	b.finished = true
	b.values.release()
	b.releaseValidity()
}

// NullBuilder counts entries of a Null array.
type NullBuilder struct {
	builder
}

func NewNullBuilder(mem memory.Allocator) *NullBuilder {
	return &NullBuilder{builder: newBuilder(mem, datatype.Null)}
}

func (b *NullBuilder) Cap() int { return b.length }

func (b *NullBuilder) AppendNull() error { return b.AppendNulls(1) }

func (b *NullBuilder) AppendNulls(n int) error {
	if err := b.checkOpen("AppendNulls"); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	b.length += n
	b.nulls += n
	return nil
}

func (b *NullBuilder) AppendValue(v any) error {
	if v != nil {
		return errors.NewInvalidInputError("AppendValue", fmt.Sprintf("cannot append %T to null builder", v))
	}
	return b.AppendNull()
}

func (b *NullBuilder) Reserve(n int) error { return b.checkOpen("Reserve") }

func (b *NullBuilder) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	b.finished = true
	return newFinishedArray(b.dtype, b.length, b.length, []*memory.Buffer{nil}, nil, nil), nil
}

func (b *NullBuilder) Release() { b.finished = true }
