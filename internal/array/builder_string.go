package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/errors"
)

// StringBuilderOf builds StringArray[O] values.
type StringBuilderOf[O Offset] struct {
	builder
	offsets   *typedBuffer[O]
	values    *typedBuffer[byte]
	maxOffset int64
}

type (
	StringBuilder      = StringBuilderOf[int32]
	LargeStringBuilder = StringBuilderOf[int64]
)

func newStringBuilder[O Offset](mem memory.Allocator) *StringBuilderOf[O] {
	b := newBuilder(mem, stringType[O]())
	return &StringBuilderOf[O]{
		builder:   b,
		offsets:   newTypedBuffer[O](b.mem),
		values:    newTypedBuffer[byte](b.mem),
		maxOffset: maxOffsetOf[O](),
	}
}

// NewStringBuilder returns a builder for utf8 arrays.
func NewStringBuilder(mem memory.Allocator) *StringBuilder { return newStringBuilder[int32](mem) }

// NewLargeStringBuilder returns a builder for large_utf8 arrays.
func NewLargeStringBuilder(mem memory.Allocator) *LargeStringBuilder {
	return newStringBuilder[int64](mem)
}

// Append appends s. It fails with BuilderOverflow, leaving the builder
// untouched, when the payload would pass the largest offset.
func (b *StringBuilderOf[O]) Append(s string) error {
	if err := b.checkOpen("Append"); err != nil {
		return err
	}
	size := int64(b.values.len()) + int64(len(s))
	if size > b.maxOffset {
		return errors.NewBuilderOverflow("Append", size, b.maxOffset)
	}
	b.offsets.append(O(b.values.len()))
	b.values.appendSlice([]byte(s))
	b.appendValid(true)
	return nil
}

// AppendBytes appends the UTF-8 bytes p.
func (b *StringBuilderOf[O]) AppendBytes(p []byte) error {
	return b.Append(string(p))
}

func (b *StringBuilderOf[O]) AppendNull() error {
	return b.AppendNulls(1)
}

func (b *StringBuilderOf[O]) AppendNulls(n int) error {
	if err := b.checkOpen("AppendNulls"); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	end := O(b.values.len())
	b.offsets.reserve(n)
	for i := 0; i < n; i++ {
		b.offsets.append(end)
	}
	b.appendValidN(n, false)
	return nil
}

// AppendValues appends vs; valid may be nil when all are non-null.
func (b *StringBuilderOf[O]) AppendValues(vs []string, valid []bool) error {
	if valid != nil && len(valid) != len(vs) {
		return errors.NewMismatchedLengthError("AppendValues", len(valid), len(vs))
	}
	for i, s := range vs {
		var err error
		if valid == nil || valid[i] {
			err = b.Append(s)
		} else {
			err = b.AppendNull()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *StringBuilderOf[O]) AppendValue(v any) error {
	switch v := v.(type) {
	case nil:
		return b.AppendNull()
	case string:
		return b.Append(v)
	case []byte:
		return b.AppendBytes(v)
	}
	return errors.NewInvalidInputError("AppendValue", fmt.Sprintf("cannot append %T to %s builder", v, b.dtype))
}

func (b *StringBuilderOf[O]) Reserve(n int) error {
	if err := b.checkOpen("Reserve"); err != nil {
		return err
	}
	b.validity.reserve(n)
	b.offsets.reserve(n + 1)
	return nil
}

// ReserveData makes room for n more payload bytes.
func (b *StringBuilderOf[O]) ReserveData(n int) error {
	if err := b.checkOpen("ReserveData"); err != nil {
		return err
	}
	b.values.reserve(n)
	return nil
}

// DataLen returns the payload size appended so far.
func (b *StringBuilderOf[O]) DataLen() int { return b.values.len() }

func (b *StringBuilderOf[O]) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	b.offsets.append(O(b.values.len()))
	length, nulls := b.length, b.nulls
	offsets := b.offsets.finish()
	values := b.values.finish()
	validity := b.finishValidity()
	return newFinishedArray(b.dtype, length, nulls, []*memory.Buffer{validity, offsets, values}, nil, nil), nil
}

func (b *StringBuilderOf[O]) Release() {
	if b.finished {
		return
	}
	b.finished = true
	b.offsets.release()
	b.values.release()
	b.releaseValidity()
}
