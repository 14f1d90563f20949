package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// StructBuilder builds Struct arrays. The parent validity and the field
// builders are driven independently; Finish requires every field builder to
// hold exactly Len() entries.
type StructBuilder struct {
	builder
	fields []Builder
}

// NewStructBuilder returns a builder for st with one child builder per field.
func NewStructBuilder(mem memory.Allocator, st *datatype.StructType) (*StructBuilder, error) {
	b := newBuilder(mem, st)
	fields := make([]Builder, st.NumFields())
	for i := range fields {
		fb, err := NewBuilder(b.mem, st.Field(i).Type)
		if err != nil {
			for _, prev := range fields[:i] {
				prev.Release()
			}
			return nil, err
		}
		fields[i] = fb
	}
	return &StructBuilder{builder: b, fields: fields}, nil
}

func (b *StructBuilder) NumField() int              { return len(b.fields) }
func (b *StructBuilder) FieldBuilder(i int) Builder { return b.fields[i] }

// Append records the validity of the next entry only; field values are
// appended through FieldBuilder.
func (b *StructBuilder) Append(valid bool) error {
	if err := b.checkOpen("Append"); err != nil {
		return err
	}
	b.appendValid(valid)
	return nil
}

// AppendNull appends a null entry and a null to every field.
func (b *StructBuilder) AppendNull() error {
	return b.AppendNulls(1)
}

func (b *StructBuilder) AppendNulls(n int) error {
	if err := b.checkOpen("AppendNulls"); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	for _, f := range b.fields {
		if err := f.AppendNulls(n); err != nil {
			return err
		}
	}
	b.appendValidN(n, false)
	return nil
}

// AppendValue accepts a map keyed by field name; missing fields become null.
func (b *StructBuilder) AppendValue(v any) error {
	if v == nil {
		return b.AppendNull()
	}
	m, ok := v.(map[string]any)
	if !ok {
		return errors.NewInvalidInputError("AppendValue", fmt.Sprintf("cannot append %T to %s builder", v, b.dtype))
	}
	if err := b.checkOpen("AppendValue"); err != nil {
		return err
	}
	st := b.dtype.(*datatype.StructType)
	for i, f := range b.fields {
		if err := f.AppendValue(m[st.Field(i).Name]); err != nil {
			return err
		}
	}
	b.appendValid(true)
	return nil
}

func (b *StructBuilder) Reserve(n int) error {
	if err := b.checkOpen("Reserve"); err != nil {
		return err
	}
	b.validity.reserve(n)
	for _, f := range b.fields {
		if err := f.Reserve(n); err != nil {
			return err
		}
	}
	return nil
}

func (b *StructBuilder) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	st := b.dtype.(*datatype.StructType)
	for i, f := range b.fields {
		if f.Len() != b.length {
			err := errors.NewChildLengthMismatch("Finish", st.Field(i).Name, f.Len(), b.length)
			b.Release()
			return nil, err
		}
	}

	children := make([]Array, 0, len(b.fields))
	for _, f := range b.fields {
		child, err := f.Finish()
		if err != nil {
			for _, c := range children {
				c.Release()
			}
			b.Release()
			return nil, err
		}
		children = append(children, child)
	}

	length, nulls := b.length, b.nulls
	validity := b.finishValidity()
	return newFinishedArray(b.dtype, length, nulls, []*memory.Buffer{validity}, children, nil), nil
}

func (b *StructBuilder) Release() {
	if b.finished {
		return
	}
	b.finished = true
	for _, f := range b.fields {
		f.Release()
	}
	b.releaseValidity()
}
