package array

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// NumericBuilder builds a Numeric[T] array.
type NumericBuilder[T NumericValue] struct {
	builder
	values *typedBuffer[T]
}

type (
	Int8Builder    = NumericBuilder[int8]
	Int16Builder   = NumericBuilder[int16]
	Int32Builder   = NumericBuilder[int32]
	Int64Builder   = NumericBuilder[int64]
	Uint8Builder   = NumericBuilder[uint8]
	Uint16Builder  = NumericBuilder[uint16]
	Uint32Builder  = NumericBuilder[uint32]
	Uint64Builder  = NumericBuilder[uint64]
	Float32Builder = NumericBuilder[float32]
	Float64Builder = NumericBuilder[float64]
)

// NewNumericBuilder returns a builder for the numeric type backed by T.
func NewNumericBuilder[T NumericValue](mem memory.Allocator) *NumericBuilder[T] {
	b := newBuilder(mem, numericType[T]())
	return &NumericBuilder[T]{builder: b, values: newTypedBuffer[T](b.mem)}
}

func (b *NumericBuilder[T]) Append(v T) error {
	if err := b.checkOpen("Append"); err != nil {
		return err
	}
	b.values.append(v)
	b.appendValid(true)
	return nil
}

func (b *NumericBuilder[T]) AppendNull() error {
	if err := b.checkOpen("AppendNull"); err != nil {
		return err
	}
	b.values.appendZeros(1)
	b.appendValid(false)
	return nil
}

func (b *NumericBuilder[T]) AppendNulls(n int) error {
	if err := b.checkOpen("AppendNulls"); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	b.values.appendZeros(n)
	b.appendValidN(n, false)
	return nil
}

// AppendValues appends vs; valid marks which entries are non-null and may be
// nil when all are.
func (b *NumericBuilder[T]) AppendValues(vs []T, valid []bool) error {
	if err := b.checkOpen("AppendValues"); err != nil {
		return err
	}
	if valid != nil && len(valid) != len(vs) {
		return errors.NewMismatchedLengthError("AppendValues", len(valid), len(vs))
	}
	b.values.appendSlice(vs)
	if valid == nil {
		b.appendValidN(len(vs), true)
		return nil
	}
	for _, ok := range valid {
		b.appendValid(ok)
	}
	return nil
}

func (b *NumericBuilder[T]) AppendValue(v any) error {
	if v == nil {
		return b.AppendNull()
	}
	x, ok := toNumeric[T](v)
	if !ok {
		return errors.NewInvalidInputError("AppendValue",
			fmt.Sprintf("cannot append %T(%v) to %s builder", v, v, b.dtype))
	}
	return b.Append(x)
}

func (b *NumericBuilder[T]) Reserve(n int) error {
	if err := b.checkOpen("Reserve"); err != nil {
		return err
	}
	b.validity.reserve(n)
	b.values.reserve(n)
	return nil
}

func (b *NumericBuilder[T]) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	length, nulls := b.length, b.nulls
	values := b.values.finish()
	validity := b.finishValidity()
	return newFinishedArray(b.dtype, length, nulls, []*memory.Buffer{validity, values}, nil, nil), nil
}

func (b *NumericBuilder[T]) Release() {
	if b.finished {
		return
	}
	b.finished = true
	b.values.release()
	b.releaseValidity()
}

// toNumeric converts a Go number to T when the value is exactly representable.
func toNumeric[T NumericValue](v any) (T, bool) {
	switch x := v.(type) {
	case T:
		return x, true
	case int:
		return fromInt[T](int64(x))
	case int8:
		return fromInt[T](int64(x))
	case int16:
		return fromInt[T](int64(x))
	case int32:
		return fromInt[T](int64(x))
	case int64:
		return fromInt[T](x)
	case uint:
		return fromUint[T](uint64(x))
	case uint8:
		return fromUint[T](uint64(x))
	case uint16:
		return fromUint[T](uint64(x))
	case uint32:
		return fromUint[T](uint64(x))
	case uint64:
		return fromUint[T](x)
	case float32:
		return fromFloat[T](float64(x))
	case float64:
		return fromFloat[T](x)
	}
	var zero T
	return zero, false
}

func isFloat[T NumericValue]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	}
	return false
}

func isUnsigned[T NumericValue]() bool {
	var zero T
	return zero-1 > zero
}

func fromInt[T NumericValue](x int64) (T, bool) {
	t := T(x)
	if isFloat[T]() {
		return t, true
	}
	if x < 0 && isUnsigned[T]() {
		return 0, false
	}
	return t, int64(t) == x
}

func fromUint[T NumericValue](x uint64) (T, bool) {
	t := T(x)
	if isFloat[T]() {
		return t, true
	}
	if t < 0 {
		return 0, false
	}
	return t, uint64(t) == x
}

func fromFloat[T NumericValue](f float64) (T, bool) {
	if isFloat[T]() {
		return T(f), true
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if isUnsigned[T]() {
		if f < 0 || f >= math.MaxUint64 {
			return 0, false
		}
	} else if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	t := T(f)
	return t, float64(t) == f
}

// TimestampBuilder builds Timestamp arrays.
type TimestampBuilder struct {
	*NumericBuilder[int64]
	unit datatype.TimeUnit
}

// NewTimestampBuilder returns a builder for timestamps of type t.
func NewTimestampBuilder(mem memory.Allocator, t *datatype.TimestampType) *TimestampBuilder {
	nb := NewNumericBuilder[int64](mem)
	nb.dtype = t
	return &TimestampBuilder{NumericBuilder: nb, unit: t.Unit}
}

// AppendTime appends t converted to the builder's unit.
func (b *TimestampBuilder) AppendTime(t time.Time) error {
	return b.Append(TimeToTimestamp(t, b.unit))
}

// AppendValue accepts tick counts and time.Time values.
func (b *TimestampBuilder) AppendValue(v any) error {
	if t, ok := v.(time.Time); ok {
		return b.AppendTime(t)
	}
	return b.NumericBuilder.AppendValue(v)
}

// Date32Builder builds Date32 arrays.
type Date32Builder struct {
	*NumericBuilder[int32]
}

// NewDate32Builder returns a builder for date32 arrays.
func NewDate32Builder(mem memory.Allocator) *Date32Builder {
	nb := NewNumericBuilder[int32](mem)
	nb.dtype = datatype.Date32
	return &Date32Builder{NumericBuilder: nb}
}

// AppendTime appends the UTC calendar date of t.
func (b *Date32Builder) AppendTime(t time.Time) error {
	return b.Append(TimeToDate32(t))
}

// AppendValue accepts day counts and time.Time values.
func (b *Date32Builder) AppendValue(v any) error {
	if t, ok := v.(time.Time); ok {
		return b.AppendTime(t)
	}
	return b.NumericBuilder.AppendValue(v)
}
