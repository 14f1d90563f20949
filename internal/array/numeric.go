package array

import (
	"fmt"
	"strconv"

	"github.com/paveg/colframe/internal/datatype"
)

// Numeric is a fixed-width array of integers or floats.
type Numeric[T NumericValue] struct {
	array
	values []T
}

type (
	Int8    = Numeric[int8]
	Int16   = Numeric[int16]
	Int32   = Numeric[int32]
	Int64   = Numeric[int64]
	Uint8   = Numeric[uint8]
	Uint16  = Numeric[uint16]
	Uint32  = Numeric[uint32]
	Uint64  = Numeric[uint64]
	Float32 = Numeric[float32]
	Float64 = Numeric[float64]
)

func (a *Numeric[T]) setData(d *Data) {
	a.array.setData(d)
	a.values = nil
	if vals := d.buffers[1]; vals != nil {
		a.values = reinterpret[T](vals.Bytes())
		a.values = a.values[d.offset : d.offset+d.length]
	}
}

// Value returns entry i. It panics when i is out of range and returns the
// slot content, usually zero, for a null entry.
func (a *Numeric[T]) Value(i int) T { return a.values[i] }

// Get returns entry i, or an IndexOutOfRange error.
func (a *Numeric[T]) Get(i int) (T, error) {
	if err := checkIndex("Get", i, a.Len()); err != nil {
		var zero T
		return zero, err
	}
	return a.values[i], nil
}

// Values returns the value slots of the view. Null slots hold unspecified
// values.
func (a *Numeric[T]) Values() []T { return a.values }

func (a *Numeric[T]) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return formatNumber(a.values[i])
}

func (a *Numeric[T]) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	return a.values[i]
}

func (a *Numeric[T]) String() string { return formatArray(a, false) }

func formatNumber[T NumericValue](v T) string {
	switch v := any(v).(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// numericType maps a Go value type onto its datatype singleton.
func numericType[T NumericValue]() *datatype.NumericType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return datatype.Int8
	case int16:
		return datatype.Int16
	case int32:
		return datatype.Int32
	case int64:
		return datatype.Int64
	case uint8:
		return datatype.Uint8
	case uint16:
		return datatype.Uint16
	case uint32:
		return datatype.Uint32
	case uint64:
		return datatype.Uint64
	case float32:
		return datatype.Float32
	case float64:
		return datatype.Float64
	}
	panic(fmt.Sprintf("array: no datatype for %T", zero))
}
