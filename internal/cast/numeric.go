package cast

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// bounds describes the representable range of a numeric destination.
type bounds struct {
	float    bool
	unsigned bool
	mantissa int // significand bits of a float type
	bits     int
	minI     int64
	maxI     int64
	maxU     uint64
	maxF     float64
}

var numericBounds = map[datatype.ID]bounds{
	datatype.INT8:    {bits: 8, minI: math.MinInt8, maxI: math.MaxInt8},
	datatype.INT16:   {bits: 16, minI: math.MinInt16, maxI: math.MaxInt16},
	datatype.INT32:   {bits: 32, minI: math.MinInt32, maxI: math.MaxInt32},
	datatype.INT64:   {bits: 64, minI: math.MinInt64, maxI: math.MaxInt64},
	datatype.UINT8:   {bits: 8, unsigned: true, maxU: math.MaxUint8},
	datatype.UINT16:  {bits: 16, unsigned: true, maxU: math.MaxUint16},
	datatype.UINT32:  {bits: 32, unsigned: true, maxU: math.MaxUint32},
	datatype.UINT64:  {bits: 64, unsigned: true, maxU: math.MaxUint64},
	datatype.FLOAT32: {bits: 32, float: true, mantissa: 24, maxF: math.MaxFloat32},
	datatype.FLOAT64: {bits: 64, float: true, mantissa: 53, maxF: math.MaxFloat64},
}

func boundsOf[T array.NumericValue]() bounds {
	var zero T
	switch any(zero).(type) {
	case int8:
		return numericBounds[datatype.INT8]
	case int16:
		return numericBounds[datatype.INT16]
	case int32:
		return numericBounds[datatype.INT32]
	case int64:
		return numericBounds[datatype.INT64]
	case uint8:
		return numericBounds[datatype.UINT8]
	case uint16:
		return numericBounds[datatype.UINT16]
	case uint32:
		return numericBounds[datatype.UINT32]
	case uint64:
		return numericBounds[datatype.UINT64]
	case float32:
		return numericBounds[datatype.FLOAT32]
	}
	return numericBounds[datatype.FLOAT64]
}

// twoPow returns 2**n as a float64.
func twoPow(n int) float64 { return math.Ldexp(1, n) }

// exactInFloat reports whether the integer magnitude m fits the significand.
func exactInFloat(m uint64, mantissa int) bool {
	if m == 0 {
		return true
	}
	return bits.Len64(m)-bits.TrailingZeros64(m) <= mantissa
}

// convertOne converts v to D. ok is false when v is not exactly
// representable and the policy is OverflowError; reason says why.
func convertOne[S, D array.NumericValue](v S, src, dst bounds, p OverflowPolicy) (out D, ok bool, reason string) {
	switch {
	case dst.float && src.float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) <= dst.maxF {
			return D(v), true, ""
		}
		switch p {
		case OverflowError:
			return 0, false, "out of range"
		case OverflowSaturate:
			return D(math.Copysign(dst.maxF, f)), true, ""
		}
		return D(v), true, ""

	case dst.float:
		var m uint64
		if src.unsigned {
			m = uint64(v)
		} else if x := int64(v); x < 0 {
			m = uint64(-(x + 1)) + 1
		} else {
			m = uint64(x)
		}
		if exactInFloat(m, dst.mantissa) || p != OverflowError {
			return D(v), true, ""
		}
		return 0, false, "not exactly representable"

	case src.float:
		f := float64(v)
		lo, hi := float64(dst.minI), twoPow(dst.bits-1)
		if dst.unsigned {
			lo, hi = 0, twoPow(dst.bits)
		}
		switch {
		case math.IsNaN(f):
			if p == OverflowError {
				return 0, false, "NaN has no integer value"
			}
			return 0, true, ""
		case f < lo || f >= hi:
			if p == OverflowError {
				return 0, false, "out of range"
			}
			return saturate[D](f < lo, dst), true, ""
		case f != math.Trunc(f) && p == OverflowError:
			return 0, false, "has a fractional part"
		}
		return D(v), true, ""
	}

	var fits bool
	switch {
	case src.unsigned && dst.unsigned:
		fits = uint64(v) <= dst.maxU
	case src.unsigned:
		fits = uint64(v) <= uint64(dst.maxI)
	case dst.unsigned:
		fits = int64(v) >= 0 && uint64(int64(v)) <= dst.maxU
	default:
		fits = int64(v) >= dst.minI && int64(v) <= dst.maxI
	}
	if fits || p == OverflowTruncate {
		return D(v), true, ""
	}
	if p == OverflowSaturate {
		return saturate[D](!src.unsigned && int64(v) < 0, dst), true, ""
	}
	return 0, false, "out of range"
}

func saturate[D array.NumericValue](low bool, dst bounds) D {
	switch {
	case dst.unsigned && low:
		return 0
	case dst.unsigned:
		return D(dst.maxU)
	case low:
		return D(dst.minI)
	}
	return D(dst.maxI)
}

// newValues allocates a zeroed buffer of n slots of T.
func newValues[T any](mem memory.Allocator, n int) (*memory.Buffer, []T) {
	var zero T
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(n * int(unsafe.Sizeof(zero)))
	b := buf.Bytes()
	if len(b) == 0 {
		return buf, nil
	}
	clear(b)
	return buf, unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

func castNumeric(arr array.Array, to *datatype.NumericType, o *Options) (array.Array, error) {
	switch src := arr.(type) {
	case *array.Int8:
		return castFrom(src, to, o)
	case *array.Int16:
		return castFrom(src, to, o)
	case *array.Int32:
		return castFrom(src, to, o)
	case *array.Int64:
		return castFrom(src, to, o)
	case *array.Uint8:
		return castFrom(src, to, o)
	case *array.Uint16:
		return castFrom(src, to, o)
	case *array.Uint32:
		return castFrom(src, to, o)
	case *array.Uint64:
		return castFrom(src, to, o)
	case *array.Float32:
		return castFrom(src, to, o)
	case *array.Float64:
		return castFrom(src, to, o)
	}
	return nil, errors.NewInternalError(opCast, fmt.Errorf("%T is not a numeric array", arr))
}

func castFrom[S array.NumericValue](src *array.Numeric[S], to *datatype.NumericType, o *Options) (array.Array, error) {
	switch to.ID() {
	case datatype.INT8:
		return convert[S, int8](src, to, o)
	case datatype.INT16:
		return convert[S, int16](src, to, o)
	case datatype.INT32:
		return convert[S, int32](src, to, o)
	case datatype.INT64:
		return convert[S, int64](src, to, o)
	case datatype.UINT8:
		return convert[S, uint8](src, to, o)
	case datatype.UINT16:
		return convert[S, uint16](src, to, o)
	case datatype.UINT32:
		return convert[S, uint32](src, to, o)
	case datatype.UINT64:
		return convert[S, uint64](src, to, o)
	case datatype.FLOAT32:
		return convert[S, float32](src, to, o)
	case datatype.FLOAT64:
		return convert[S, float64](src, to, o)
	}
	return nil, errors.NewInternalError(opCast, fmt.Errorf("no numeric storage for %s", to))
}

func convert[S, D array.NumericValue](src *array.Numeric[S], to datatype.Type, o *Options) (array.Array, error) {
	sb, db := boundsOf[S](), boundsOf[D]()
	values := src.Values()
	buf, out := newValues[D](o.Allocator, len(values))

	for i, v := range values {
		if src.IsNull(i) {
			continue
		}
		d, ok, reason := convertOne[S, D](v, sb, db, o.Overflow)
		if !ok {
			buf.Release()
			return nil, errors.NewCastOverflow(opCast, i,
				fmt.Sprintf("%s value %v %s for %s", src.DataType(), v, reason, to))
		}
		out[i] = d
	}
	return assemble(to, src.Len(), src.NullN(), []*memory.Buffer{validityOf(src, o.Allocator), buf}, nil), nil
}

func boolToNumeric(arr *array.Boolean, to *datatype.NumericType, o *Options) (array.Array, error) {
	b, err := array.NewBuilder(o.Allocator, to)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	for i := 0; i < arr.Len(); i++ {
		var v any
		if arr.IsValid(i) {
			v = 0
			if arr.Value(i) {
				v = 1
			}
		}
		if err := b.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// numericToBool maps zero to false and anything else, NaN included, to true.
func numericToBool(arr array.Array, o *Options) (array.Array, error) {
	// Every non-zero value stays non-zero in float64.
	wide, err := castNumeric(arr, datatype.Float64, &Options{Allocator: o.Allocator, Overflow: OverflowTruncate})
	if err != nil {
		return nil, err
	}
	defer wide.Release()
	f := wide.(*array.Float64)

	b := array.NewBooleanBuilder(o.Allocator)
	defer b.Release()
	if err := b.Reserve(f.Len()); err != nil {
		return nil, err
	}
	for i, v := range f.Values() {
		if f.IsNull(i) {
			err = b.AppendNull()
		} else {
			err = b.Append(v != 0)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
