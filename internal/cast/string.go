package cast

import (
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// stringSource is implemented by String and LargeString.
type stringSource interface {
	array.Array
	Value(i int) string
}

// toString renders every valid entry with its canonical text form.
func toString(arr array.Array, to datatype.Type, o *Options) (array.Array, error) {
	b, err := array.NewBuilder(o.Allocator, to)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.Reserve(arr.Len()); err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			err = b.AppendNull()
		} else {
			err = b.AppendValue(arr.ValueStr(i))
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

func fromString(arr array.Array, to datatype.Type, o *Options) (array.Array, error) {
	src, ok := arr.(stringSource)
	if !ok {
		return nil, incompatible(arr.DataType(), to, "source is not a string array")
	}

	switch datatype.KindOf(to) {
	case datatype.KindString:
		switch s := arr.(type) {
		case *array.String:
			return rewidth[int32, int64](s, to, o)
		case *array.LargeString:
			return rewidth[int64, int32](s, to, o)
		}
	case datatype.KindBool:
		return parseEach(src, array.NewBooleanBuilder(o.Allocator), func(s string) (any, error) {
			return strconv.ParseBool(s)
		})
	case datatype.KindPrimitive:
		return parseNumeric(src, to.(*datatype.NumericType), o)
	case datatype.KindTemporal:
		return parseTemporal(src, to, o)
	}
	return nil, incompatible(arr.DataType(), to, "no conversion rule")
}

// parseEach appends parse(s) for every valid entry of src to b and finishes
// it. Parse failures carry the entry's index.
func parseEach(src stringSource, b array.Builder, parse func(string) (any, error)) (array.Array, error) {
	defer b.Release()
	if err := b.Reserve(src.Len()); err != nil {
		return nil, err
	}
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			if err := b.AppendNull(); err != nil {
				return nil, err
			}
			continue
		}
		s := src.Value(i)
		v, err := parse(s)
		if err != nil {
			var e *errors.Error
			if stderrors.As(err, &e) {
				e.Index = i
				return nil, e
			}
			return nil, errors.NewCastParseError(opCast, i, s, err)
		}
		if err := b.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// parseNumeric parses into the widest type of the destination's family and
// narrows with the numeric rules, so the overflow policy applies unchanged.
func parseNumeric(src stringSource, to *datatype.NumericType, o *Options) (array.Array, error) {
	var (
		wide  array.Array
		err   error
		ovErr = func(s string) error {
			return errors.NewCastOverflow(opCast, errors.NoIndex, fmt.Sprintf("%q is out of range for %s", s, to))
		}
	)

	switch {
	case datatype.IsFloating(to.ID()):
		wide, err = parseEach(src, array.NewNumericBuilder[float64](o.Allocator), func(s string) (any, error) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil && stderrors.Is(err, strconv.ErrRange) {
				if o.Overflow == OverflowError {
					return nil, ovErr(s)
				}
				return f, nil
			}
			return f, err
		})
	case datatype.IsUnsigned(to.ID()):
		wide, err = parseEach(src, array.NewNumericBuilder[uint64](o.Allocator), func(s string) (any, error) {
			u, err := strconv.ParseUint(s, 10, 64)
			switch {
			case err == nil:
				return u, nil
			case stderrors.Is(err, strconv.ErrRange):
				if o.Overflow == OverflowError {
					return nil, ovErr(s)
				}
				return uint64(math.MaxUint64), nil
			}
			// A negative integer is a range problem, not a syntax one.
			n, perr := strconv.ParseInt(s, 10, 64)
			if perr != nil && !stderrors.Is(perr, strconv.ErrRange) {
				return nil, err
			}
			switch o.Overflow {
			case OverflowError:
				return nil, ovErr(s)
			case OverflowSaturate:
				return uint64(0), nil
			}
			return uint64(n), nil
		})
	default:
		wide, err = parseEach(src, array.NewNumericBuilder[int64](o.Allocator), func(s string) (any, error) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil && stderrors.Is(err, strconv.ErrRange) {
				if o.Overflow == OverflowError {
					return nil, ovErr(s)
				}
				return n, nil
			}
			return n, err
		})
	}
	if err != nil {
		return nil, err
	}
	defer wide.Release()
	return cast(wide, to, o)
}

func parseTemporal(src stringSource, to datatype.Type, o *Options) (array.Array, error) {
	switch t := to.(type) {
	case *datatype.Date32Type:
		return parseEach(src, array.NewDate32Builder(o.Allocator), func(s string) (any, error) {
			return time.Parse(array.Date32Layout, s)
		})
	case *datatype.TimestampType:
		return parseEach(src, array.NewTimestampBuilder(o.Allocator, t), func(s string) (any, error) {
			v, err := parseTime(s)
			if err != nil {
				return nil, err
			}
			return timeToTicks(v, t.Unit, o)
		})
	}
	return nil, incompatible(src.DataType(), to, "no conversion rule")
}

// parseTime accepts RFC 3339 timestamps and bare dates.
func parseTime(s string) (time.Time, error) {
	v, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return v, nil
	}
	if d, derr := time.Parse(array.Date32Layout, s); derr == nil {
		return d, nil
	}
	return time.Time{}, err
}

// timeToTicks converts v to unit, refusing sub-unit precision unless
// truncation is allowed and instants a nanosecond count cannot hold.
func timeToTicks(v time.Time, unit datatype.TimeUnit, o *Options) (int64, error) {
	if unit == datatype.Nanosecond && (v.Year() < 1678 || v.Year() > 2261) {
		return 0, errors.NewCastOverflow(opCast, errors.NoIndex,
			fmt.Sprintf("%s does not fit timestamp[ns]", v.Format(time.RFC3339)))
	}
	ticks := array.TimeToTimestamp(v, unit)
	if !o.AllowTimeTruncate && !array.TimestampToTime(ticks, unit).Equal(v) {
		return 0, errors.NewCastOverflow(opCast, errors.NoIndex,
			fmt.Sprintf("%s has precision below %s", v.Format(time.RFC3339Nano), unit))
	}
	return ticks, nil
}

// rewidth changes the offset width of a string array. Offsets are rebased to
// zero; the character payload is shared.
func rewidth[S, D array.Offset](src *array.StringArray[S], to datatype.Type, o *Options) (array.Array, error) {
	var zero D
	limit := int64(math.MaxInt64)
	if unsafe.Sizeof(zero) == 4 {
		limit = math.MaxInt32
	}

	offs := src.ValueOffsets()
	base := int64(offs[0])
	buf, out := newValues[D](o.Allocator, len(offs))
	for i, off := range offs {
		rel := int64(off) - base
		if rel > limit {
			buf.Release()
			return nil, errors.NewCastOverflow(opCast, i-1,
				fmt.Sprintf("payload of %d bytes exceeds %s offsets", int64(offs[len(offs)-1])-base, to))
		}
		out[i] = D(rel)
	}

	var payload *memory.Buffer
	if p := src.Data().Buffers()[2]; p != nil {
		payload = memory.SliceBuffer(p, int(base), int(int64(offs[len(offs)-1])-base))
	}
	return assemble(to, src.Len(), src.NullN(),
		[]*memory.Buffer{validityOf(src, o.Allocator), buf, payload}, nil), nil
}
