package cast

import (
	"fmt"
	"math"

	"github.com/JohnCGriffin/overflow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

const secondsPerDay = 24 * 60 * 60

// mapValues builds an array of type to with fn applied to every valid slot
// of vals. Null slots stay zero.
func mapValues[S, D any](src array.Array, vals []S, to datatype.Type, o *Options, fn func(i int, v S) (D, error)) (array.Array, error) {
	buf, out := newValues[D](o.Allocator, len(vals))
	for i, v := range vals {
		if src.IsNull(i) {
			continue
		}
		d, err := fn(i, v)
		if err != nil {
			buf.Release()
			return nil, err
		}
		out[i] = d
	}
	return assemble(to, src.Len(), src.NullN(), []*memory.Buffer{validityOf(src, o.Allocator), buf}, nil), nil
}

// scaleUp multiplies v by factor under the overflow policy.
func scaleUp(i int, v, factor int64, to datatype.Type, p OverflowPolicy) (int64, error) {
	r, ok := overflow.Mul64(v, factor)
	if ok {
		return r, nil
	}
	switch p {
	case OverflowTruncate:
		return v * factor, nil
	case OverflowSaturate:
		if (v < 0) != (factor < 0) {
			return math.MinInt64, nil
		}
		return math.MaxInt64, nil
	}
	return 0, errors.NewCastOverflow(opCast, i, fmt.Sprintf("%d does not fit %s", v, to))
}

// scaleDown floor-divides v by divisor. A remainder fails unless truncation
// is allowed.
func scaleDown(i int, v, divisor int64, to datatype.Type, o *Options) (int64, error) {
	q, r := v/divisor, v%divisor
	if r != 0 {
		if !o.AllowTimeTruncate {
			return 0, errors.NewCastOverflow(opCast, i,
				fmt.Sprintf("%d would lose precision converting to %s", v, to))
		}
		if r < 0 {
			q--
		}
	}
	return q, nil
}

func castTemporal(arr array.Array, to datatype.Type, o *Options) (array.Array, error) {
	switch src := arr.(type) {
	case *array.Timestamp:
		from := src.DataType().(*datatype.TimestampType)
		switch t := to.(type) {
		case *datatype.TimestampType:
			return rescale(src, from.Unit, t, o)
		case *datatype.Date32Type:
			perDay := secondsPerDay * from.Unit.Multiplier()
			return mapValues(src, src.Values(), to, o, func(i int, v int64) (int32, error) {
				days, err := scaleDown(i, v, perDay, to, o)
				if err != nil {
					return 0, err
				}
				return narrowInt32(i, days, to, o.Overflow)
			})
		}
	case *array.Date32:
		if t, ok := to.(*datatype.TimestampType); ok {
			perDay := secondsPerDay * t.Unit.Multiplier()
			return mapValues(src, src.Values(), to, o, func(i int, v int32) (int64, error) {
				return scaleUp(i, int64(v), perDay, to, o.Overflow)
			})
		}
	}
	return nil, incompatible(arr.DataType(), to, "no conversion rule")
}

// rescale converts between timestamp units. A timezone-only change keeps
// the buffers.
func rescale(src *array.Timestamp, from datatype.TimeUnit, to *datatype.TimestampType, o *Options) (array.Array, error) {
	fm, tm := from.Multiplier(), to.Unit.Multiplier()
	switch {
	case fm == tm:
		return retype(src, to), nil
	case tm > fm:
		return mapValues(src, src.Values(), to, o, func(i int, v int64) (int64, error) {
			return scaleUp(i, v, tm/fm, to, o.Overflow)
		})
	}
	return mapValues(src, src.Values(), to, o, func(i int, v int64) (int64, error) {
		return scaleDown(i, v, fm/tm, to, o)
	})
}

func narrowInt32(i int, v int64, to datatype.Type, p OverflowPolicy) (int32, error) {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return int32(v), nil
	}
	switch p {
	case OverflowTruncate:
		return int32(v), nil
	case OverflowSaturate:
		if v < 0 {
			return math.MinInt32, nil
		}
		return math.MaxInt32, nil
	}
	return 0, errors.NewCastOverflow(opCast, i, fmt.Sprintf("%d does not fit %s", v, to))
}

// temporalToNumeric exposes the stored tick or day counts. Timestamp to
// Int64 and Date32 to Int32 share the buffers.
func temporalToNumeric(arr array.Array, to *datatype.NumericType, o *Options) (array.Array, error) {
	storage := datatype.Int64
	if arr.DataType().ID() == datatype.DATE32 {
		storage = datatype.Int32
	}
	raw := retype(arr, storage)
	if to.ID() == storage.ID() {
		return raw, nil
	}
	defer raw.Release()
	return castNumeric(raw, to, o)
}

// numericToTemporal reads numbers as tick or day counts.
func numericToTemporal(arr array.Array, to datatype.Type, o *Options) (array.Array, error) {
	storage := datatype.Int64
	if to.ID() == datatype.DATE32 {
		storage = datatype.Int32
	}
	if arr.DataType().ID() == storage.ID() {
		return retype(arr, to), nil
	}
	raw, err := castNumeric(arr, storage, o)
	if err != nil {
		return nil, err
	}
	defer raw.Release()
	return retype(raw, to), nil
}
