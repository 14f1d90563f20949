package array

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// DictionaryBuilder dictionary-encodes appended values. Distinct values are
// stored once, in first-seen order.
type DictionaryBuilder struct {
	builder
	dt      *datatype.DictionaryType
	memo    *memoTable
	values  Builder
	indices *typedBuffer[int64]
}

// NewDictionaryBuilder returns a builder for dt. Dictionary values must be of
// a flat type.
func NewDictionaryBuilder(mem memory.Allocator, dt *datatype.DictionaryType) (*DictionaryBuilder, error) {
	switch datatype.KindOf(dt.Value) {
	case datatype.KindBool, datatype.KindPrimitive, datatype.KindString, datatype.KindTemporal:
	default:
		return nil, errors.NewUnsupportedTypeError("NewDictionaryBuilder", dt.String())
	}

	b := newBuilder(mem, dt)
	values, err := NewBuilder(b.mem, dt.Value)
	if err != nil {
		return nil, err
	}
	return &DictionaryBuilder{
		builder: b,
		dt:      dt,
		memo:    newMemoTable(),
		values:  values,
		indices: newTypedBuffer[int64](b.mem),
	}, nil
}

// DictionaryLen returns the number of distinct values seen so far.
func (b *DictionaryBuilder) DictionaryLen() int { return b.memo.Size() }

func (b *DictionaryBuilder) AppendNull() error {
	return b.AppendNulls(1)
}

func (b *DictionaryBuilder) AppendNulls(n int) error {
	if err := b.checkOpen("AppendNulls"); err != nil {
		return err
	}
	if n < 0 {
		return errors.NewInvalidInputError("AppendNulls", fmt.Sprintf("negative count %d", n))
	}
	b.indices.appendZeros(n)
	b.appendValidN(n, false)
	return nil
}

// AppendValue appends v, adding it to the dictionary on first sight. A new
// value that would not fit the index type fails with DictionaryOverflow.
func (b *DictionaryBuilder) AppendValue(v any) error {
	if v == nil {
		return b.AppendNull()
	}
	if err := b.checkOpen("AppendValue"); err != nil {
		return err
	}

	key, native, err := b.encode(v)
	if err != nil {
		return err
	}
	idx, ok := b.memo.Get(key)
	if !ok {
		if int64(b.memo.Size()) > b.dt.MaxIndex() {
			return errors.NewDictionaryOverflow("AppendValue", b.memo.Size()+1, b.dt.Index.String())
		}
		if err := b.values.AppendValue(native); err != nil {
			return err
		}
		idx = b.memo.Insert(key)
	}
	b.indices.append(int64(idx))
	b.appendValid(true)
	return nil
}

// encode normalises v to the dictionary value type and returns its memo key.
func (b *DictionaryBuilder) encode(v any) (string, any, error) {
	bad := func() (string, any, error) {
		return "", nil, errors.NewInvalidInputError("AppendValue",
			fmt.Sprintf("cannot append %T to %s builder", v, b.dt))
	}

	switch vt := b.dt.Value.(type) {
	case *datatype.StringType:
		switch s := v.(type) {
		case string:
			return s, s, nil
		case []byte:
			return string(s), string(s), nil
		}
		return bad()
	case *datatype.BooleanType:
		if x, ok := v.(bool); ok {
			return strconv.FormatBool(x), x, nil
		}
		return bad()
	case *datatype.TimestampType:
		if t, ok := v.(time.Time); ok {
			v = TimeToTimestamp(t, vt.Unit)
		}
	case *datatype.Date32Type:
		if t, ok := v.(time.Time); ok {
			v = TimeToDate32(t)
		}
	}

	id := b.dt.Value.ID()
	switch {
	case id == datatype.FLOAT32:
		// Key on the stored width so 0.1 and float32(0.1) share an entry.
		x, ok := toNumeric[float32](v)
		if !ok {
			return bad()
		}
		return floatKey(float64(x)), x, nil
	case id == datatype.FLOAT64:
		x, ok := toNumeric[float64](v)
		if !ok {
			return bad()
		}
		return floatKey(x), x, nil
	case datatype.IsUnsigned(id):
		x, ok := toNumeric[uint64](v)
		if !ok {
			return bad()
		}
		return strconv.FormatUint(x, 10), x, nil
	default:
		x, ok := toNumeric[int64](v)
		if !ok {
			return bad()
		}
		return strconv.FormatInt(x, 10), x, nil
	}
}

// floatKey folds every NaN payload onto one key.
func floatKey(x float64) string {
	if math.IsNaN(x) {
		return "nan"
	}
	return strconv.FormatUint(math.Float64bits(x), 16)
}

func (b *DictionaryBuilder) Reserve(n int) error {
	if err := b.checkOpen("Reserve"); err != nil {
		return err
	}
	b.validity.reserve(n)
	b.indices.reserve(n)
	return nil
}

func (b *DictionaryBuilder) Finish() (Array, error) {
	if err := b.checkOpen("Finish"); err != nil {
		return nil, err
	}
	dict, err := b.values.Finish()
	if err != nil {
		b.Release()
		return nil, err
	}

	length, nulls := b.length, b.nulls
	indices := packIndices(b.mem, b.dt.Index.ID(), b.indices.data[:b.indices.len()])
	b.indices.release()
	validity := b.finishValidity()
	return newFinishedArray(b.dt, length, nulls, []*memory.Buffer{validity, indices}, nil, dict), nil
}

func (b *DictionaryBuilder) Release() {
	if b.finished {
		return
	}
	b.finished = true
	b.values.Release()
	b.indices.release()
	b.releaseValidity()
}

// packIndices narrows idx into a buffer of the given integer type.
func packIndices(mem memory.Allocator, id datatype.ID, idx []int64) *memory.Buffer {
	switch id {
	case datatype.INT8:
		return packAs[int8](mem, idx)
	case datatype.INT16:
		return packAs[int16](mem, idx)
	case datatype.INT32:
		return packAs[int32](mem, idx)
	case datatype.UINT8:
		return packAs[uint8](mem, idx)
	case datatype.UINT16:
		return packAs[uint16](mem, idx)
	case datatype.UINT32:
		return packAs[uint32](mem, idx)
	case datatype.UINT64:
		return packAs[uint64](mem, idx)
	}
	return packAs[int64](mem, idx)
}

func packAs[T NumericValue](mem memory.Allocator, idx []int64) *memory.Buffer {
	tb := newTypedBuffer[T](mem)
	tb.reserve(len(idx))
	for _, v := range idx {
		tb.data[tb.n] = T(v)
		tb.n++
	}
	return tb.finish()
}
