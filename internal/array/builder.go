package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// Builder accumulates values and produces an immutable Array on Finish.
//
// A scalar append that fails leaves the builder as it was. Nested appends
// through AppendValue may have reached some children before failing. Once
// Finish has been called every method returns a BuilderFinished error.
type Builder interface {
	Type() datatype.Type
	Len() int
	Cap() int
	NullN() int

	AppendNull() error
	AppendNulls(n int) error
	// AppendValue appends a plain Go value as produced by GetOneForMarshal.
	// A nil value appends a null.
	AppendValue(v any) error
	// Reserve makes room for n more entries.
	Reserve(n int) error

	Finish() (Array, error)
	// Release frees the builder's buffers. It is a no-op after Finish.
	Release()
}

// NewBuilder returns a builder for arrays of type t.
func NewBuilder(mem memory.Allocator, t datatype.Type) (Builder, error) {
	switch datatype.KindOf(t) {
	case datatype.KindNull:
		return NewNullBuilder(mem), nil
	case datatype.KindBool:
		return NewBooleanBuilder(mem), nil
	case datatype.KindPrimitive:
		return newNumericBuilder(mem, t.ID()), nil
	case datatype.KindString:
		if t.ID() == datatype.LARGE_STRING {
			return NewLargeStringBuilder(mem), nil
		}
		return NewStringBuilder(mem), nil
	case datatype.KindList:
		lt := t.(*datatype.ListType)
		if lt.Large {
			return NewLargeListBuilder(mem, lt.Elem)
		}
		return NewListBuilder(mem, lt.Elem)
	case datatype.KindStruct:
		return NewStructBuilder(mem, t.(*datatype.StructType))
	case datatype.KindDictionary:
		return NewDictionaryBuilder(mem, t.(*datatype.DictionaryType))
	case datatype.KindTemporal:
		if t.ID() == datatype.DATE32 {
			return NewDate32Builder(mem), nil
		}
		return NewTimestampBuilder(mem, t.(*datatype.TimestampType)), nil
	}
	return nil, errors.NewUnsupportedTypeError("NewBuilder", t.String())
}

// NewBuilderWithConfig returns a builder for t with cfg's initial capacity
// reserved.
func NewBuilderWithConfig(mem memory.Allocator, t datatype.Type, cfg config.Config) (Builder, error) {
	b, err := NewBuilder(mem, t)
	if err != nil {
		return nil, err
	}
	if cfg.BuilderInitialCapacity > 0 {
		if err := b.Reserve(cfg.BuilderInitialCapacity); err != nil {
			b.Release()
			return nil, err
		}
	}
	return b, nil
}

func newNumericBuilder(mem memory.Allocator, id datatype.ID) Builder {
	switch id {
	case datatype.INT8:
		return NewNumericBuilder[int8](mem)
	case datatype.INT16:
		return NewNumericBuilder[int16](mem)
	case datatype.INT32:
		return NewNumericBuilder[int32](mem)
	case datatype.INT64:
		return NewNumericBuilder[int64](mem)
	case datatype.UINT8:
		return NewNumericBuilder[uint8](mem)
	case datatype.UINT16:
		return NewNumericBuilder[uint16](mem)
	case datatype.UINT32:
		return NewNumericBuilder[uint32](mem)
	case datatype.UINT64:
		return NewNumericBuilder[uint64](mem)
	case datatype.FLOAT32:
		return NewNumericBuilder[float32](mem)
	case datatype.FLOAT64:
		return NewNumericBuilder[float64](mem)
	}
	panic(fmt.Sprintf("array: %s is not numeric", id))
}

// builder carries the validity bitmap and lifecycle shared by all builders.
type builder struct {
	mem      memory.Allocator
	dtype    datatype.Type
	length   int
	nulls    int
	validity *bitmapBuffer
	finished bool
}

func newBuilder(mem memory.Allocator, dtype datatype.Type) builder {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return builder{mem: mem, dtype: dtype, validity: newBitmapBuffer(mem)}
}

func (b *builder) Type() datatype.Type { return b.dtype }
func (b *builder) Len() int            { return b.length }
func (b *builder) Cap() int            { return b.validity.capacity() }
func (b *builder) NullN() int          { return b.nulls }

func (b *builder) checkOpen(op string) error {
	if b.finished {
		return errors.NewBuilderFinished(op)
	}
	return nil
}

func (b *builder) appendValid(valid bool) {
	b.validity.append(valid)
	if !valid {
		b.nulls++
	}
	b.length++
}

func (b *builder) appendValidN(n int, valid bool) {
	b.validity.appendN(n, valid)
	if !valid {
		b.nulls += n
	}
	b.length += n
}

// finishValidity hands over the bitmap, or nil when nothing is null.
func (b *builder) finishValidity() *memory.Buffer {
	b.finished = true
	if b.nulls == 0 {
		b.validity.release()
		return nil
	}
	return b.validity.finish()
}

func (b *builder) releaseValidity() {
	b.validity.release()
}

// newFinishedArray assembles an array, taking over the caller's references
// to buffers, children and dict.
func newFinishedArray(dtype datatype.Type, length, nulls int, buffers []*memory.Buffer, children []Array, dict Array) Array {
	childData := make([]*Data, len(children))
	for i, c := range children {
		childData[i] = c.Data()
	}

	var d *Data
	if dict != nil {
		d = NewDataWithDictionary(dtype, length, buffers, nulls, 0, dict.Data())
		dict.Release()
	} else {
		d = NewData(dtype, length, buffers, childData, nulls, 0)
	}
	for _, b := range buffers {
		if b != nil {
			b.Release()
		}
	}
	for _, c := range children {
		c.Release()
	}

	defer d.Release()
	return MakeFromData(d)
}

func growCapacity(need int) int {
	if need < minBuilderCapacity {
		return minBuilderCapacity
	}
	return bitutil.NextPowerOf2(need)
}

// typedBuffer is a growable buffer of fixed-width slots.
type typedBuffer[T any] struct {
	mem  memory.Allocator
	buf  *memory.Buffer
	data []T
	n    int
}

func newTypedBuffer[T any](mem memory.Allocator) *typedBuffer[T] {
	return &typedBuffer[T]{mem: mem}
}

func (tb *typedBuffer[T]) len() int      { return tb.n }
func (tb *typedBuffer[T]) capacity() int { return len(tb.data) }

func (tb *typedBuffer[T]) reserve(extra int) {
	need := tb.n + extra
	if need <= len(tb.data) {
		return
	}
	if tb.buf == nil {
		tb.buf = memory.NewResizableBuffer(tb.mem)
	}
	tb.buf.Resize(growCapacity(need) * sizeOf[T]())
	tb.data = reinterpret[T](tb.buf.Bytes())
}

func (tb *typedBuffer[T]) append(v T) {
	tb.reserve(1)
	tb.data[tb.n] = v
	tb.n++
}

func (tb *typedBuffer[T]) appendSlice(vs []T) {
	tb.reserve(len(vs))
	copy(tb.data[tb.n:], vs)
	tb.n += len(vs)
}

func (tb *typedBuffer[T]) appendZeros(n int) {
	tb.reserve(n)
	var zero T
	for i := 0; i < n; i++ {
		tb.data[tb.n+i] = zero
	}
	tb.n += n
}

// finish trims the buffer to its content and hands it over.
func (tb *typedBuffer[T]) finish() *memory.Buffer {
	if tb.buf == nil {
		tb.buf = memory.NewResizableBuffer(tb.mem)
	}
	tb.buf.Resize(tb.n * sizeOf[T]())
	out := tb.buf
	tb.buf, tb.data, tb.n = nil, nil, 0
	return out
}

func (tb *typedBuffer[T]) release() {
	if tb.buf != nil {
		tb.buf.Release()
	}
	tb.buf, tb.data, tb.n = nil, nil, 0
}

// bitmapBuffer is a growable bit-packed buffer.
type bitmapBuffer struct {
	mem  memory.Allocator
	buf  *memory.Buffer
	bits []byte
	n    int
}

func newBitmapBuffer(mem memory.Allocator) *bitmapBuffer {
	return &bitmapBuffer{mem: mem}
}

func (bb *bitmapBuffer) capacity() int { return len(bb.bits) * 8 }

func (bb *bitmapBuffer) reserve(extra int) {
	need := bb.n + extra
	if need <= bb.capacity() {
		return
	}
	if bb.buf == nil {
		bb.buf = memory.NewResizableBuffer(bb.mem)
	}
	bb.buf.Resize(int(bitutil.BytesForBits(int64(growCapacity(need)))))
	bb.bits = bb.buf.Bytes()
}

func (bb *bitmapBuffer) append(v bool) {
	bb.reserve(1)
	bitutil.SetBitTo(bb.bits, bb.n, v)
	bb.n++
}

func (bb *bitmapBuffer) appendN(n int, v bool) {
	bb.reserve(n)
	for i := 0; i < n; i++ {
		bitutil.SetBitTo(bb.bits, bb.n+i, v)
	}
	bb.n += n
}

func (bb *bitmapBuffer) finish() *memory.Buffer {
	if bb.buf == nil {
		bb.buf = memory.NewResizableBuffer(bb.mem)
	}
	bb.buf.Resize(int(bitutil.BytesForBits(int64(bb.n))))
	out := bb.buf
	bb.buf, bb.bits, bb.n = nil, nil, 0
	return out
}

func (bb *bitmapBuffer) release() {
	if bb.buf != nil {
		bb.buf.Release()
	}
	bb.buf, bb.bits, bb.n = nil, nil, 0
}
