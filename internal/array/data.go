package array

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
)

// UnknownNullCount defers null counting until NullN is first called.
const UnknownNullCount = -1

// Data holds the memory and metadata of an array.
type Data struct {
	refCount   atomic.Int64
	nulls      atomic.Int64
	dtype      datatype.Type
	length     int
	offset     int
	buffers    []*memory.Buffer
	children   []*Data
	dictionary *Data
}

// NewData creates a Data with a reference count of 1. It retains every
// non-nil buffer and child, so callers keep ownership of what they pass in.
func NewData(dtype datatype.Type, length int, buffers []*memory.Buffer, children []*Data, nulls, offset int) *Data {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}
	for _, c := range children {
		if c != nil {
			c.Retain()
		}
	}

	d := &Data{
		dtype:    dtype,
		length:   length,
		offset:   offset,
		buffers:  buffers,
		children: children,
	}
	d.refCount.Store(1)
	if dtype.ID() == datatype.NULL {
		nulls = length
	}
	d.nulls.Store(int64(nulls))
	return d
}

// NewDataWithDictionary creates dictionary-encoded Data; dict is retained.
func NewDataWithDictionary(dtype datatype.Type, length int, buffers []*memory.Buffer, nulls, offset int, dict *Data) *Data {
	d := NewData(dtype, length, buffers, nil, nulls, offset)
	if dict != nil {
		dict.Retain()
		d.dictionary = dict
	}
	return d
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (d *Data) Retain() {
	d.refCount.Add(1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the buffers and children are released.
// Release may be called simultaneously from multiple goroutines.
func (d *Data) Release() {
	n := d.refCount.Add(-1)
	if n < 0 {
		panic("array: too many releases")
	}
	if n > 0 {
		return
	}

	for _, b := range d.buffers {
		if b != nil {
			b.Release()
		}
	}
	for _, c := range d.children {
		if c != nil {
			c.Release()
		}
	}
	if d.dictionary != nil {
		d.dictionary.Release()
	}
	d.buffers, d.children, d.dictionary = nil, nil, nil
}

func (d *Data) DataType() datatype.Type   { return d.dtype }
func (d *Data) Len() int                  { return d.length }
func (d *Data) Offset() int               { return d.offset }
func (d *Data) Buffers() []*memory.Buffer { return d.buffers }
func (d *Data) Children() []*Data         { return d.children }
func (d *Data) Dictionary() *Data         { return d.dictionary }

// NullN returns the number of null entries, counting the validity bitmap on
// first use.
func (d *Data) NullN() int {
	n := d.nulls.Load()
	if n != UnknownNullCount {
		return int(n)
	}

	count := 0
	if len(d.buffers) > 0 && d.buffers[0] != nil {
		count = d.length - bitutil.CountSetBits(d.buffers[0].Bytes(), d.offset, d.length)
	}
	d.nulls.Store(int64(count))
	return count
}

// NewSliceData returns a Data over [i, j) of d sharing its buffers. Bounds
// are not checked; use NewSlice for a checked slice of an Array.
func NewSliceData(d *Data, i, j int) *Data {
	nulls := UnknownNullCount
	if d.NullN() == 0 {
		nulls = 0
	} else if d.dtype.ID() == datatype.NULL {
		nulls = j - i
	}

	out := NewData(d.dtype, j-i, d.buffers, d.children, nulls, d.offset+i)
	if d.dictionary != nil {
		d.dictionary.Retain()
		out.dictionary = d.dictionary
	}
	return out
}
