package array

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// NewSlice returns the zero-copy view arr[i:j]. The result is the same
// variant as arr and must be released by the caller.
func NewSlice(arr Array, i, j int) (Array, error) {
	if i < 0 || j < i || j > arr.Len() {
		return nil, errors.NewSliceOutOfRange("Slice", i, j, arr.Len())
	}
	d := NewSliceData(arr.Data(), i, j)
	defer d.Release()
	return MakeFromData(d), nil
}

// SliceN returns the zero-copy view of length entries starting at offset.
func SliceN(arr Array, offset, length int) (Array, error) {
	if offset < 0 || length < 0 {
		return nil, errors.NewSliceOutOfRange("Slice", offset, offset+length, arr.Len())
	}
	return NewSlice(arr, offset, offset+length)
}

// Compact returns arr itself, retained, when its buffers start at offset 0
// and hold no data outside the view; otherwise it returns a compact copy.
func Compact(mem memory.Allocator, arr Array) (Array, error) {
	if isCompact(arr.Data()) {
		arr.Retain()
		return arr, nil
	}
	return Concatenate(mem, arr)
}

func isCompact(d *Data) bool {
	if d.offset != 0 {
		return false
	}
	switch datatype.KindOf(d.dtype) {
	case datatype.KindString:
		if d.length > 0 && firstOffset(d) != 0 {
			return false
		}
	case datatype.KindList:
		if d.length > 0 && firstOffset(d) != 0 {
			return false
		}
		return isCompact(d.children[0])
	case datatype.KindStruct:
		for _, c := range d.children {
			if c.length != d.length || !isCompact(c) {
				return false
			}
		}
	case datatype.KindDictionary:
		return isCompact(d.dictionary)
	}
	return true
}

func firstOffset(d *Data) int64 {
	offs := d.buffers[1].Bytes()
	if d.dtype.ID() == datatype.LARGE_STRING || d.dtype.ID() == datatype.LARGE_LIST {
		return reinterpret[int64](offs)[d.offset]
	}
	return int64(reinterpret[int32](offs)[d.offset])
}
