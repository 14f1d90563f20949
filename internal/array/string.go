package array

import (
	"github.com/paveg/colframe/internal/datatype"
)

// StringArray is variable-length UTF-8 text addressed through an offsets
// buffer of width O.
type StringArray[O Offset] struct {
	array
	offsets []O
	values  []byte
}

type (
	String      = StringArray[int32]
	LargeString = StringArray[int64]
)

func (a *StringArray[O]) setData(d *Data) {
	a.array.setData(d)
	a.offsets, a.values = nil, nil
	if offs := d.buffers[1]; offs != nil {
		a.offsets = reinterpret[O](offs.Bytes())
		a.offsets = a.offsets[d.offset : d.offset+d.length+1]
	}
	if vals := d.buffers[2]; vals != nil {
		a.values = vals.Bytes()
	}
}

// Value returns entry i as a string. A null entry yields "".
func (a *StringArray[O]) Value(i int) string {
	return string(a.ValueBytes(i))
}

// ValueBytes returns entry i without copying.
func (a *StringArray[O]) ValueBytes(i int) []byte {
	if i < 0 || i >= a.data.length {
		panic("array: index out of range")
	}
	return a.values[a.offsets[i]:a.offsets[i+1]]
}

// Get returns entry i, or an IndexOutOfRange error.
func (a *StringArray[O]) Get(i int) (string, error) {
	if err := checkIndex("Get", i, a.Len()); err != nil {
		return "", err
	}
	return a.Value(i), nil
}

// ValueOffsets returns the Len()+1 offsets of the view. They are not
// rebased, so a sliced array may start at a non-zero offset.
func (a *StringArray[O]) ValueOffsets() []O { return a.offsets }

// ValueBuffer returns the whole character payload, including bytes outside
// the view.
func (a *StringArray[O]) ValueBuffer() []byte { return a.values }

func (a *StringArray[O]) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return a.Value(i)
}

func (a *StringArray[O]) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	return a.Value(i)
}

func (a *StringArray[O]) String() string { return formatArray(a, true) }

func isLargeOffset[O Offset]() bool { return sizeOf[O]() == 8 }

func stringType[O Offset]() datatype.Type {
	if isLargeOffset[O]() {
		return datatype.LargeUtf8
	}
	return datatype.Utf8
}
