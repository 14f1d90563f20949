package array

import "strings"

// ListArray is a variable-length list of values held by a child array.
type ListArray[O Offset] struct {
	array
	offsets []O
	values  Array
}

type (
	List      = ListArray[int32]
	LargeList = ListArray[int64]
)

func (a *ListArray[O]) setData(d *Data) {
	a.array.setData(d)
	a.offsets = nil
	if offs := d.buffers[1]; offs != nil {
		a.offsets = reinterpret[O](offs.Bytes())
		a.offsets = a.offsets[d.offset : d.offset+d.length+1]
	}
	a.values = MakeFromData(d.children[0])
}

// ListValues returns the whole child array, including values outside the
// view. It is owned by a.
func (a *ListArray[O]) ListValues() Array { return a.values }

// ValueOffsets returns the child range [start, end) of entry i.
func (a *ListArray[O]) ValueOffsets(i int) (start, end int) {
	return int(a.offsets[i]), int(a.offsets[i+1])
}

// Offsets returns the Len()+1 offsets of the view.
func (a *ListArray[O]) Offsets() []O { return a.offsets }

// ValueLen returns the number of child values in entry i.
func (a *ListArray[O]) ValueLen(i int) int {
	start, end := a.ValueOffsets(i)
	return end - start
}

// Get returns entry i as a slice of the child array, to be released by the
// caller.
func (a *ListArray[O]) Get(i int) (Array, error) {
	if err := checkIndex("Get", i, a.Len()); err != nil {
		return nil, err
	}
	start, end := a.ValueOffsets(i)
	d := NewSliceData(a.values.Data(), start, end)
	defer d.Release()
	return MakeFromData(d), nil
}

func (a *ListArray[O]) Retain() {
	a.array.Retain()
	a.values.Retain()
}

func (a *ListArray[O]) Release() {
	a.array.Release()
	a.values.Release()
}

func (a *ListArray[O]) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	start, end := a.ValueOffsets(i)
	var o strings.Builder
	o.WriteString("[")
	for j := start; j < end; j++ {
		if j > start {
			o.WriteString(" ")
		}
		o.WriteString(a.values.ValueStr(j))
	}
	o.WriteString("]")
	return o.String()
}

func (a *ListArray[O]) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	start, end := a.ValueOffsets(i)
	out := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, a.values.GetOneForMarshal(j))
	}
	return out
}

func (a *ListArray[O]) String() string { return formatArray(a, false) }
