package array

import (
	"strings"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// Struct is a fixed set of named child arrays of equal logical length. The
// parent validity is independent of the children's: a null struct entry may
// sit above valid child values.
type Struct struct {
	array
	fields []Array
}

func (a *Struct) setData(d *Data) {
	a.array.setData(d)
	a.fields = make([]Array, len(d.children))
	for i, child := range d.children {
		if d.offset == 0 && child.length == d.length {
			a.fields[i] = MakeFromData(child)
			continue
		}
		sub := NewSliceData(child, d.offset, d.offset+d.length)
		a.fields[i] = MakeFromData(sub)
		sub.Release()
	}
}

// NumField returns the number of child arrays.
func (a *Struct) NumField() int { return len(a.fields) }

// Field returns the i-th child, aligned with the parent view. It is owned by
// a.
func (a *Struct) Field(i int) Array { return a.fields[i] }

// FieldByName returns the child named name; duplicates resolve to the first.
func (a *Struct) FieldByName(name string) (Array, error) {
	i, ok := a.data.dtype.(*datatype.StructType).FieldIndex(name)
	if !ok {
		return nil, errors.NewColumnNotFoundError("FieldByName", name)
	}
	return a.fields[i], nil
}

func (a *Struct) Retain() {
	a.array.Retain()
	for _, f := range a.fields {
		f.Retain()
	}
}

func (a *Struct) Release() {
	a.array.Release()
	for _, f := range a.fields {
		f.Release()
	}
}

func (a *Struct) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	st := a.data.dtype.(*datatype.StructType)
	var o strings.Builder
	o.WriteString("{")
	for j, f := range a.fields {
		if j > 0 {
			o.WriteString(" ")
		}
		o.WriteString(st.Field(j).Name)
		o.WriteString(":")
		o.WriteString(f.ValueStr(i))
	}
	o.WriteString("}")
	return o.String()
}

func (a *Struct) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	st := a.data.dtype.(*datatype.StructType)
	out := make(map[string]any, len(a.fields))
	for j := len(a.fields) - 1; j >= 0; j-- {
		out[st.Field(j).Name] = a.fields[j].GetOneForMarshal(i)
	}
	return out
}

func (a *Struct) String() string { return formatArray(a, false) }
