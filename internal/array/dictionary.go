package array

import (
	"github.com/paveg/colframe/internal/datatype"
)

// Dictionary stores integer indices into a dictionary array. Entry i
// resolves to Dictionary().GetOneForMarshal(IndexAt(i)).
type Dictionary struct {
	array
	indices Array
	dict    Array
	indexAt func(int) int
}

func (a *Dictionary) setData(d *Data) {
	a.array.setData(d)
	dt := d.dtype.(*datatype.DictionaryType)

	idx := NewData(dt.Index, d.length, d.buffers, nil, d.NullN(), d.offset)
	a.indices = MakeFromData(idx)
	idx.Release()

	a.dict = MakeFromData(d.dictionary)
	a.indexAt = indexGetter(a.indices)
}

// Indices returns the index array. It is owned by a.
func (a *Dictionary) Indices() Array { return a.indices }

// Dictionary returns the value array. It is owned by a.
func (a *Dictionary) Dictionary() Array { return a.dict }

// IndexAt returns the dictionary position of entry i without checks.
func (a *Dictionary) IndexAt(i int) int { return a.indexAt(i) }

// ValueAt returns the resolved value of entry i, nil when null.
func (a *Dictionary) ValueAt(i int) (any, error) {
	if err := checkIndex("ValueAt", i, a.Len()); err != nil {
		return nil, err
	}
	return a.GetOneForMarshal(i), nil
}

func (a *Dictionary) Retain() {
	a.array.Retain()
	a.indices.Retain()
	a.dict.Retain()
}

func (a *Dictionary) Release() {
	a.array.Release()
	a.indices.Release()
	a.dict.Release()
}

func (a *Dictionary) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return a.dict.ValueStr(a.indexAt(i))
}

func (a *Dictionary) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	return a.dict.GetOneForMarshal(a.indexAt(i))
}

func (a *Dictionary) String() string {
	return "{ dictionary: " + a.dict.String() + "\n  indices: " + a.indices.String() + " }"
}

// indexGetter returns an accessor reading integer arrays as int.
func indexGetter(arr Array) func(int) int {
	switch a := arr.(type) {
	case *Int8:
		return func(i int) int { return int(a.values[i]) }
	case *Int16:
		return func(i int) int { return int(a.values[i]) }
	case *Int32:
		return func(i int) int { return int(a.values[i]) }
	case *Int64:
		return func(i int) int { return int(a.values[i]) }
	case *Uint8:
		return func(i int) int { return int(a.values[i]) }
	case *Uint16:
		return func(i int) int { return int(a.values[i]) }
	case *Uint32:
		return func(i int) int { return int(a.values[i]) }
	case *Uint64:
		return func(i int) int { return int(a.values[i]) }
	}
	panic("array: dictionary indices must be integers, got " + arr.DataType().String())
}
