package array

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// Boolean is a bit-packed array of bools.
type Boolean struct {
	array
	values []byte
}

func (a *Boolean) setData(d *Data) {
	a.array.setData(d)
	a.values = nil
	if vals := d.buffers[1]; vals != nil {
		a.values = vals.Bytes()
	}
}

// Value returns entry i without bounds or validity checks.
func (a *Boolean) Value(i int) bool {
	if i < 0 || i >= a.data.length {
		panic("array: index out of range")
	}
	return bitutil.BitIsSet(a.values, a.data.offset+i)
}

// Get returns entry i, or an IndexOutOfRange error.
func (a *Boolean) Get(i int) (bool, error) {
	if err := checkIndex("Get", i, a.Len()); err != nil {
		return false, err
	}
	return a.Value(i), nil
}

func (a *Boolean) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return strconv.FormatBool(a.Value(i))
}

func (a *Boolean) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	return a.Value(i)
}

func (a *Boolean) String() string { return formatArray(a, false) }
