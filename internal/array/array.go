package array

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// NullValueStr is how ValueStr renders a null entry.
const NullValueStr = "(null)"

// Array is an immutable, typed, nullable sequence of values.
//
// The set of implementations is closed: Null, Boolean, Numeric, String,
// List, Struct, Dictionary, Date32 and Timestamp.
type Array interface {
	fmt.Stringer

	DataType() datatype.Type
	Len() int
	Offset() int
	// NullN returns the number of null entries.
	NullN() int
	// IsNull and IsValid do not check bounds; see the package-level IsNull.
	IsNull(i int) bool
	IsValid(i int) bool
	Data() *Data

	// ValueStr renders entry i for display.
	ValueStr(i int) string
	// GetOneForMarshal returns entry i as a plain Go value (nil when null).
	GetOneForMarshal(i int) any

	Retain()
	Release()

	setData(*Data)
}

type array struct {
	data       *Data
	nullBitmap []byte
}

func (a *array) setData(d *Data) {
	a.nullBitmap = nil
	if len(d.buffers) > 0 && d.buffers[0] != nil {
		a.nullBitmap = d.buffers[0].Bytes()
	}
	a.data = d
}

func (a *array) DataType() datatype.Type { return a.data.dtype }
func (a *array) Len() int                { return a.data.length }
func (a *array) Offset() int             { return a.data.offset }
func (a *array) NullN() int              { return a.data.NullN() }
func (a *array) Data() *Data             { return a.data }

func (a *array) IsNull(i int) bool {
	return len(a.nullBitmap) != 0 && !bitutil.BitIsSet(a.nullBitmap, a.data.offset+i)
}

func (a *array) IsValid(i int) bool {
	return len(a.nullBitmap) == 0 || bitutil.BitIsSet(a.nullBitmap, a.data.offset+i)
}

func (a *array) Retain()  { a.data.Retain() }
func (a *array) Release() { a.data.Release() }

// MakeFromData constructs the array variant matching d's type. The returned
// array holds its own reference to d.
func MakeFromData(d *Data) Array {
	var arr Array
	switch datatype.KindOf(d.dtype) {
	case datatype.KindNull:
		arr = &Null{}
	case datatype.KindBool:
		arr = &Boolean{}
	case datatype.KindPrimitive:
		arr = makeNumeric(d.dtype.ID())
	case datatype.KindString:
		if d.dtype.ID() == datatype.LARGE_STRING {
			arr = &LargeString{}
		} else {
			arr = &String{}
		}
	case datatype.KindList:
		if d.dtype.ID() == datatype.LARGE_LIST {
			arr = &LargeList{}
		} else {
			arr = &List{}
		}
	case datatype.KindStruct:
		arr = &Struct{}
	case datatype.KindDictionary:
		arr = &Dictionary{}
	case datatype.KindTemporal:
		if d.dtype.ID() == datatype.DATE32 {
			arr = &Date32{}
		} else {
			arr = &Timestamp{}
		}
	}

	d.Retain()
	arr.setData(d)
	return arr
}

func makeNumeric(id datatype.ID) Array {
	switch id {
	case datatype.INT8:
		return &Int8{}
	case datatype.INT16:
		return &Int16{}
	case datatype.INT32:
		return &Int32{}
	case datatype.INT64:
		return &Int64{}
	case datatype.UINT8:
		return &Uint8{}
	case datatype.UINT16:
		return &Uint16{}
	case datatype.UINT32:
		return &Uint32{}
	case datatype.UINT64:
		return &Uint64{}
	case datatype.FLOAT32:
		return &Float32{}
	case datatype.FLOAT64:
		return &Float64{}
	}
	panic(fmt.Sprintf("array: %s is not numeric", id))
}

// IsNull reports whether entry i of arr is null.
func IsNull(arr Array, i int) (bool, error) {
	if i < 0 || i >= arr.Len() {
		return false, errors.NewIndexOutOfRange("IsNull", i, arr.Len())
	}
	return arr.IsNull(i), nil
}

func checkIndex(op string, i, n int) error {
	if i < 0 || i >= n {
		return errors.NewIndexOutOfRange(op, i, n)
	}
	return nil
}

func formatArray(arr Array, quote bool) string {
	var o strings.Builder
	o.WriteString("[")
	for i := 0; i < arr.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		switch {
		case arr.IsNull(i):
			o.WriteString(NullValueStr)
		case quote:
			fmt.Fprintf(&o, "%q", arr.ValueStr(i))
		default:
			o.WriteString(arr.ValueStr(i))
		}
	}
	o.WriteString("]")
	return o.String()
}
