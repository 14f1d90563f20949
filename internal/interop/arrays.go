package interop

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/errors"
)

// ToArrow returns an arrow array sharing arr's buffers.
func ToArrow(arr array.Array) arrow.Array {
	d := toArrowData(arr.Data())
	defer d.Release()
	return arrowarray.MakeFromData(d)
}

func toArrowData(d *array.Data) *arrowarray.Data {
	dt := ToArrowType(d.DataType())
	if dict := d.Dictionary(); dict != nil {
		dd := toArrowData(dict)
		defer dd.Release()
		return arrowarray.NewDataWithDictionary(dt, d.Len(), d.Buffers(), d.NullN(), d.Offset(), dd)
	}

	children := make([]arrow.ArrayData, len(d.Children()))
	for i, c := range d.Children() {
		children[i] = toArrowData(c)
	}
	out := arrowarray.NewData(dt, d.Len(), d.Buffers(), children, d.NullN(), d.Offset())
	for _, c := range children {
		c.Release()
	}
	return out
}

// FromArrow returns a colframe array sharing arr's buffers. It fails with
// UnsupportedType for arrow types colframe does not model.
func FromArrow(arr arrow.Array) (array.Array, error) {
	d, err := fromArrowData(arr.Data())
	if err != nil {
		return nil, err
	}
	defer d.Release()
	return array.MakeFromData(d), nil
}

func fromArrowData(d arrow.ArrayData) (*array.Data, error) {
	dt, err := FromArrowType(d.DataType())
	if err != nil {
		return nil, err
	}

	buffers, nulls, err := validity(d)
	if err != nil {
		return nil, err
	}

	// Non-dictionary arrow data reports a typed-nil dictionary, so test the type.
	if d.DataType().ID() == arrow.DICTIONARY {
		dict, ok := d.Dictionary().(*arrowarray.Data)
		if !ok || dict == nil {
			return nil, errors.NewInvalidInputError("FromArrow", "dictionary array has no dictionary")
		}
		dd, err := fromArrowData(dict)
		if err != nil {
			return nil, err
		}
		defer dd.Release()
		return array.NewDataWithDictionary(dt, d.Len(), buffers, nulls, d.Offset(), dd), nil
	}

	children := make([]*array.Data, 0, len(d.Children()))
	defer func() {
		for _, c := range children {
			c.Release()
		}
	}()
	for _, c := range d.Children() {
		cd, err := fromArrowData(c)
		if err != nil {
			return nil, err
		}
		children = append(children, cd)
	}
	return array.NewData(dt, d.Len(), buffers, children, nulls, d.Offset()), nil
}

// validity recounts nulls from the bitmap instead of trusting the count
// carried with it, and drops a bitmap that marks nothing null.
func validity(d arrow.ArrayData) ([]*memory.Buffer, int, error) {
	if d.DataType().ID() == arrow.NULL {
		return []*memory.Buffer{nil}, d.Len(), nil
	}
	buffers := d.Buffers()
	if len(buffers) == 0 {
		return []*memory.Buffer{nil}, 0, nil
	}
	bitmap := buffers[0]
	if bitmap == nil || d.Len() == 0 {
		return append([]*memory.Buffer{nil}, buffers[1:]...), 0, nil
	}
	if need := bitutil.BytesForBits(int64(d.Offset() + d.Len())); int64(bitmap.Len()) < need {
		return nil, 0, errors.NewInvalidInputError("FromArrow",
			fmt.Sprintf("validity bitmap has %d bytes, need %d", bitmap.Len(), need))
	}
	nulls := d.Len() - bitutil.CountSetBits(bitmap.Bytes(), d.Offset(), d.Len())
	if nulls == 0 {
		return append([]*memory.Buffer{nil}, buffers[1:]...), 0, nil
	}
	return buffers, nulls, nil
}
