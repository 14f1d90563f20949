// Package interop bridges colframe arrays and arrow-go arrays.
//
// Both sides use the Arrow columnar layout on arrow-go memory buffers, so
// conversion copies no data: the converted array takes its own reference to
// every buffer and the original stays valid. Release both independently.
package interop

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

var (
	toArrowIDs = map[datatype.ID]arrow.DataType{
		datatype.INT8:    arrow.PrimitiveTypes.Int8,
		datatype.INT16:   arrow.PrimitiveTypes.Int16,
		datatype.INT32:   arrow.PrimitiveTypes.Int32,
		datatype.INT64:   arrow.PrimitiveTypes.Int64,
		datatype.UINT8:   arrow.PrimitiveTypes.Uint8,
		datatype.UINT16:  arrow.PrimitiveTypes.Uint16,
		datatype.UINT32:  arrow.PrimitiveTypes.Uint32,
		datatype.UINT64:  arrow.PrimitiveTypes.Uint64,
		datatype.FLOAT32: arrow.PrimitiveTypes.Float32,
		datatype.FLOAT64: arrow.PrimitiveTypes.Float64,
	}

	fromArrowIDs = map[arrow.Type]*datatype.NumericType{
		arrow.INT8:    datatype.Int8,
		arrow.INT16:   datatype.Int16,
		arrow.INT32:   datatype.Int32,
		arrow.INT64:   datatype.Int64,
		arrow.UINT8:   datatype.Uint8,
		arrow.UINT16:  datatype.Uint16,
		arrow.UINT32:  datatype.Uint32,
		arrow.UINT64:  datatype.Uint64,
		arrow.FLOAT32: datatype.Float32,
		arrow.FLOAT64: datatype.Float64,
	}
)

// ToArrowType returns the arrow type with the same layout as t.
func ToArrowType(t datatype.Type) arrow.DataType {
	switch t := t.(type) {
	case *datatype.NullType:
		return arrow.Null
	case *datatype.BooleanType:
		return arrow.FixedWidthTypes.Boolean
	case *datatype.NumericType:
		return toArrowIDs[t.ID()]
	case *datatype.StringType:
		if t.Large {
			return arrow.BinaryTypes.LargeString
		}
		return arrow.BinaryTypes.String
	case *datatype.ListType:
		if t.Large {
			return arrow.LargeListOf(ToArrowType(t.Elem))
		}
		return arrow.ListOf(ToArrowType(t.Elem))
	case *datatype.StructType:
		fields := make([]arrow.Field, t.NumFields())
		for i := range fields {
			f := t.Field(i)
			fields[i] = arrow.Field{Name: f.Name, Type: ToArrowType(f.Type), Nullable: f.Nullable}
		}
		return arrow.StructOf(fields...)
	case *datatype.DictionaryType:
		return &arrow.DictionaryType{
			IndexType: ToArrowType(t.Index),
			ValueType: ToArrowType(t.Value),
			Ordered:   t.Ordered,
		}
	case *datatype.Date32Type:
		return arrow.FixedWidthTypes.Date32
	case *datatype.TimestampType:
		return &arrow.TimestampType{Unit: arrow.TimeUnit(t.Unit), TimeZone: t.TimeZone}
	}
	panic("interop: unknown type " + t.String())
}

// FromArrowType returns the colframe type for t, or UnsupportedType when
// colframe has no array with t's layout.
func FromArrowType(t arrow.DataType) (datatype.Type, error) {
	switch t := t.(type) {
	case *arrow.NullType:
		return datatype.Null, nil
	case *arrow.BooleanType:
		return datatype.Boolean, nil
	case *arrow.StringType:
		return datatype.Utf8, nil
	case *arrow.LargeStringType:
		return datatype.LargeUtf8, nil
	case *arrow.ListType:
		elem, err := FromArrowType(t.Elem())
		if err != nil {
			return nil, err
		}
		return datatype.ListOf(elem), nil
	case *arrow.LargeListType:
		elem, err := FromArrowType(t.Elem())
		if err != nil {
			return nil, err
		}
		return datatype.LargeListOf(elem), nil
	case *arrow.StructType:
		fields := make([]datatype.Field, t.NumFields())
		for i, f := range t.Fields() {
			ft, err := FromArrowType(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = datatype.Field{Name: f.Name, Type: ft, Nullable: f.Nullable}
		}
		return datatype.StructOf(fields...), nil
	case *arrow.DictionaryType:
		idx, ok := fromArrowIDs[t.IndexType.ID()]
		if !ok || !datatype.IsInteger(idx.ID()) {
			return nil, errors.NewUnsupportedTypeError("FromArrowType", t.String())
		}
		val, err := FromArrowType(t.ValueType)
		if err != nil {
			return nil, err
		}
		return &datatype.DictionaryType{Index: idx, Value: val, Ordered: t.Ordered}, nil
	case *arrow.Date32Type:
		return datatype.Date32, nil
	case *arrow.TimestampType:
		return datatype.TimestampOf(datatype.TimeUnit(t.Unit), t.TimeZone), nil
	}
	if nt, ok := fromArrowIDs[t.ID()]; ok {
		return nt, nil
	}
	return nil, errors.NewUnsupportedTypeError("FromArrowType", t.String())
}
