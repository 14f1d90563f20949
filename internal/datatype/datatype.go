// Package datatype describes the logical types of colframe arrays.
//
// A Type is an immutable descriptor: its ID selects the physical encoding and
// its parameters (bit width, time unit, timezone, child types) complete it.
// Every other package dispatches on KindOf(t), which maps the open-looking ID
// space onto the closed set of array variants:
//
//	Null, Bool, Primitive, String, List, Struct, Dictionary, Temporal
//
// Adding a physical encoding means extending KindOf and every switch over Kind
// in the array, cast and io packages.
package datatype

import "fmt"

// ID identifies a physical type.
type ID int

const (
	NULL ID = iota
	BOOL
	INT8
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT32
	FLOAT64
	STRING
	LARGE_STRING
	LIST
	LARGE_LIST
	STRUCT
	DICTIONARY
	DATE32
	TIMESTAMP
)

var idNames = [...]string{
	NULL:         "null",
	BOOL:         "bool",
	INT8:         "int8",
	INT16:        "int16",
	INT32:        "int32",
	INT64:        "int64",
	UINT8:        "uint8",
	UINT16:       "uint16",
	UINT32:       "uint32",
	UINT64:       "uint64",
	FLOAT32:      "float32",
	FLOAT64:      "float64",
	STRING:       "utf8",
	LARGE_STRING: "large_utf8",
	LIST:         "list",
	LARGE_LIST:   "large_list",
	STRUCT:       "struct",
	DICTIONARY:   "dictionary",
	DATE32:       "date32",
	TIMESTAMP:    "timestamp",
}

func (id ID) String() string {
	if id < 0 || int(id) >= len(idNames) {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return idNames[id]
}

// Kind is the closed set of array variants.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindString
	KindList
	KindStruct
	KindDictionary
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindPrimitive:
		return "primitive"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindDictionary:
		return "dictionary"
	case KindTemporal:
		return "temporal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type is a logical type descriptor.
type Type interface {
	ID() ID
	// Name is the short name of the type without parameters.
	Name() string
	// String renders the full type including its parameters.
	String() string
}

// KindOf returns the array variant used to hold values of t.
func KindOf(t Type) Kind {
	switch t.ID() {
	case NULL:
		return KindNull
	case BOOL:
		return KindBool
	case INT8, INT16, INT32, INT64, UINT8, UINT16, UINT32, UINT64, FLOAT32, FLOAT64:
		return KindPrimitive
	case STRING, LARGE_STRING:
		return KindString
	case LIST, LARGE_LIST:
		return KindList
	case STRUCT:
		return KindStruct
	case DICTIONARY:
		return KindDictionary
	case DATE32, TIMESTAMP:
		return KindTemporal
	}
	panic(fmt.Sprintf("datatype: unknown type id %d", int(t.ID())))
}

// IsInteger reports whether id is a signed or unsigned integer type.
func IsInteger(id ID) bool {
	return id >= INT8 && id <= UINT64
}

// IsSigned reports whether id is a signed integer type.
func IsSigned(id ID) bool {
	return id >= INT8 && id <= INT64
}

// IsUnsigned reports whether id is an unsigned integer type.
func IsUnsigned(id ID) bool {
	return id >= UINT8 && id <= UINT64
}

// IsFloating reports whether id is a floating point type.
func IsFloating(id ID) bool {
	return id == FLOAT32 || id == FLOAT64
}

// IsNumeric reports whether id is an integer or floating point type.
func IsNumeric(id ID) bool {
	return IsInteger(id) || IsFloating(id)
}

// ByteWidth returns the width in bytes of one fixed-width slot of t, or -1
// for variable-length, nested and bit-packed types.
func ByteWidth(t Type) int {
	switch t.ID() {
	case INT8, UINT8:
		return 1
	case INT16, UINT16:
		return 2
	case INT32, UINT32, FLOAT32, DATE32:
		return 4
	case INT64, UINT64, FLOAT64, TIMESTAMP:
		return 8
	case DICTIONARY:
		return ByteWidth(t.(*DictionaryType).Index)
	}
	return -1
}
