package datatype

import (
	"fmt"
	"strings"
	"time"
)

// NullType is the type of an array whose every value is null.
type NullType struct{}

func (*NullType) ID() ID           { return NULL }
func (*NullType) Name() string     { return "null" }
func (t *NullType) String() string { return t.Name() }

// BooleanType is a bit-packed boolean.
type BooleanType struct{}

func (*BooleanType) ID() ID           { return BOOL }
func (*BooleanType) Name() string     { return "bool" }
func (t *BooleanType) String() string { return t.Name() }

// NumericType is a fixed-width integer or floating point type.
type NumericType struct {
	id       ID
	bitWidth int
}

func (t *NumericType) ID() ID         { return t.id }
func (t *NumericType) Name() string   { return t.id.String() }
func (t *NumericType) String() string { return t.Name() }

// BitWidth returns the slot width in bits.
func (t *NumericType) BitWidth() int { return t.bitWidth }

// StringType is UTF-8 text with 32-bit (Utf8) or 64-bit (LargeUtf8) offsets.
type StringType struct {
	Large bool
}

func (t *StringType) ID() ID {
	if t.Large {
		return LARGE_STRING
	}
	return STRING
}

func (t *StringType) Name() string   { return t.ID().String() }
func (t *StringType) String() string { return t.Name() }

var (
	Null    = &NullType{}
	Boolean = &BooleanType{}

	Int8    = &NumericType{id: INT8, bitWidth: 8}
	Int16   = &NumericType{id: INT16, bitWidth: 16}
	Int32   = &NumericType{id: INT32, bitWidth: 32}
	Int64   = &NumericType{id: INT64, bitWidth: 64}
	Uint8   = &NumericType{id: UINT8, bitWidth: 8}
	Uint16  = &NumericType{id: UINT16, bitWidth: 16}
	Uint32  = &NumericType{id: UINT32, bitWidth: 32}
	Uint64  = &NumericType{id: UINT64, bitWidth: 64}
	Float32 = &NumericType{id: FLOAT32, bitWidth: 32}
	Float64 = &NumericType{id: FLOAT64, bitWidth: 64}

	Utf8      = &StringType{}
	LargeUtf8 = &StringType{Large: true}

	Date32 = &Date32Type{}
)

// NumericByID returns the numeric singleton for id, or nil.
func NumericByID(id ID) *NumericType {
	switch id {
	case INT8:
		return Int8
	case INT16:
		return Int16
	case INT32:
		return Int32
	case INT64:
		return Int64
	case UINT8:
		return Uint8
	case UINT16:
		return Uint16
	case UINT32:
		return Uint32
	case UINT64:
		return Uint64
	case FLOAT32:
		return Float32
	case FLOAT64:
		return Float64
	}
	return nil
}

// ListType is a variable-length sequence of Elem values.
type ListType struct {
	Elem  Type
	Large bool
}

// ListOf returns a list type with 32-bit offsets.
func ListOf(elem Type) *ListType { return &ListType{Elem: elem} }

// LargeListOf returns a list type with 64-bit offsets.
func LargeListOf(elem Type) *ListType { return &ListType{Elem: elem, Large: true} }

func (t *ListType) ID() ID {
	if t.Large {
		return LARGE_LIST
	}
	return LIST
}

func (t *ListType) Name() string   { return t.ID().String() }
func (t *ListType) String() string { return fmt.Sprintf("%s<%s>", t.Name(), t.Elem) }

// Field is a named child of a struct type.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

func (f Field) String() string {
	s := f.Name + ": " + f.Type.String()
	if !f.Nullable {
		s += " not null"
	}
	return s
}

// StructType is a fixed set of named fields.
type StructType struct {
	fields []Field
	index  map[string]int
}

// StructOf builds a struct type. When names repeat, FieldIndex resolves to
// the first occurrence.
func StructOf(fields ...Field) *StructType {
	t := &StructType{
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := t.index[f.Name]; !dup {
			t.index[f.Name] = i
		}
	}
	return t
}

func (*StructType) ID() ID       { return STRUCT }
func (*StructType) Name() string { return "struct" }

func (t *StructType) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = f.String()
	}
	return "struct<" + strings.Join(parts, ", ") + ">"
}

// Fields returns a copy of the field list.
func (t *StructType) Fields() []Field { return append([]Field(nil), t.fields...) }

// NumFields returns the number of fields.
func (t *StructType) NumFields() int { return len(t.fields) }

// Field returns the i-th field.
func (t *StructType) Field(i int) Field { return t.fields[i] }

// FieldIndex returns the position of the named field.
func (t *StructType) FieldIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// DictionaryType is an integer index column resolving into a value array.
type DictionaryType struct {
	Index   *NumericType
	Value   Type
	Ordered bool
}

// DictionaryOf returns a dictionary type; index must be an integer type.
func DictionaryOf(index *NumericType, value Type) *DictionaryType {
	if !IsInteger(index.ID()) {
		panic(fmt.Sprintf("datatype: dictionary index must be an integer type, got %s", index))
	}
	return &DictionaryType{Index: index, Value: value}
}

func (*DictionaryType) ID() ID       { return DICTIONARY }
func (*DictionaryType) Name() string { return "dictionary" }

func (t *DictionaryType) String() string {
	return fmt.Sprintf("dictionary<values=%s, indices=%s, ordered=%t>", t.Value, t.Index, t.Ordered)
}

// MaxIndex returns the largest dictionary position the index type can hold.
func (t *DictionaryType) MaxIndex() int64 {
	switch t.Index.ID() {
	case INT8:
		return 1<<7 - 1
	case UINT8:
		return 1<<8 - 1
	case INT16:
		return 1<<15 - 1
	case UINT16:
		return 1<<16 - 1
	case INT32:
		return 1<<31 - 1
	case UINT32:
		return 1<<32 - 1
	}
	return 1<<63 - 1
}

// TimeUnit is the resolution of a timestamp.
type TimeUnit int

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

var unitNames = [...]string{"s", "ms", "us", "ns"}

func (u TimeUnit) String() string {
	if u < Second || u > Nanosecond {
		return fmt.Sprintf("TimeUnit(%d)", int(u))
	}
	return unitNames[u]
}

// Multiplier returns the number of ticks of u per second.
func (u TimeUnit) Multiplier() int64 {
	switch u {
	case Millisecond:
		return 1_000
	case Microsecond:
		return 1_000_000
	case Nanosecond:
		return 1_000_000_000
	}
	return 1
}

// Duration returns the length of one tick of u.
func (u TimeUnit) Duration() time.Duration {
	return time.Second / time.Duration(u.Multiplier())
}

// ParseTimeUnit parses "s", "ms", "us" or "ns".
func ParseTimeUnit(s string) (TimeUnit, error) {
	for i, name := range unitNames {
		if name == s {
			return TimeUnit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown time unit %q", s)
}

// TimestampType is an int64 count of Unit since the Unix epoch. TimeZone is a
// display tag only; the payload is always UTC-based.
type TimestampType struct {
	Unit     TimeUnit
	TimeZone string
}

// TimestampOf returns a timestamp type.
func TimestampOf(unit TimeUnit, tz string) *TimestampType {
	return &TimestampType{Unit: unit, TimeZone: tz}
}

func (*TimestampType) ID() ID       { return TIMESTAMP }
func (*TimestampType) Name() string { return "timestamp" }

func (t *TimestampType) String() string {
	if t.TimeZone == "" {
		return fmt.Sprintf("timestamp[%s]", t.Unit)
	}
	return fmt.Sprintf("timestamp[%s, tz=%s]", t.Unit, t.TimeZone)
}

// Location resolves TimeZone, defaulting to UTC.
func (t *TimestampType) Location() (*time.Location, error) {
	if t.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.TimeZone)
}

// Date32Type is an int32 count of days since the Unix epoch.
type Date32Type struct{}

func (*Date32Type) ID() ID           { return DATE32 }
func (*Date32Type) Name() string     { return "date32" }
func (t *Date32Type) String() string { return t.Name() }
