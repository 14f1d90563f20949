package table

import (
	"strings"

	"github.com/paveg/colframe/internal/datatype"
)

// Schema is the ordered list of a table's fields.
type Schema struct {
	fields []datatype.Field
	index  map[string]int
}

// NewSchema builds a schema. Field names must be unique; New enforces this
// for tables.
func NewSchema(fields ...datatype.Field) *Schema {
	s := &Schema{
		fields: append([]datatype.Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Fields returns a copy of the fields.
func (s *Schema) Fields() []datatype.Field { return append([]datatype.Field(nil), s.fields...) }

func (s *Schema) NumFields() int             { return len(s.fields) }
func (s *Schema) Field(i int) datatype.Field { return s.fields[i] }

// FieldIndex returns the position of the named field.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Equal reports whether both schemas list the same fields, with equal
// types and nullability, in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i, f := range s.fields {
		g := other.fields[i]
		if f.Name != g.Name || f.Nullable != g.Nullable || !datatype.Equal(f.Type, g.Type) {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return "schema<" + strings.Join(parts, ", ") + ">"
}
