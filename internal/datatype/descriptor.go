package datatype

import "fmt"

// Descriptor is the serialisable tree form of a Type.
type Descriptor struct {
	Type     string            `json:"type" bson:"type" yaml:"type"`
	Unit     string            `json:"unit,omitempty" bson:"unit,omitempty" yaml:"unit,omitempty"`
	TimeZone string            `json:"tz,omitempty" bson:"tz,omitempty" yaml:"tz,omitempty"`
	Ordered  bool              `json:"ordered,omitempty" bson:"ordered,omitempty" yaml:"ordered,omitempty"`
	Index    *Descriptor       `json:"index,omitempty" bson:"index,omitempty" yaml:"index,omitempty"`
	Value    *Descriptor       `json:"value,omitempty" bson:"value,omitempty" yaml:"value,omitempty"`
	Elem     *Descriptor       `json:"elem,omitempty" bson:"elem,omitempty" yaml:"elem,omitempty"`
	Fields   []FieldDescriptor `json:"fields,omitempty" bson:"fields,omitempty" yaml:"fields,omitempty"`
}

// FieldDescriptor is the serialisable form of a Field.
type FieldDescriptor struct {
	Name     string     `json:"name" bson:"name" yaml:"name"`
	Nullable bool       `json:"nullable" bson:"nullable" yaml:"nullable"`
	Type     Descriptor `json:"type" bson:"type" yaml:"type"`
}

// ToDescriptor converts t into its serialisable form.
func ToDescriptor(t Type) Descriptor {
	d := Descriptor{Type: t.ID().String()}
	switch t := t.(type) {
	case *ListType:
		elem := ToDescriptor(t.Elem)
		d.Elem = &elem
	case *StructType:
		d.Fields = make([]FieldDescriptor, t.NumFields())
		for i, f := range t.fields {
			d.Fields[i] = FieldDescriptor{Name: f.Name, Nullable: f.Nullable, Type: ToDescriptor(f.Type)}
		}
	case *DictionaryType:
		idx, val := ToDescriptor(t.Index), ToDescriptor(t.Value)
		d.Index, d.Value, d.Ordered = &idx, &val, t.Ordered
	case *TimestampType:
		d.Unit, d.TimeZone = t.Unit.String(), t.TimeZone
	}
	return d
}

// FromDescriptor rebuilds the Type described by d.
func FromDescriptor(d Descriptor) (Type, error) {
	switch d.Type {
	case "null":
		return Null, nil
	case "bool":
		return Boolean, nil
	case "utf8":
		return Utf8, nil
	case "large_utf8":
		return LargeUtf8, nil
	case "date32":
		return Date32, nil
	case "timestamp":
		unit, err := ParseTimeUnit(d.Unit)
		if err != nil {
			return nil, err
		}
		return TimestampOf(unit, d.TimeZone), nil
	case "list", "large_list":
		if d.Elem == nil {
			return nil, fmt.Errorf("%s descriptor has no element type", d.Type)
		}
		elem, err := FromDescriptor(*d.Elem)
		if err != nil {
			return nil, fmt.Errorf("list element: %w", err)
		}
		return &ListType{Elem: elem, Large: d.Type == "large_list"}, nil
	case "struct":
		fields := make([]Field, len(d.Fields))
		for i, fd := range d.Fields {
			ft, err := FromDescriptor(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("struct field %q: %w", fd.Name, err)
			}
			fields[i] = Field{Name: fd.Name, Type: ft, Nullable: fd.Nullable}
		}
		return StructOf(fields...), nil
	case "dictionary":
		if d.Index == nil || d.Value == nil {
			return nil, fmt.Errorf("dictionary descriptor needs index and value types")
		}
		idx, err := FromDescriptor(*d.Index)
		if err != nil {
			return nil, fmt.Errorf("dictionary index: %w", err)
		}
		nt, ok := idx.(*NumericType)
		if !ok || !IsInteger(nt.ID()) {
			return nil, fmt.Errorf("dictionary index must be an integer type, got %s", idx)
		}
		val, err := FromDescriptor(*d.Value)
		if err != nil {
			return nil, fmt.Errorf("dictionary value: %w", err)
		}
		return &DictionaryType{Index: nt, Value: val, Ordered: d.Ordered}, nil
	}

	for id := INT8; id <= FLOAT64; id++ {
		if id.String() == d.Type {
			return NumericByID(id), nil
		}
	}
	return nil, fmt.Errorf("unknown type %q", d.Type)
}
