package datatype

// Equal reports whether a and b describe the same type, comparing parameters
// and children recursively.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID() != b.ID() {
		return false
	}

	switch a := a.(type) {
	case *ListType:
		return Equal(a.Elem, b.(*ListType).Elem)
	case *StructType:
		bs := b.(*StructType)
		if len(a.fields) != len(bs.fields) {
			return false
		}
		for i, f := range a.fields {
			g := bs.fields[i]
			if f.Name != g.Name || f.Nullable != g.Nullable || !Equal(f.Type, g.Type) {
				return false
			}
		}
		return true
	case *DictionaryType:
		bd := b.(*DictionaryType)
		return a.Ordered == bd.Ordered && Equal(a.Index, bd.Index) && Equal(a.Value, bd.Value)
	case *TimestampType:
		bt := b.(*TimestampType)
		return a.Unit == bt.Unit && a.TimeZone == bt.TimeZone
	}
	return true
}

// Logical strips dictionary encoding, recursively.
func Logical(t Type) Type {
	switch t := t.(type) {
	case *DictionaryType:
		return Logical(t.Value)
	case *ListType:
		elem := Logical(t.Elem)
		if elem == t.Elem {
			return t
		}
		return &ListType{Elem: elem, Large: t.Large}
	case *StructType:
		fields := t.Fields()
		changed := false
		for i := range fields {
			lt := Logical(fields[i].Type)
			if lt != fields[i].Type {
				fields[i].Type = lt
				changed = true
			}
		}
		if !changed {
			return t
		}
		return StructOf(fields...)
	}
	return t
}

// LogicalEqual reports whether a and b hold the same logical values once
// dictionary encoding is resolved. Field nullability is ignored.
func LogicalEqual(a, b Type) bool {
	a, b = Logical(a), Logical(b)
	if a.ID() != b.ID() {
		return false
	}
	switch a := a.(type) {
	case *ListType:
		return LogicalEqual(a.Elem, b.(*ListType).Elem)
	case *StructType:
		bs := b.(*StructType)
		if a.NumFields() != bs.NumFields() {
			return false
		}
		for i := 0; i < a.NumFields(); i++ {
			if a.Field(i).Name != bs.Field(i).Name || !LogicalEqual(a.Field(i).Type, bs.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return Equal(a, b)
}
