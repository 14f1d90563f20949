package array

import (
	"bytes"
	"cmp"
	"fmt"
	"math"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// NullPlacement selects where nulls sort relative to values.
type NullPlacement int

const (
	NullsLast NullPlacement = iota
	NullsFirst
)

func (p NullPlacement) String() string {
	if p == NullsFirst {
		return "first"
	}
	return "last"
}

// ParseNullPlacement parses "first" or "last".
func ParseNullPlacement(s string) (NullPlacement, error) {
	switch s {
	case "first":
		return NullsFirst, nil
	case "last", "":
		return NullsLast, nil
	}
	return NullsLast, fmt.Errorf("unknown null placement %q", s)
}

// CompareOptions configure NewComparator.
type CompareOptions struct {
	NullPlacement NullPlacement
}

// Comparator orders entry i of one array against entry j of another,
// returning -1, 0 or +1.
type Comparator func(i, j int) int

// NewComparator returns a total order over the entries of a and b, which
// must have logically equal types. Dictionary arrays compare by resolved
// value. NaN sorts after every other float and equals itself.
func NewComparator(a, b Array, opts CompareOptions) (Comparator, error) {
	if !datatype.LogicalEqual(a.DataType(), b.DataType()) {
		return nil, errors.NewIncompatibleSchema("Compare",
			fmt.Sprintf("cannot compare %s with %s", a.DataType(), b.DataType()))
	}
	return newComparator(a, b, opts), nil
}

func newComparator(a, b Array, opts CompareOptions) Comparator {
	nullCmp := 1
	if opts.NullPlacement == NullsFirst {
		nullCmp = -1
	}

	ad, aIsDict := a.(*Dictionary)
	bd, bIsDict := b.(*Dictionary)
	var values Comparator
	if aIsDict || bIsDict {
		av, ai := resolve(a, ad, aIsDict)
		bv, bi := resolve(b, bd, bIsDict)
		inner := newComparator(av, bv, opts)
		values = func(i, j int) int { return inner(ai(i), bi(j)) }
	} else {
		values = valueComparator(a, b, opts)
	}

	return func(i, j int) int {
		an, bn := a.IsNull(i), b.IsNull(j)
		switch {
		case an && bn:
			return 0
		case an:
			return nullCmp
		case bn:
			return -nullCmp
		}
		return values(i, j)
	}
}

func resolve(arr Array, d *Dictionary, isDict bool) (Array, func(int) int) {
	if isDict {
		return d.Dictionary(), d.IndexAt
	}
	return arr, func(i int) int { return i }
}

// valueComparator compares two valid entries of non-dictionary arrays.
func valueComparator(a, b Array, opts CompareOptions) Comparator {
	switch a := a.(type) {
	case *Null:
		return func(i, j int) int { return 0 }
	case *Boolean:
		b := b.(*Boolean)
		return func(i, j int) int { return cmpBool(a.Value(i), b.Value(j)) }
	case *Int8:
		return orderedComparator(a.values, b.(*Int8).values)
	case *Int16:
		return orderedComparator(a.values, b.(*Int16).values)
	case *Int32:
		return orderedComparator(a.values, b.(*Int32).values)
	case *Int64:
		return orderedComparator(a.values, b.(*Int64).values)
	case *Uint8:
		return orderedComparator(a.values, b.(*Uint8).values)
	case *Uint16:
		return orderedComparator(a.values, b.(*Uint16).values)
	case *Uint32:
		return orderedComparator(a.values, b.(*Uint32).values)
	case *Uint64:
		return orderedComparator(a.values, b.(*Uint64).values)
	case *Float32:
		return floatComparator(a.values, b.(*Float32).values)
	case *Float64:
		return floatComparator(a.values, b.(*Float64).values)
	case *String:
		b := b.(*String)
		return func(i, j int) int { return bytes.Compare(a.ValueBytes(i), b.ValueBytes(j)) }
	case *LargeString:
		b := b.(*LargeString)
		return func(i, j int) int { return bytes.Compare(a.ValueBytes(i), b.ValueBytes(j)) }
	case *Date32:
		return orderedComparator(a.values, b.(*Date32).values)
	case *Timestamp:
		return orderedComparator(a.values, b.(*Timestamp).values)
	case *List:
		return listComparator(a, b.(*List), opts)
	case *LargeList:
		return listComparator(a, b.(*LargeList), opts)
	case *Struct:
		b := b.(*Struct)
		fields := make([]Comparator, a.NumField())
		for k := range fields {
			fields[k] = newComparator(a.Field(k), b.Field(k), opts)
		}
		return func(i, j int) int {
			for _, c := range fields {
				if r := c(i, j); r != 0 {
					return r
				}
			}
			return 0
		}
	}
	panic(fmt.Sprintf("array: no comparator for %s", a.DataType()))
}

func cmpBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	}
	return 1
}

func orderedComparator[T cmp.Ordered](a, b []T) Comparator {
	return func(i, j int) int { return cmp.Compare(a[i], b[j]) }
}

func floatComparator[T float32 | float64](a, b []T) Comparator {
	return func(i, j int) int {
		x, y := float64(a[i]), float64(b[j])
		xn, yn := math.IsNaN(x), math.IsNaN(y)
		switch {
		case xn && yn:
			return 0
		case xn:
			return 1
		case yn:
			return -1
		}
		return cmp.Compare(x, y)
	}
}

func listComparator[O Offset](a, b *ListArray[O], opts CompareOptions) Comparator {
	elems := newComparator(a.values, b.values, opts)
	return func(i, j int) int {
		as, ae := a.ValueOffsets(i)
		bs, be := b.ValueOffsets(j)
		for k := 0; as+k < ae && bs+k < be; k++ {
			if r := elems(as+k, bs+k); r != 0 {
				return r
			}
		}
		return cmp.Compare(ae-as, be-bs)
	}
}

// Equal reports whether a and b have equal types and equal entries,
// including the position of nulls.
func Equal(a, b Array) bool {
	if !datatype.Equal(a.DataType(), b.DataType()) {
		return false
	}
	return entriesEqual(a, b)
}

// LogicalEqual is Equal with dictionary encoding resolved on both sides.
func LogicalEqual(a, b Array) bool {
	if !datatype.LogicalEqual(a.DataType(), b.DataType()) {
		return false
	}
	return entriesEqual(a, b)
}

func entriesEqual(a, b Array) bool {
	if a.Len() != b.Len() || a.NullN() != b.NullN() {
		return false
	}
	c := newComparator(a, b, CompareOptions{})
	for i := 0; i < a.Len(); i++ {
		if c(i, i) != 0 {
			return false
		}
	}
	return true
}
