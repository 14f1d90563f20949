// Package cast converts arrays from one type to another.
//
// The conversion rules form a closed table keyed on the source and
// destination kinds (see CanCast). Every rule propagates nulls without
// looking at the slot underneath, never mutates its input and either returns
// a complete new array or an error: a failed cast releases whatever it had
// built. Buffers are shared whenever the payload does not change, e.g. a
// timezone-only timestamp change or Timestamp to Int64.
package cast

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

const opCast = "Cast"

// OverflowPolicy decides what happens to a value the destination type
// cannot represent.
type OverflowPolicy int

const (
	// OverflowError fails the cast with CastOverflow.
	OverflowError OverflowPolicy = iota
	// OverflowTruncate keeps Go conversion semantics: integers wrap,
	// fractions are dropped.
	OverflowTruncate
	// OverflowSaturate clamps to the destination's range.
	OverflowSaturate
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowTruncate:
		return "truncate"
	case OverflowSaturate:
		return "saturate"
	}
	return "error"
}

// ParseOverflowPolicy parses "error", "truncate" or "saturate".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "error", "":
		return OverflowError, nil
	case "truncate":
		return OverflowTruncate, nil
	case "saturate":
		return OverflowSaturate, nil
	}
	return OverflowError, fmt.Errorf("unknown overflow policy %q", s)
}

// Options control a cast.
type Options struct {
	Allocator         memory.Allocator
	Overflow          OverflowPolicy
	AllowTimeTruncate bool
}

// Option configures Options.
type Option func(*Options)

// WithAllocator sets the allocator for new buffers.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *Options) { o.Allocator = mem }
}

// WithOverflowPolicy selects the narrowing behaviour.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(o *Options) { o.Overflow = p }
}

// WithTimeTruncate allows coarsening timestamps that carry sub-unit parts.
func WithTimeTruncate(allow bool) Option {
	return func(o *Options) { o.AllowTimeTruncate = allow }
}

// FromConfig applies the cast settings of cfg. Unknown policies fall back to
// OverflowError.
func FromConfig(cfg config.Config) Option {
	return func(o *Options) {
		o.Overflow, _ = ParseOverflowPolicy(cfg.CastOverflow)
		o.AllowTimeTruncate = cfg.AllowTimeTruncate
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{Allocator: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(o)
	}
	if o.Allocator == nil {
		o.Allocator = memory.DefaultAllocator
	}
	return o
}

// Cast converts arr to type to. The result must be released by the caller.
func Cast(arr array.Array, to datatype.Type, opts ...Option) (array.Array, error) {
	return cast(arr, to, newOptions(opts))
}

func cast(arr array.Array, to datatype.Type, o *Options) (array.Array, error) {
	from := arr.DataType()
	if datatype.Equal(from, to) {
		arr.Retain()
		return arr, nil
	}

	switch {
	case from.ID() == datatype.NULL:
		return array.MakeArrayOfNull(o.Allocator, to, arr.Len())
	case to.ID() == datatype.NULL:
		if arr.NullN() != arr.Len() {
			return nil, incompatible(from, to, "source has non-null entries")
		}
		return array.MakeArrayOfNull(o.Allocator, to, arr.Len())
	case from.ID() == datatype.DICTIONARY:
		return castFromDictionary(arr.(*array.Dictionary), to, o)
	case to.ID() == datatype.DICTIONARY:
		return encodeDictionary(arr, to.(*datatype.DictionaryType), o)
	}

	fk, tk := datatype.KindOf(from), datatype.KindOf(to)
	switch fk {
	case datatype.KindBool:
		switch tk {
		case datatype.KindPrimitive:
			return boolToNumeric(arr.(*array.Boolean), to.(*datatype.NumericType), o)
		case datatype.KindString:
			return toString(arr, to, o)
		}
	case datatype.KindPrimitive:
		switch tk {
		case datatype.KindPrimitive:
			return castNumeric(arr, to.(*datatype.NumericType), o)
		case datatype.KindBool:
			return numericToBool(arr, o)
		case datatype.KindString:
			return toString(arr, to, o)
		case datatype.KindTemporal:
			return numericToTemporal(arr, to, o)
		}
	case datatype.KindString:
		return fromString(arr, to, o)
	case datatype.KindTemporal:
		switch tk {
		case datatype.KindTemporal:
			return castTemporal(arr, to, o)
		case datatype.KindPrimitive:
			return temporalToNumeric(arr, to.(*datatype.NumericType), o)
		case datatype.KindString:
			return toString(arr, to, o)
		}
	case datatype.KindList:
		if tk == datatype.KindList {
			return castList(arr, to.(*datatype.ListType), o)
		}
	case datatype.KindStruct:
		if tk == datatype.KindStruct {
			return castStruct(arr.(*array.Struct), to.(*datatype.StructType), o)
		}
	}
	return nil, incompatible(from, to, "no conversion rule")
}

// CanCast reports whether a conversion rule exists from one type to the
// other. A cast to Null additionally requires an all-null source.
func CanCast(from, to datatype.Type) bool {
	if datatype.Equal(from, to) || from.ID() == datatype.NULL || to.ID() == datatype.NULL {
		return true
	}
	if fd, ok := from.(*datatype.DictionaryType); ok {
		if td, ok := to.(*datatype.DictionaryType); ok {
			return CanCast(fd.Value, td.Value)
		}
		return CanCast(fd.Value, to)
	}
	if td, ok := to.(*datatype.DictionaryType); ok {
		switch datatype.KindOf(td.Value) {
		case datatype.KindBool, datatype.KindPrimitive, datatype.KindString, datatype.KindTemporal:
			return CanCast(from, td.Value)
		}
		return false
	}

	fk, tk := datatype.KindOf(from), datatype.KindOf(to)
	switch fk {
	case datatype.KindBool:
		return tk == datatype.KindPrimitive || tk == datatype.KindString
	case datatype.KindPrimitive:
		return tk == datatype.KindPrimitive || tk == datatype.KindBool ||
			tk == datatype.KindString || tk == datatype.KindTemporal
	case datatype.KindString:
		return tk == datatype.KindString || tk == datatype.KindPrimitive ||
			tk == datatype.KindBool || tk == datatype.KindTemporal
	case datatype.KindTemporal:
		return tk == datatype.KindTemporal || tk == datatype.KindPrimitive || tk == datatype.KindString
	case datatype.KindList:
		return tk == datatype.KindList && CanCast(from.(*datatype.ListType).Elem, to.(*datatype.ListType).Elem)
	case datatype.KindStruct:
		if tk != datatype.KindStruct {
			return false
		}
		fs, ts := from.(*datatype.StructType), to.(*datatype.StructType)
		if fs.NumFields() != ts.NumFields() {
			return false
		}
		for i := 0; i < ts.NumFields(); i++ {
			f := ts.Field(i)
			j, ok := fs.FieldIndex(f.Name)
			if !ok || !CanCast(fs.Field(j).Type, f.Type) {
				return false
			}
		}
		return true
	}
	return false
}

func incompatible(from, to datatype.Type, reason string) error {
	return errors.NewIncompatibleSchema(opCast, fmt.Sprintf("cannot cast %s to %s: %s", from, to, reason))
}

// retype returns a view of arr's buffers under a different type.
func retype(arr array.Array, to datatype.Type) array.Array {
	d := arr.Data()
	var nd *array.Data
	if dict := d.Dictionary(); dict != nil {
		nd = array.NewDataWithDictionary(to, d.Len(), d.Buffers(), d.NullN(), d.Offset(), dict)
	} else {
		nd = array.NewData(to, d.Len(), d.Buffers(), d.Children(), d.NullN(), d.Offset())
	}
	defer nd.Release()
	return array.MakeFromData(nd)
}

// validityOf returns a validity bitmap for arr starting at bit 0: the
// source bitmap itself when it already does, a copy otherwise, or nil when
// nothing is null. The caller owns the returned reference.
func validityOf(arr array.Array, mem memory.Allocator) *memory.Buffer {
	if arr.NullN() == 0 {
		return nil
	}
	src := arr.Data().Buffers()[0]
	if arr.Offset() == 0 {
		src.Retain()
		return src
	}
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(int(bitutil.BytesForBits(int64(arr.Len()))))
	bits := buf.Bytes()
	for i := 0; i < arr.Len(); i++ {
		bitutil.SetBitTo(bits, i, arr.IsValid(i))
	}
	return buf
}

// assemble builds an array and takes over the references to buffers and
// children.
func assemble(to datatype.Type, length, nulls int, buffers []*memory.Buffer, children []array.Array) array.Array {
	childData := make([]*array.Data, len(children))
	for i, c := range children {
		childData[i] = c.Data()
	}
	d := array.NewData(to, length, buffers, childData, nulls, 0)
	for _, b := range buffers {
		if b != nil {
			b.Release()
		}
	}
	for _, c := range children {
		c.Release()
	}
	defer d.Release()
	return array.MakeFromData(d)
}

func releaseAll(arrs []array.Array) {
	for _, a := range arrs {
		if a != nil {
			a.Release()
		}
	}
}
