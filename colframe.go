// Package colframe provides typed, nullable columnar arrays, a runtime cast
// engine and table serializers for Arrow IPC, Parquet, CSV, JSON and BSON.
// This package is the sole public API for the library.
//
// Every array and table holds reference-counted buffers taken from a
// memory.Allocator. Release what you create:
//
//	t, err := colframe.ReadFile("in.csv", memory.DefaultAllocator)
//	if err != nil { ... }
//	defer t.Release()
package colframe

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/cast"
	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/interop"
	cfio "github.com/paveg/colframe/internal/io"
	"github.com/paveg/colframe/internal/table"
)

// Types.
type (
	DataType      = datatype.Type
	Field         = datatype.Field
	TimeUnit      = datatype.TimeUnit
	Array         = array.Array
	Builder       = array.Builder
	Column        = table.Column
	Schema        = table.Schema
	SortKey       = table.SortKey
	SortOptions   = table.SortOptions
	NullPlacement = array.NullPlacement
	CastOption    = cast.Option
	Config        = config.Config
	Format        = cfio.Format
	Error         = errors.Error
	ErrorKind     = errors.Kind
)

var (
	Null      = datatype.Null
	Boolean   = datatype.Boolean
	Int8      = datatype.Int8
	Int16     = datatype.Int16
	Int32     = datatype.Int32
	Int64     = datatype.Int64
	Uint8     = datatype.Uint8
	Uint16    = datatype.Uint16
	Uint32    = datatype.Uint32
	Uint64    = datatype.Uint64
	Float32   = datatype.Float32
	Float64   = datatype.Float64
	Utf8      = datatype.Utf8
	LargeUtf8 = datatype.LargeUtf8
	Date32    = datatype.Date32
)

const (
	Second      = datatype.Second
	Millisecond = datatype.Millisecond
	Microsecond = datatype.Microsecond
	Nanosecond  = datatype.Nanosecond

	NullsLast  = array.NullsLast
	NullsFirst = array.NullsFirst

	FormatIPC       = cfio.FormatIPC
	FormatIPCStream = cfio.FormatIPCStream
	FormatParquet   = cfio.FormatParquet
	FormatCSV       = cfio.FormatCSV
	FormatJSON      = cfio.FormatJSON
	FormatJSONLines = cfio.FormatJSONLines
	FormatBSON      = cfio.FormatBSON
)

// Sentinel errors for use with errors.Is.
var (
	ErrIndexOutOfRange     = errors.ErrIndexOutOfRange
	ErrBuilderOverflow     = errors.ErrBuilderOverflow
	ErrDictionaryOverflow  = errors.ErrDictionaryOverflow
	ErrChildLengthMismatch = errors.ErrChildLengthMismatch
	ErrBuilderFinished     = errors.ErrBuilderFinished
	ErrCastOverflow        = errors.ErrCastOverflow
	ErrCastParseError      = errors.ErrCastParseError
	ErrIncompatibleSchema  = errors.ErrIncompatibleSchema
	ErrInvalidInput        = errors.ErrInvalidInput
	ErrUnsupportedType     = errors.ErrUnsupportedType
	ErrColumnNotFound      = errors.ErrColumnNotFound
	ErrMismatchedLength    = errors.ErrMismatchedLength
)

// Type constructors.

func ListOf(elem DataType) DataType                 { return datatype.ListOf(elem) }
func LargeListOf(elem DataType) DataType            { return datatype.LargeListOf(elem) }
func StructOf(fields ...Field) DataType             { return datatype.StructOf(fields...) }
func TimestampOf(unit TimeUnit, tz string) DataType { return datatype.TimestampOf(unit, tz) }

// DictionaryOf returns a dictionary type. index must be an integer type.
func DictionaryOf(index, value DataType) (DataType, error) {
	nt, ok := index.(*datatype.NumericType)
	if !ok || !datatype.IsInteger(nt.ID()) {
		return nil, errors.NewInvalidInputError("DictionaryOf",
			fmt.Sprintf("dictionary index must be an integer type, got %s", index))
	}
	return datatype.DictionaryOf(nt, value), nil
}

// TypeEqual reports whether a and b describe the same type.
func TypeEqual(a, b DataType) bool { return datatype.Equal(a, b) }

// Arrays.

// NewBuilder returns a builder for arrays of type t, sized by the global
// configuration.
func NewBuilder(mem memory.Allocator, t DataType) (Builder, error) {
	return array.NewBuilderWithConfig(mem, t, config.GetGlobalConfig())
}

// ArrayOf builds an array of type t from Go values; nil appends a null.
func ArrayOf(mem memory.Allocator, t DataType, values ...any) (Array, error) {
	b, err := NewBuilder(mem, t)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	for _, v := range values {
		if err := b.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// Slice returns a view of arr[i:j] sharing its buffers.
func Slice(arr Array, i, j int) (Array, error) { return array.NewSlice(arr, i, j) }

// Concatenate joins arrays of one type into a new array.
func Concatenate(mem memory.Allocator, arrs ...Array) (Array, error) {
	return array.Concatenate(mem, arrs...)
}

// Equal reports whether a and b have the same type and the same values,
// nulls included.
func Equal(a, b Array) bool { return array.Equal(a, b) }

// Validate checks the structural invariants of arr.
func Validate(arr Array) error { return array.Validate(arr) }

// Casting.

var (
	WithAllocator    = cast.WithAllocator
	WithTimeTruncate = cast.WithTimeTruncate
)

// WithOverflow selects "error", "truncate" or "saturate" handling of values
// that do not fit the target type.
func WithOverflow(policy string) (CastOption, error) {
	p, err := cast.ParseOverflowPolicy(policy)
	if err != nil {
		return nil, err
	}
	return cast.WithOverflowPolicy(p), nil
}

// Cast converts arr to type to. Options default to the global
// configuration.
func Cast(arr Array, to DataType, opts ...CastOption) (Array, error) {
	opts = append([]CastOption{cast.FromConfig(config.GetGlobalConfig())}, opts...)
	return cast.Cast(arr, to, opts...)
}

// CanCast reports whether a cast from one type to another is supported.
func CanCast(from, to DataType) bool { return cast.CanCast(from, to) }

// Arrow interop.

// ToArrow returns an arrow-go array sharing arr's buffers.
func ToArrow(arr Array) arrow.Array { return interop.ToArrow(arr) }

// FromArrow returns a colframe array sharing arr's buffers.
func FromArrow(arr arrow.Array) (Array, error) { return interop.FromArrow(arr) }

// Tables.

// Table is an immutable set of equal-length named columns.
// It wraps the internal table.Table to hide implementation details.
type Table struct {
	t *table.Table
}

// NewColumn names arr. The column holds its own reference to arr.
func NewColumn(name string, arr Array) *Column { return table.NewColumn(name, arr) }

// NewSchema returns a schema of the given fields.
func NewSchema(fields ...Field) *Schema { return table.NewSchema(fields...) }

// NewTable builds a table on the default allocator.
func NewTable(cols ...*Column) (*Table, error) {
	return NewTableWithAllocator(memory.DefaultAllocator, cols...)
}

// NewTableWithAllocator builds a table whose derived tables allocate
// from mem.
func NewTableWithAllocator(mem memory.Allocator, cols ...*Column) (*Table, error) {
	return wrap(table.NewWithAllocator(mem, cols...))
}

func wrap(t *table.Table, err error) (*Table, error) {
	if err != nil {
		return nil, err
	}
	return &Table{t: t}, nil
}

func unwrap(ts []*Table) []*table.Table {
	out := make([]*table.Table, len(ts))
	for i, t := range ts {
		out[i] = t.t
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.t.Len() }

// Width returns the number of columns.
func (t *Table) Width() int { return t.t.Width() }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string { return t.t.ColumnNames() }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column { return t.t.Columns() }

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) { return t.t.Column(name) }

// HasColumn reports whether the table has the given column.
func (t *Table) HasColumn(name string) bool { return t.t.HasColumn(name) }

// Schema returns the column names and types.
func (t *Table) Schema() *Schema { return t.t.Schema() }

// Select returns the named columns, in the order given.
func (t *Table) Select(names ...string) (*Table, error) { return wrap(t.t.Select(names...)) }

// Drop returns the table without the named columns.
func (t *Table) Drop(names ...string) *Table { return &Table{t: t.t.Drop(names...)} }

// Slice returns rows [start, end) as views.
func (t *Table) Slice(start, end int) (*Table, error) { return wrap(t.t.Slice(start, end)) }

// Concat appends the rows of others, casting their columns to this
// table's types.
func (t *Table) Concat(others ...*Table) (*Table, error) {
	return wrap(t.t.Concat(unwrap(others)...))
}

// CastTo casts every column to the type schema gives it, in schema order.
func (t *Table) CastTo(ctx context.Context, schema *Schema, opts ...CastOption) (*Table, error) {
	return wrap(t.t.CastTo(ctx, schema, opts...))
}

// Sort orders rows by keys. The sort is stable.
func (t *Table) Sort(keys []SortKey, opts SortOptions) (*Table, error) {
	return wrap(t.t.Sort(keys, opts))
}

// Take gathers the rows at indices.
func (t *Table) Take(indices []int) (*Table, error) { return wrap(t.t.Take(indices)) }

// ToRecord returns an arrow record batch sharing the table's buffers.
func (t *Table) ToRecord() arrow.Record { return interop.ToRecord(t.t, nil) }

// FromRecords stacks arrow record batches of one schema into a table.
func FromRecords(mem memory.Allocator, schema *arrow.Schema, recs []arrow.Record) (*Table, error) {
	return wrap(interop.FromRecords(mem, schema, recs))
}

func (t *Table) String() string { return t.t.String() }

// Release frees the memory used by the table.
func (t *Table) Release() { t.t.Release() }

// Serialization.

// ParseFormat parses a format name such as "parquet" or "jsonl".
func ParseFormat(name string) (Format, error) { return cfio.ParseFormat(name) }

// Read decodes one table in format f from r. logger may be nil.
func Read(r io.Reader, f Format, mem memory.Allocator, logger log.Logger) (*Table, error) {
	tr, err := cfio.NewReader(f, r, mem, logger)
	if err != nil {
		return nil, err
	}
	return wrap(tr.Read())
}

// Write encodes t in format f to w. logger may be nil.
func Write(w io.Writer, f Format, t *Table, logger log.Logger) error {
	tw, err := cfio.NewWriter(f, w, logger)
	if err != nil {
		return err
	}
	return tw.Write(t.t)
}

// ReadFile reads a table, choosing the format from the file extension.
func ReadFile(path string, mem memory.Allocator) (*Table, error) {
	f, err := cfio.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, f, mem, nil)
}

// WriteFile writes t, choosing the format from the file extension.
func WriteFile(path string, t *Table) (err error) {
	f, err := cfio.FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, f, t, nil)
}

// Configuration.

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return config.NewConfig() }

// LoadConfig reads a JSON or YAML configuration file.
func LoadConfig(path string) (Config, error) { return config.LoadFromFile(path) }

// SetConfig validates cfg and makes it the global configuration.
func SetConfig(cfg Config) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// GetConfig returns the global configuration.
func GetConfig() Config { return config.GetGlobalConfig() }
