// Package table groups equal-length arrays into named columns.
//
// A Table is immutable: every operation returns a new Table whose columns
// are views of, or copies from, the receiver's arrays. Tables hold
// references to their arrays and must be released.
package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/cast"
	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	cfmemory "github.com/paveg/colframe/internal/memory"
	"github.com/paveg/colframe/internal/parallel"
)

// Table is an ordered set of named columns of equal length.
type Table struct {
	columns []*Column
	index   map[string]int
	length  int
	mem     memory.Allocator
}

// New creates a table from cols. It fails with MismatchedLength when the
// column lengths differ and InvalidInput when a name repeats. The table
// holds its own references to the columns' arrays.
func New(cols ...*Column) (*Table, error) {
	return NewWithAllocator(memory.DefaultAllocator, cols...)
}

// NewWithAllocator is New with the allocator used by operations that copy
// data, such as Concat, Take and CastTo.
func NewWithAllocator(mem memory.Allocator, cols ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
		mem:     mem,
	}
	for i, c := range cols {
		if i == 0 {
			t.length = c.Len()
		} else if c.Len() != t.length {
			return nil, errors.NewMismatchedLengthError("New", c.Len(), t.length).WithColumn(c.Name())
		}
		if _, dup := t.index[c.name]; dup {
			return nil, errors.NewInvalidInputError("New", fmt.Sprintf("duplicate column name %q", c.name))
		}
		t.index[c.name] = i
		t.columns = append(t.columns, c)
	}
	for _, c := range t.columns {
		c.Retain()
	}
	return t, nil
}

// derive builds a table sharing t's allocator from columns the caller
// already owns.
func (t *Table) derive(cols []*Column) (*Table, error) {
	out, err := NewWithAllocator(t.mem, cols...)
	for _, c := range cols {
		c.Release()
	}
	return out, err
}

// Allocator returns the allocator used for data the table's operations copy.
func (t *Table) Allocator() memory.Allocator { return t.mem }

// Len returns the number of rows.
func (t *Table) Len() int { return t.length }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column { return append([]*Column(nil), t.columns...) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn checks if a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Schema describes the columns. Top-level fields are always nullable.
func (t *Table) Schema() *Schema {
	fields := make([]datatype.Field, len(t.columns))
	for i, c := range t.columns {
		fields[i] = c.Field()
	}
	return NewSchema(fields...)
}

// Select returns the named columns, in the order given.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, errors.NewColumnNotFoundError("Select", name)
		}
		cols = append(cols, c)
	}
	return NewWithAllocator(t.mem, cols...)
}

// Drop returns the table without the named columns. Unknown names are
// ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	cols := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c.name] {
			cols = append(cols, c)
		}
	}
	out, _ := NewWithAllocator(t.mem, cols...)
	return out
}

// Slice returns rows [start, end) as views of the receiver's arrays.
func (t *Table) Slice(start, end int) (*Table, error) {
	if start < 0 || end < start || end > t.length {
		return nil, errors.NewSliceOutOfRange("Slice", start, end, t.length)
	}
	cols := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		view, err := array.NewSlice(c.data, start, end)
		if err != nil {
			releaseColumns(cols)
			return nil, err
		}
		cols = append(cols, &Column{name: c.name, data: view})
	}
	return t.derive(cols)
}

// Concat appends the rows of others below t. Columns are matched by name;
// a column whose type differs from t's is cast to t's type first, and
// IncompatibleSchema is returned when no cast exists or the column sets
// differ.
func (t *Table) Concat(others ...*Table) (*Table, error) {
	const op = "Concat"
	cfg := config.GetGlobalConfig()
	castOpts := []cast.Option{cast.FromConfig(cfg), cast.WithAllocator(t.mem)}

	tracker := cfmemory.NewTracker()
	defer tracker.ReleaseAll()

	parts := make([][]array.Array, len(t.columns))
	for i, c := range t.columns {
		parts[i] = []array.Array{c.data}
	}
	for _, other := range others {
		if other.Width() != t.Width() {
			return nil, errors.NewIncompatibleSchema(op,
				fmt.Sprintf("cannot concatenate %d columns with %d", other.Width(), t.Width()))
		}
		for i, c := range t.columns {
			oc, ok := other.Column(c.name)
			if !ok {
				return nil, errors.NewIncompatibleSchema(op, fmt.Sprintf("column %q is missing", c.name)).WithColumn(c.name)
			}
			arr := oc.data
			if !cast.CanCast(arr.DataType(), c.DataType()) {
				return nil, errors.NewIncompatibleSchema(op,
					fmt.Sprintf("cannot reconcile %s with %s", arr.DataType(), c.DataType())).WithColumn(c.name)
			}
			converted, err := cast.Cast(arr, c.DataType(), castOpts...)
			if err != nil {
				return nil, errors.Attribute(err, c.name)
			}
			tracker.Track(converted)
			parts[i] = append(parts[i], converted)
		}
	}

	merged, err := parallel.Map(context.Background(), cfg.MaxParallelism, parts,
		func(_ context.Context, i int, arrs []array.Array) (*Column, error) {
			arr, err := array.Concatenate(t.mem, arrs...)
			if err != nil {
				return nil, errors.Attribute(err, t.columns[i].name)
			}
			return &Column{name: t.columns[i].name, data: arr}, nil
		})
	if err != nil {
		releaseColumns(merged)
		return nil, err
	}
	return t.derive(merged)
}

// CastTo converts every column to the type of the schema field with the
// same name. The schema must name exactly t's columns; the result follows
// the schema's order. Columns are cast concurrently.
func (t *Table) CastTo(ctx context.Context, schema *Schema, opts ...cast.Option) (*Table, error) {
	const op = "CastTo"
	if schema.NumFields() != t.Width() {
		return nil, errors.NewIncompatibleSchema(op,
			fmt.Sprintf("schema has %d fields, table has %d columns", schema.NumFields(), t.Width()))
	}
	sources := make([]*Column, schema.NumFields())
	for i, f := range schema.fields {
		c, ok := t.Column(f.Name)
		if !ok {
			return nil, errors.NewColumnNotFoundError(op, f.Name)
		}
		sources[i] = c
	}

	cfg := config.GetGlobalConfig()
	opts = append([]cast.Option{cast.FromConfig(cfg), cast.WithAllocator(t.mem)}, opts...)
	cols, err := parallel.Map(ctx, cfg.MaxParallelism, sources,
		func(_ context.Context, i int, c *Column) (*Column, error) {
			arr, err := cast.Cast(c.data, schema.fields[i].Type, opts...)
			if err != nil {
				return nil, errors.Attribute(err, c.name)
			}
			return &Column{name: c.name, data: arr}, nil
		})
	if err != nil {
		releaseColumns(cols)
		return nil, err
	}
	return t.derive(cols)
}

// Take gathers the given rows into a new table.
func (t *Table) Take(indices []int) (*Table, error) {
	cfg := config.GetGlobalConfig()
	cols, err := parallel.Map(context.Background(), cfg.MaxParallelism, t.columns,
		func(_ context.Context, _ int, c *Column) (*Column, error) {
			arr, err := array.Take(t.mem, c.data, indices)
			if err != nil {
				return nil, errors.Attribute(err, c.name)
			}
			return &Column{name: c.name, data: arr}, nil
		})
	if err != nil {
		releaseColumns(cols)
		return nil, err
	}
	return t.derive(cols)
}

// String returns a string representation of the Table.
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, c := range t.columns {
		parts = append(parts, fmt.Sprintf("  %s: %s", c.name, c.DataType()))
	}
	return strings.Join(parts, "\n")
}

// Retain adds a reference to every column's array.
func (t *Table) Retain() {
	for _, c := range t.columns {
		c.Retain()
	}
}

// Release releases the table's references to its arrays.
func (t *Table) Release() {
	for _, c := range t.columns {
		c.Release()
	}
}

func releaseColumns(cols []*Column) {
	for _, c := range cols {
		if c != nil {
			c.Release()
		}
	}
}
