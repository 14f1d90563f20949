package interop

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
)

// ToArrowSchema converts s field by field.
func ToArrowSchema(s *table.Schema, md *arrow.Metadata) *arrow.Schema {
	fields := make([]arrow.Field, s.NumFields())
	for i := range fields {
		f := s.Field(i)
		fields[i] = arrow.Field{Name: f.Name, Type: ToArrowType(f.Type), Nullable: f.Nullable}
	}
	return arrow.NewSchema(fields, md)
}

// FromArrowSchema converts s field by field. Fields are nullable at the
// top level regardless of s.
func FromArrowSchema(s *arrow.Schema) (*table.Schema, error) {
	fields := make([]datatype.Field, s.NumFields())
	for i, f := range s.Fields() {
		t, err := FromArrowType(f.Type)
		if err != nil {
			return nil, errors.Attribute(err, f.Name)
		}
		fields[i] = datatype.Field{Name: f.Name, Type: t, Nullable: true}
	}
	return table.NewSchema(fields...), nil
}

// ToRecord returns a record batch sharing the table's buffers.
func ToRecord(t *table.Table, md *arrow.Metadata) arrow.Record {
	cols := make([]arrow.Array, t.Width())
	for i, c := range t.Columns() {
		cols[i] = ToArrow(c.Data())
	}
	rec := arrowarray.NewRecord(ToArrowSchema(t.Schema(), md), cols, int64(t.Len()))
	for _, c := range cols {
		c.Release()
	}
	return rec
}

// FromRecords stacks record batches sharing schema into one table. A single
// batch is converted without copying; several are concatenated on mem.
func FromRecords(mem memory.Allocator, schema *arrow.Schema, recs []arrow.Record) (*table.Table, error) {
	if _, err := FromArrowSchema(schema); err != nil {
		return nil, err
	}

	cols := make([]*table.Column, 0, schema.NumFields())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for i, f := range schema.Fields() {
		arr, err := stackColumn(mem, f, i, recs)
		if err != nil {
			return nil, errors.Attribute(err, f.Name)
		}
		cols = append(cols, table.NewColumn(f.Name, arr))
		arr.Release()
	}
	return table.NewWithAllocator(mem, cols...)
}

func stackColumn(mem memory.Allocator, f arrow.Field, i int, recs []arrow.Record) (array.Array, error) {
	switch len(recs) {
	case 0:
		t, err := FromArrowType(f.Type)
		if err != nil {
			return nil, err
		}
		return array.MakeArrayOfNull(mem, t, 0)
	case 1:
		return FromArrow(recs[0].Column(i))
	}

	parts := make([]arrow.Array, len(recs))
	for k, rec := range recs {
		if !arrow.TypeEqual(rec.Column(i).DataType(), f.Type) {
			return nil, errors.NewIncompatibleSchema("FromRecords",
				fmt.Sprintf("batch %d has type %s, want %s", k, rec.Column(i).DataType(), f.Type))
		}
		parts[k] = rec.Column(i)
	}
	merged, err := arrowarray.Concatenate(parts, mem)
	if err != nil {
		return nil, err
	}
	defer merged.Release()
	return FromArrow(merged)
}
