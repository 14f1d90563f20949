// Package tabletest builds small tables for tests.
package tabletest

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/testutil"
)

// ColDef describes one column for Build.
type ColDef struct {
	Name   string
	Type   datatype.Type
	Values []any
}

// Col is shorthand for a ColDef.
func Col(name string, t datatype.Type, values ...any) ColDef {
	return ColDef{Name: name, Type: t, Values: values}
}

// Build builds a table on mem, one column per definition.
func Build(tb testing.TB, mem memory.Allocator, defs ...ColDef) *table.Table {
	tb.Helper()
	cols := make([]*table.Column, len(defs))
	for i, s := range defs {
		arr := testutil.BuildArray(tb, mem, s.Type, s.Values...)
		cols[i] = table.NewColumn(s.Name, arr)
		arr.Release()
	}
	tbl, err := table.NewWithAllocator(mem, cols...)
	for _, c := range cols {
		c.Release()
	}
	require.NoError(tb, err)
	return tbl
}

// Values reads the named column of tbl back as Go values.
func Values(tb testing.TB, tbl *table.Table, name string) []any {
	tb.Helper()
	c, ok := tbl.Column(name)
	require.True(tb, ok, "column %q not found", name)
	return testutil.Values(c.Data())
}

// People is a five-row table with a nullable int64 age, a utf8 name and a
// float64 score.
func People(tb testing.TB, mem memory.Allocator) *table.Table {
	tb.Helper()
	return Build(tb, mem,
		Col("name", datatype.Utf8, "ann", "bob", "cy", "dee", "eve"),
		Col("age", datatype.Int64, int64(31), nil, int64(25), int64(31), int64(19)),
		Col("score", datatype.Float64, 1.5, 2.5, nil, 0.5, 4.0),
	)
}
