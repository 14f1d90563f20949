package table

import (
	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
)

// Column is a named array.
type Column struct {
	name string
	data array.Array
}

// NewColumn wraps arr under name. The column holds its own reference to arr.
func NewColumn(name string, arr array.Array) *Column {
	arr.Retain()
	return &Column{name: name, data: arr}
}

func (c *Column) Name() string            { return c.name }
func (c *Column) Data() array.Array       { return c.data }
func (c *Column) Len() int                { return c.data.Len() }
func (c *Column) NullN() int              { return c.data.NullN() }
func (c *Column) DataType() datatype.Type { return c.data.DataType() }
func (c *Column) Field() datatype.Field   { return datatype.Field{Name: c.name, Type: c.DataType(), Nullable: true} }
func (c *Column) Retain()                 { c.data.Retain() }
func (c *Column) Release()                { c.data.Release() }
func (c *Column) String() string          { return c.name + ": " + c.data.String() }
