package main

import (
	"io"
	"log"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	cfio "github.com/paveg/colframe/internal/io"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/version"
)

type Output interface {
	Schema(*table.Schema)
	Rows(t *table.Table, limit int) error
	Version(version.BuildInfo)
	Text(string)
	Error(error)
}

type textOutput struct{}

func (textOutput) Schema(s *table.Schema) {
	tree := pterm.LeveledList{}
	var addChildren func(datatype.Type, int)
	addChildren = func(t datatype.Type, depth int) {
		switch t := t.(type) {
		case *datatype.StructType:
			for _, f := range t.Fields() {
				tree = append(tree, pterm.LeveledListItem{Level: depth, Text: f.String()})
				addChildren(f.Type, depth+1)
			}
		case *datatype.ListType:
			addChildren(t.Elem, depth)
		}
	}

	for _, f := range s.Fields() {
		tree = append(tree, pterm.LeveledListItem{Level: 0, Text: f.Name + ": " + f.Type.String()})
		addChildren(f.Type, 1)
	}
	node := putils.TreeFromLeveledList(tree)
	node.Text = "Schema, " + strconv.Itoa(s.NumFields()) + " columns"
	pterm.DefaultTree.WithRoot(node).Render()
}

func (textOutput) Rows(t *table.Table, limit int) error {
	n := min(limit, t.Len())
	data := pterm.TableData{t.ColumnNames()}
	cols := t.Columns()
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = cellText(c.Data(), i)
		}
		data = append(data, row)
	}

	if err := pterm.DefaultTable.
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render(); err != nil {
		return err
	}
	if n < t.Len() {
		pterm.Printfln("... %d of %d rows", n, t.Len())
	}
	return nil
}

func cellText(arr array.Array, i int) string {
	if arr.IsNull(i) {
		return "null"
	}
	return arr.ValueStr(i)
}

func (textOutput) Version(info version.BuildInfo) {
	pterm.Print(info.String())
}

func (textOutput) Text(val string) {
	pterm.Println(val)
}

func (textOutput) Error(err error) {
	pterm.Error.Println(err.Error())
}

type jsonOutput struct {
	w io.Writer
}

func (j jsonOutput) Schema(s *table.Schema) {
	fields := make([]datatype.FieldDescriptor, s.NumFields())
	for i, f := range s.Fields() {
		fields[i] = datatype.FieldDescriptor{Name: f.Name, Nullable: f.Nullable, Type: datatype.ToDescriptor(f.Type)}
	}
	j.encode(fields)
}

// Rows writes one JSON object per row.
func (j jsonOutput) Rows(t *table.Table, limit int) error {
	head, err := t.Slice(0, min(limit, t.Len()))
	if err != nil {
		return err
	}
	defer head.Release()

	opts := cfio.DefaultJSONOptions()
	opts.Format = cfio.JSONLines
	return cfio.NewJSONWriter(j.w, opts).Write(head)
}

func (j jsonOutput) Version(info version.BuildInfo) {
	j.encode(info)
}

func (j jsonOutput) Text(val string) {
	j.encode(struct {
		Message string `json:"message"`
	}{val})
}

func (j jsonOutput) Error(err error) {
	j.encode(struct {
		Error string `json:"error"`
	}{err.Error()})
}

func (j jsonOutput) encode(v any) {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}
