package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/goccy/go-json"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
)

// JSONFormat selects the JSON layout.
type JSONFormat int

const (
	// JSONArray is a single array of row objects.
	JSONArray JSONFormat = iota
	// JSONLines is one row object per line.
	JSONLines
)

// JSONOptions contains configuration options for JSON operations
type JSONOptions struct {
	Format JSONFormat
	// MaxRecords limits the rows read; 0 reads everything.
	MaxRecords int
	// Schema fixes column names, order and types when reading. Without it
	// columns are sorted by name and typed by inference.
	Schema *table.Schema
	Logger log.Logger
}

// DefaultJSONOptions returns default JSON options
func DefaultJSONOptions() JSONOptions {
	return JSONOptions{Format: JSONArray}
}

// JSONReader reads JSON rows into tables
type JSONReader struct {
	reader  io.Reader
	options JSONOptions
	mem     memory.Allocator
}

// NewJSONReader creates a new JSON reader with the specified options
func NewJSONReader(reader io.Reader, options JSONOptions, mem memory.Allocator) *JSONReader {
	return &JSONReader{reader: reader, options: options, mem: mem}
}

func (o JSONOptions) format() Format {
	if o.Format == JSONLines {
		return FormatJSONLines
	}
	return FormatJSON
}

// Read reads JSON data and returns a table.
func (r *JSONReader) Read() (*table.Table, error) {
	var (
		records []map[string]any
		err     error
	)
	switch r.options.Format {
	case JSONArray:
		records, err = r.readJSONArray()
	case JSONLines:
		records, err = r.readJSONLines()
	default:
		return nil, fmt.Errorf("unsupported JSON format: %d", r.options.Format)
	}
	if err != nil {
		return nil, err
	}
	if r.options.MaxRecords > 0 && len(records) > r.options.MaxRecords {
		records = records[:r.options.MaxRecords]
	}

	t, err := r.recordsToTable(records)
	if err != nil {
		return nil, err
	}
	logRead(r.options.Logger, r.options.format(), t)
	return t, nil
}

func (r *JSONReader) readJSONArray() ([]map[string]any, error) {
	dec := json.NewDecoder(r.reader)
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("unmarshaling JSON array: %w", err)
	}
	return records, nil
}

func (r *JSONReader) readJSONLines() ([]map[string]any, error) {
	scanner := bufio.NewScanner(r.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var records []map[string]any
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("unmarshaling JSON line %d: %w", lineNum, err)
		}
		records = append(records, record)

		if r.options.MaxRecords > 0 && len(records) >= r.options.MaxRecords {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning JSON lines: %w", err)
	}
	return records, nil
}

// recordsToTable converts decoded rows to a table.
func (r *JSONReader) recordsToTable(records []map[string]any) (*table.Table, error) {
	schema := r.options.Schema
	if schema == nil {
		schema = inferJSONSchema(records)
	}

	cols := make([]*table.Column, 0, schema.NumFields())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for _, f := range schema.Fields() {
		arr, err := buildJSONColumn(r.mem, f, records)
		if err != nil {
			return nil, errors.Attribute(err, f.Name)
		}
		cols = append(cols, table.NewColumn(f.Name, arr))
		arr.Release()
	}
	return table.NewWithAllocator(r.mem, cols...)
}

func buildJSONColumn(mem memory.Allocator, f datatype.Field, records []map[string]any) (array.Array, error) {
	b, err := array.NewBuilder(mem, f.Type)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	if err := b.Reserve(len(records)); err != nil {
		return nil, err
	}

	for i, rec := range records {
		v, err := fromJSONValue(rec[f.Name], f.Type)
		if err != nil {
			e := errors.NewInvalidInputError("ReadJSON", err.Error())
			e.Index = i
			return nil, e
		}
		if err := b.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// fromJSONValue converts a decoded JSON value into the form the builder
// for t accepts.
func fromJSONValue(v any, t datatype.Type) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t := t.(type) {
	case *datatype.NullType:
		return nil, fmt.Errorf("null column holds %v", v)
	case *datatype.BooleanType:
		switch v := v.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	case *datatype.NumericType:
		return jsonNumber(v, t.ID())
	case *datatype.StringType:
		switch v := v.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
		raw, err := json.Marshal(v)
		return string(raw), err
	case *datatype.Date32Type, *datatype.TimestampType:
		switch v := v.(type) {
		case json.Number:
			return jsonNumber(v, datatype.INT64)
		case string:
			return parseJSONTime(v)
		}
	case *datatype.ListType:
		items, ok := v.([]any)
		if !ok {
			break
		}
		out := make([]any, len(items))
		for i, item := range items {
			x, err := fromJSONValue(item, t.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case *datatype.StructType:
		obj, ok := v.(map[string]any)
		if !ok {
			break
		}
		out := make(map[string]any, t.NumFields())
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			x, err := fromJSONValue(obj[f.Name], f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = x
		}
		return out, nil
	case *datatype.DictionaryType:
		return fromJSONValue(v, t.Value)
	}
	return nil, fmt.Errorf("cannot read %T as %s", v, t)
}

func jsonNumber(v any, id datatype.ID) (any, error) {
	var s string
	switch v := v.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return nil, fmt.Errorf("expected a number, got %T", v)
	}

	switch {
	case datatype.IsSigned(id):
		return strconv.ParseInt(s, 10, 64)
	case datatype.IsUnsigned(id):
		return strconv.ParseUint(s, 10, 64)
	}
	return strconv.ParseFloat(s, 64)
}

func parseJSONTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(array.Date32Layout, s)
}

// inferJSONSchema types every column as int64, float64, bool or utf8.
// Integers widen to float64 when a column also holds fractions; any other
// mix, and any column holding objects or arrays, becomes utf8.
func inferJSONSchema(records []map[string]any) *table.Schema {
	names := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			names[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(names))
	for k := range names {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	fields := make([]datatype.Field, len(sorted))
	for i, name := range sorted {
		fields[i] = datatype.Field{Name: name, Type: inferJSONType(records, name), Nullable: true}
	}
	return table.NewSchema(fields...)
}

type dataTypeFlags struct {
	hasInt    bool
	hasFloat  bool
	hasBool   bool
	hasString bool
}

func inferJSONType(records []map[string]any, name string) datatype.Type {
	var flags dataTypeFlags
	for _, rec := range records {
		switch v := rec[name].(type) {
		case nil:
		case bool:
			flags.hasBool = true
		case json.Number:
			if strings.ContainsAny(v.String(), ".eE") {
				flags.hasFloat = true
			} else {
				flags.hasInt = true
			}
		default:
			flags.hasString = true
		}
	}

	numeric := flags.hasInt || flags.hasFloat
	switch {
	case flags.hasString, numeric && flags.hasBool:
		return datatype.Utf8
	case flags.hasFloat:
		return datatype.Float64
	case flags.hasInt:
		return datatype.Int64
	case flags.hasBool:
		return datatype.Boolean
	}
	return datatype.Utf8
}

// JSONWriter writes tables as JSON rows
type JSONWriter struct {
	writer  io.Writer
	options JSONOptions
}

// NewJSONWriter creates a new JSON writer with the specified options
func NewJSONWriter(writer io.Writer, options JSONOptions) *JSONWriter {
	return &JSONWriter{writer: writer, options: options}
}

// Write writes the table as row objects whose keys follow column order.
// Nulls are written as null, temporal values as their tick counts and
// dictionary values resolved.
func (w *JSONWriter) Write(t *table.Table) error {
	if w.options.Format != JSONArray && w.options.Format != JSONLines {
		return fmt.Errorf("unsupported JSON format: %d", w.options.Format)
	}

	keys := make([][]byte, t.Width())
	for j, name := range t.ColumnNames() {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[j] = k
	}

	bw := bufio.NewWriter(w.writer)
	if w.options.Format == JSONArray {
		bw.WriteByte('[')
	}
	cols := t.Columns()
	for i := 0; i < t.Len(); i++ {
		if i > 0 && w.options.Format == JSONArray {
			bw.WriteByte(',')
		}
		bw.WriteByte('{')
		for j, c := range cols {
			if j > 0 {
				bw.WriteByte(',')
			}
			v, err := json.Marshal(c.Data().GetOneForMarshal(i))
			if err != nil {
				return errors.NewInvalidInputError("WriteJSON", err.Error()).WithColumn(c.Name())
			}
			bw.Write(keys[j])
			bw.WriteByte(':')
			bw.Write(v)
		}
		bw.WriteByte('}')
		if w.options.Format == JSONLines {
			bw.WriteByte('\n')
		}
	}
	if w.options.Format == JSONArray {
		bw.WriteByte(']')
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	logWrite(w.options.Logger, w.options.format(), t)
	return nil
}
