package io

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/interop"
	"github.com/paveg/colframe/internal/table"
)

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// NullToken is the text read and written as null
	NullToken string
	// ChunkSize is the number of rows decoded per record batch
	ChunkSize int
	// Schema fixes the column types when reading. Without it, types are
	// inferred from the data.
	Schema *table.Schema
	Logger log.Logger
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Header:    true,
		NullToken: defaults().CSVNullToken,
		ChunkSize: DefaultBatchSize,
	}
}

// CSVReader reads CSV data into tables
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{reader: reader, options: options, mem: mem}
}

// Read reads CSV data and returns a table. With a schema, columns whose
// type CSV cannot hold directly are read as text and cast.
func (r *CSVReader) Read() (*table.Table, error) {
	opts := []csv.Option{
		csv.WithAllocator(r.mem),
		csv.WithHeader(r.options.Header),
		csv.WithNullReader(true, r.options.NullToken),
		csv.WithChunk(max(r.options.ChunkSize, 1)),
	}
	if r.options.Delimiter != 0 {
		opts = append(opts, csv.WithComma(r.options.Delimiter))
	}
	if r.options.Comment != 0 {
		opts = append(opts, csv.WithComment(r.options.Comment))
	}

	var cr *csv.Reader
	if r.options.Schema != nil {
		storage, err := csvStorageSchema(r.options.Schema)
		if err != nil {
			return nil, err
		}
		cr = csv.NewReader(r.reader, storage, opts...)
	} else {
		cr = csv.NewInferringReader(r.reader, opts...)
	}
	defer cr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for cr.Next() {
		rec := cr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := cr.Err(); err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	schema := cr.Schema()
	if schema == nil {
		// Inference needs at least a header row.
		return table.NewWithAllocator(r.mem)
	}
	t, err := interop.FromRecords(r.mem, schema, recs)
	if err != nil {
		return nil, err
	}
	if r.options.Schema != nil {
		if t, err = conform(t, r.options.Schema); err != nil {
			return nil, err
		}
	}
	logRead(r.options.Logger, FormatCSV, t)
	return t, nil
}

// csvStorageSchema maps every flat type onto one the arrow CSV codec
// handles natively: booleans, numbers and utf8. Everything else travels as
// text.
func csvStorageSchema(s *table.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, s.NumFields())
	for i, f := range s.Fields() {
		t, err := csvStorageType(f.Type)
		if err != nil {
			return nil, errors.Attribute(err, f.Name)
		}
		fields[i] = arrow.Field{Name: f.Name, Type: interop.ToArrowType(t), Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

func csvStorageType(t datatype.Type) (datatype.Type, error) {
	switch datatype.KindOf(t) {
	case datatype.KindBool, datatype.KindPrimitive:
		return t, nil
	case datatype.KindList, datatype.KindStruct:
		return nil, errors.NewUnsupportedTypeError("CSV", t.String())
	case datatype.KindDictionary:
		return csvStorageType(t.(*datatype.DictionaryType).Value)
	}
	return datatype.Utf8, nil
}

// CSVWriter writes tables to CSV format
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{writer: writer, options: options}
}

// Write writes the table to CSV format. Temporal values are written in
// RFC 3339 form and dictionary columns as their values. Nested columns
// fail with UnsupportedType.
func (w *CSVWriter) Write(t *table.Table) error {
	storage, err := csvStorageSchema(t.Schema())
	if err != nil {
		return err
	}
	fields := make([]datatype.Field, storage.NumFields())
	for i, f := range storage.Fields() {
		ft, err := interop.FromArrowType(f.Type)
		if err != nil {
			return err
		}
		fields[i] = datatype.Field{Name: f.Name, Type: ft, Nullable: true}
	}
	text, err := t.CastTo(context.Background(), table.NewSchema(fields...))
	if err != nil {
		return err
	}
	defer text.Release()

	rec := interop.ToRecord(text, nil)
	defer rec.Release()

	opts := []csv.Option{
		csv.WithHeader(w.options.Header),
		csv.WithNullWriter(w.options.NullToken),
	}
	if w.options.Delimiter != 0 {
		opts = append(opts, csv.WithComma(w.options.Delimiter))
	}
	cw := csv.NewWriter(w.writer, rec.Schema(), opts...)
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	logWrite(w.options.Logger, FormatCSV, t)
	return nil
}
