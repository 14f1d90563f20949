package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-kit/log"

	"github.com/paveg/colframe/internal/interop"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/version"
)

// DefaultBatchSize is the default batch size for I/O operations
const DefaultBatchSize = 1024

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression type for Parquet files
	Compression string
	// BatchSize for reading/writing operations
	BatchSize int
	Logger    log.Logger
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: defaults().ParquetCompression,
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data into tables
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	return &ParquetReader{reader: reader, options: options, mem: mem}
}

// Read reads Parquet data and returns a table.
func (r *ParquetReader) Read() (*table.Table, error) {
	// Read all data into memory for Parquet reading
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data),
		file.WithReadProps(parquet.NewReaderProperties(r.mem)))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	readProps := pqarrow.ArrowReadProperties{BatchSize: int64(r.options.BatchSize)}
	arrowReader, err := pqarrow.NewFileReader(pqReader, readProps, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer tbl.Release()

	t, err := fromArrowTable(r.mem, tbl)
	if err != nil {
		return nil, err
	}
	var raw string
	found := false
	if v := pqReader.MetaData().KeyValueMetadata().FindValue(schemaKey); v != nil {
		raw, found = *v, true
	}
	if t, err = restoreSchema(t, raw, found); err != nil {
		return nil, err
	}
	logRead(r.options.Logger, FormatParquet, t)
	return t, nil
}

// fromArrowTable stacks the chunks of tbl into one table.
func fromArrowTable(mem memory.Allocator, tbl arrow.Table) (*table.Table, error) {
	tr := arrowarray.NewTableReader(tbl, max(tbl.NumRows(), 1))
	defer tr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for tr.Next() {
		rec := tr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}
	return interop.FromRecords(mem, tbl.Schema(), recs)
}

// ParquetWriter writes tables to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{writer: writer, options: options}
}

// Write writes the table to Parquet format.
func (w *ParquetWriter) Write(t *table.Table) error {
	codec, err := parquetCodec(w.options.Compression)
	if err != nil {
		return err
	}
	raw, err := encodeSchema(t.Schema())
	if err != nil {
		return err
	}

	rec := interop.ToRecord(t, nil)
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithBatchSize(int64(max(w.options.BatchSize, 1))),
		parquet.WithAllocator(t.Allocator()),
		parquet.WithCreatedBy(version.UserAgent()),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(t.Allocator()),
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(rec.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}
	if err := writer.AppendKeyValueMetadata(schemaKey, raw); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing schema metadata: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	logWrite(w.options.Logger, FormatParquet, t)
	return nil
}

func parquetCodec(name string) (compress.Compression, error) {
	switch name {
	case "snappy", "":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	}
	return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression %q", name)
}
