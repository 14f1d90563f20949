// Package io reads and writes colframe tables.
//
// Every format implements TableReader and TableWriter. The Arrow IPC,
// Parquet and CSV serializers go through arrow-go via the interop package;
// JSON uses goccy/go-json and the BSON wire format uses the mongo-driver
// bson codec.
//
// Round trip: reading what a writer produced yields a table with the same
// column names, types and values, nulls included. Arrow IPC, Parquet and
// BSON record the colframe schema in the output. CSV and JSON need the
// schema passed back through their options; without it they infer types.
//
// Memory management: tables returned by readers must be released.
package io

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/logging"
	cfmemory "github.com/paveg/colframe/internal/memory"
	"github.com/paveg/colframe/internal/table"
)

// TableReader reads one table from a source.
type TableReader interface {
	// Read reads the whole source and returns it as a table.
	Read() (*table.Table, error)
}

// TableWriter writes a table to a destination.
type TableWriter interface {
	// Write encodes t to the destination.
	Write(t *table.Table) error
}

// Format names a serialization format.
type Format string

const (
	FormatIPC       Format = "arrow"
	FormatIPCStream Format = "arrows"
	FormatParquet   Format = "parquet"
	FormatCSV       Format = "csv"
	FormatJSON      Format = "json"
	FormatJSONLines Format = "jsonl"
	FormatBSON      Format = "bson"
)

var formats = []Format{FormatIPC, FormatIPCStream, FormatParquet, FormatCSV, FormatJSON, FormatJSONLines, FormatBSON}

// ParseFormat parses a format name. "feather" is accepted for FormatIPC and
// "ndjson" for FormatJSONLines.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	switch name {
	case "feather", "ipc":
		return FormatIPC, nil
	case "ndjson":
		return FormatJSONLines, nil
	}
	for _, f := range formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %q without an extension", path)
	}
	return ParseFormat(ext)
}

// NewReader returns a reader for format f with default options.
func NewReader(f Format, r io.Reader, mem memory.Allocator, logger log.Logger) (TableReader, error) {
	switch f {
	case FormatIPC, FormatIPCStream:
		opts := DefaultIPCOptions()
		opts.Stream, opts.Logger = f == FormatIPCStream, logger
		return NewIPCReader(r, opts, mem), nil
	case FormatParquet:
		opts := DefaultParquetOptions()
		opts.Logger = logger
		return NewParquetReader(r, opts, mem), nil
	case FormatCSV:
		opts := DefaultCSVOptions()
		opts.Logger = logger
		return NewCSVReader(r, opts, mem), nil
	case FormatJSON, FormatJSONLines:
		opts := DefaultJSONOptions()
		opts.Logger = logger
		if f == FormatJSONLines {
			opts.Format = JSONLines
		}
		return NewJSONReader(r, opts, mem), nil
	case FormatBSON:
		return NewBSONReader(r, BSONOptions{Logger: logger}, mem), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// NewWriter returns a writer for format f with default options.
func NewWriter(f Format, w io.Writer, logger log.Logger) (TableWriter, error) {
	switch f {
	case FormatIPC, FormatIPCStream:
		opts := DefaultIPCOptions()
		opts.Stream, opts.Logger = f == FormatIPCStream, logger
		return NewIPCWriter(w, opts), nil
	case FormatParquet:
		opts := DefaultParquetOptions()
		opts.Logger = logger
		return NewParquetWriter(w, opts), nil
	case FormatCSV:
		opts := DefaultCSVOptions()
		opts.Logger = logger
		return NewCSVWriter(w, opts), nil
	case FormatJSON, FormatJSONLines:
		opts := DefaultJSONOptions()
		opts.Logger = logger
		if f == FormatJSONLines {
			opts.Format = JSONLines
		}
		return NewJSONWriter(w, opts), nil
	case FormatBSON:
		return NewBSONWriter(w, BSONOptions{Logger: logger}), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// logWrite and logRead report one finished operation at debug level.
func logWrite(logger log.Logger, format Format, t *table.Table) {
	var footprint int64
	for _, c := range t.Columns() {
		footprint += cfmemory.BufferFootprint(c.Data())
	}
	level.Debug(logging.OrNop(logger)).Log(
		"msg", "wrote table", "format", format, "rows", t.Len(), "columns", t.Width(), "bytes", footprint)
}

func logRead(logger log.Logger, format Format, t *table.Table) {
	level.Debug(logging.OrNop(logger)).Log(
		"msg", "read table", "format", format, "rows", t.Len(), "columns", t.Width())
}

// defaults is the configuration the Default*Options constructors read.
func defaults() config.Config {
	return config.GetGlobalConfig().WithDefaults()
}
