package io

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"

	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/interop"
	"github.com/paveg/colframe/internal/table"
)

// IPCOptions contains configuration options for Arrow IPC operations
type IPCOptions struct {
	// Stream selects the streaming format instead of the random-access
	// file format (Feather v2).
	Stream bool
	// Compression of record batch bodies: "none", "lz4" or "zstd"
	Compression string
	Logger      log.Logger
}

// DefaultIPCOptions returns file-format options with the configured
// compression.
func DefaultIPCOptions() IPCOptions {
	return IPCOptions{Compression: defaults().IPCCompression}
}

func (o IPCOptions) format() Format {
	if o.Stream {
		return FormatIPCStream
	}
	return FormatIPC
}

// IPCReader reads Arrow IPC data into tables
type IPCReader struct {
	reader  io.Reader
	options IPCOptions
	mem     memory.Allocator
}

// NewIPCReader creates a new IPC reader with the specified options
func NewIPCReader(reader io.Reader, options IPCOptions, mem memory.Allocator) *IPCReader {
	return &IPCReader{reader: reader, options: options, mem: mem}
}

// Read reads every record batch and stacks them into one table.
func (r *IPCReader) Read() (*table.Table, error) {
	var (
		schema *arrow.Schema
		recs   []arrow.Record
		err    error
	)
	if r.options.Stream {
		schema, recs, err = r.readStream()
	} else {
		schema, recs, err = r.readFile()
	}
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	if err != nil {
		return nil, err
	}

	t, err := interop.FromRecords(r.mem, schema, recs)
	if err != nil {
		return nil, err
	}
	raw, ok := schema.Metadata().GetValue(schemaKey)
	if t, err = restoreSchema(t, raw, ok); err != nil {
		return nil, err
	}
	logRead(r.options.Logger, r.options.format(), t)
	return t, nil
}

// readFile reads the stream embedded in the file format, between the
// leading magic and the footer. arrow's FileReader never releases the
// dictionaries it loads, which the stream reader does on Release.
func (r *IPCReader) readFile() (*arrow.Schema, []arrow.Record, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading data: %w", err)
	}
	// magic, padding to 8 bytes, footer length and trailing magic
	const minSize = 8 + 4 + 6
	if len(data) < minSize || !bytes.HasPrefix(data, ipc.Magic) || !bytes.HasSuffix(data, ipc.Magic) {
		return nil, nil, errors.NewInvalidInputError("ReadIPC", "input is not an Arrow IPC file")
	}
	return r.readMessages(bytes.NewReader(data[8:]))
}

func (r *IPCReader) readStream() (*arrow.Schema, []arrow.Record, error) {
	return r.readMessages(r.reader)
}

func (r *IPCReader) readMessages(src io.Reader) (*arrow.Schema, []arrow.Record, error) {
	sr, err := ipc.NewReader(src, ipc.WithAllocator(r.mem))
	if err != nil {
		return nil, nil, fmt.Errorf("creating IPC reader: %w", err)
	}
	defer sr.Release()

	var recs []arrow.Record
	for sr.Next() {
		rec := sr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := sr.Err(); err != nil {
		return nil, recs, fmt.Errorf("reading record batch: %w", err)
	}
	return sr.Schema(), recs, nil
}

// IPCWriter writes tables in Arrow IPC format
type IPCWriter struct {
	writer  io.Writer
	options IPCOptions
}

// NewIPCWriter creates a new IPC writer with the specified options
func NewIPCWriter(writer io.Writer, options IPCOptions) *IPCWriter {
	return &IPCWriter{writer: writer, options: options}
}

// Write encodes t as a single record batch. The buffers are handed to the
// IPC encoder without copying.
func (w *IPCWriter) Write(t *table.Table) error {
	md, err := schemaMetadata(t)
	if err != nil {
		return err
	}
	rec := interop.ToRecord(t, &md)
	defer rec.Release()

	opts := []ipc.Option{ipc.WithSchema(rec.Schema()), ipc.WithAllocator(t.Allocator())}
	switch w.options.Compression {
	case "lz4":
		opts = append(opts, ipc.WithLZ4())
	case "zstd":
		opts = append(opts, ipc.WithZstd())
	case "", "none":
	default:
		return fmt.Errorf("unsupported IPC compression %q", w.options.Compression)
	}

	var enc interface {
		Write(arrow.Record) error
		Close() error
	}
	if w.options.Stream {
		enc = ipc.NewWriter(w.writer, opts...)
	} else {
		fw, err := ipc.NewFileWriter(w.writer, opts...)
		if err != nil {
			return fmt.Errorf("creating IPC file writer: %w", err)
		}
		enc = fw

		detached, err := detachDictionaries(rec)
		if err != nil {
			return err
		}
		defer detached.Release()
		rec = detached
	}

	if err := enc.Write(rec); err != nil {
		_ = enc.Close()
		return fmt.Errorf("writing record batch: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing IPC writer: %w", err)
	}
	logWrite(w.options.Logger, w.options.format(), t)
	return nil
}

// detachDictionaries returns rec with every dictionary copied onto the Go
// allocator. arrow's FileWriter keeps a reference to the last dictionary of
// each field after Close, which would otherwise pin the table's buffers.
func detachDictionaries(rec arrow.Record) (arrow.Record, error) {
	cols := make([]arrow.Array, 0, rec.NumCols())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for _, col := range rec.Columns() {
		d, err := detachData(col.Data())
		if err != nil {
			return nil, err
		}
		cols = append(cols, arrowarray.MakeFromData(d))
		d.Release()
	}
	return arrowarray.NewRecord(rec.Schema(), cols, rec.NumRows()), nil
}

func detachData(d arrow.ArrayData) (arrow.ArrayData, error) {
	if d.DataType().ID() == arrow.DICTIONARY {
		dict := arrowarray.MakeFromData(d.Dictionary())
		defer dict.Release()
		cp, err := arrowarray.Concatenate([]arrow.Array{dict}, memory.DefaultAllocator)
		if err != nil {
			return nil, fmt.Errorf("copying dictionary: %w", err)
		}
		defer cp.Release()
		return arrowarray.NewDataWithDictionary(d.DataType(), d.Len(), d.Buffers(), d.NullN(), d.Offset(),
			cp.Data().(*arrowarray.Data)), nil
	}

	children := make([]arrow.ArrayData, 0, len(d.Children()))
	defer func() {
		for _, c := range children {
			c.Release()
		}
	}()
	for _, c := range d.Children() {
		cd, err := detachData(c)
		if err != nil {
			return nil, err
		}
		children = append(children, cd)
	}
	return arrowarray.NewData(d.DataType(), d.Len(), d.Buffers(), children, d.NullN(), d.Offset()), nil
}
