package io

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
)

// BSONVersion is the wire format version written and accepted.
const BSONVersion = 1

// BSONOptions contains configuration options for the BSON wire format
type BSONOptions struct {
	Logger log.Logger
}

// DefaultBSONOptions returns default BSON options
func DefaultBSONOptions() BSONOptions {
	return BSONOptions{}
}

type wireTable struct {
	Version int          `bson:"version"`
	Length  int64        `bson:"length"`
	Columns []wireColumn `bson:"columns"`
}

type wireColumn struct {
	Name  string              `bson:"name"`
	Type  datatype.Descriptor `bson:"type"`
	Array wireArray           `bson:"array"`
}

// wireArray mirrors array.Data of a compacted array. A nil buffer stands
// for an absent one, such as the validity bitmap of an array without nulls.
type wireArray struct {
	Length     int64       `bson:"length"`
	NullCount  int64       `bson:"null_count"`
	Buffers    [][]byte    `bson:"buffers"`
	Children   []wireArray `bson:"children,omitempty"`
	Dictionary *wireArray  `bson:"dictionary,omitempty"`
}

// BSONReader decodes the BSON wire format
type BSONReader struct {
	reader  io.Reader
	options BSONOptions
	mem     memory.Allocator
}

// NewBSONReader creates a new BSON reader with the specified options
func NewBSONReader(reader io.Reader, options BSONOptions, mem memory.Allocator) *BSONReader {
	return &BSONReader{reader: reader, options: options, mem: mem}
}

// Read decodes one table document. Every column is validated before it is
// returned.
func (r *BSONReader) Read() (*table.Table, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}
	var doc wireTable
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding BSON document: %w", err)
	}
	if doc.Version != BSONVersion {
		return nil, errors.NewInvalidInputError("ReadBSON",
			fmt.Sprintf("unsupported wire format version %d", doc.Version))
	}

	cols := make([]*table.Column, 0, len(doc.Columns))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for _, wc := range doc.Columns {
		arr, err := r.decodeColumn(wc)
		if err != nil {
			return nil, errors.Attribute(err, wc.Name)
		}
		if int64(arr.Len()) != doc.Length {
			arr.Release()
			return nil, errors.NewMismatchedLengthError("ReadBSON", arr.Len(), int(doc.Length)).WithColumn(wc.Name)
		}
		cols = append(cols, table.NewColumn(wc.Name, arr))
		arr.Release()
	}

	t, err := table.NewWithAllocator(r.mem, cols...)
	if err != nil {
		return nil, err
	}
	logRead(r.options.Logger, FormatBSON, t)
	return t, nil
}

func (r *BSONReader) decodeColumn(wc wireColumn) (array.Array, error) {
	dt, err := datatype.FromDescriptor(wc.Type)
	if err != nil {
		return nil, errors.NewInvalidInputError("ReadBSON", err.Error())
	}
	d, err := r.decodeData(dt, wc.Array)
	if err != nil {
		return nil, err
	}
	defer d.Release()
	if err := array.ValidateData(d); err != nil {
		return nil, err
	}
	return array.MakeFromData(d), nil
}

// childTypes lists the types of the children Data of dt.
func childTypes(dt datatype.Type) []datatype.Type {
	switch dt := dt.(type) {
	case *datatype.ListType:
		return []datatype.Type{dt.Elem}
	case *datatype.StructType:
		out := make([]datatype.Type, dt.NumFields())
		for i := range out {
			out[i] = dt.Field(i).Type
		}
		return out
	}
	return nil
}

func (r *BSONReader) decodeData(dt datatype.Type, wa wireArray) (*array.Data, error) {
	buffers := make([]*memory.Buffer, len(wa.Buffers))
	defer func() {
		for _, b := range buffers {
			if b != nil {
				b.Release()
			}
		}
	}()
	for i, raw := range wa.Buffers {
		if raw == nil {
			continue
		}
		buf := memory.NewResizableBuffer(r.mem)
		buf.Resize(len(raw))
		copy(buf.Bytes(), raw)
		buffers[i] = buf
	}

	if dict, ok := dt.(*datatype.DictionaryType); ok {
		if wa.Dictionary == nil {
			return nil, errors.NewInvalidInputError("ReadBSON", "dictionary array has no dictionary")
		}
		dd, err := r.decodeData(dict.Value, *wa.Dictionary)
		if err != nil {
			return nil, err
		}
		defer dd.Release()
		return array.NewDataWithDictionary(dt, int(wa.Length), buffers, int(wa.NullCount), 0, dd), nil
	}

	types := childTypes(dt)
	if len(types) != len(wa.Children) {
		return nil, errors.NewInvalidInputError("ReadBSON",
			fmt.Sprintf("%s array has %d children, want %d", dt, len(wa.Children), len(types)))
	}
	children := make([]*array.Data, 0, len(types))
	defer func() {
		for _, c := range children {
			c.Release()
		}
	}()
	for i, ct := range types {
		cd, err := r.decodeData(ct, wa.Children[i])
		if err != nil {
			return nil, err
		}
		children = append(children, cd)
	}
	return array.NewData(dt, int(wa.Length), buffers, children, int(wa.NullCount), 0), nil
}

// BSONWriter encodes the BSON wire format
type BSONWriter struct {
	writer  io.Writer
	options BSONOptions
}

// NewBSONWriter creates a new BSON writer with the specified options
func NewBSONWriter(writer io.Writer, options BSONOptions) *BSONWriter {
	return &BSONWriter{writer: writer, options: options}
}

// Write encodes t as one document. Sliced columns are compacted first so
// only the bytes inside the view are written.
func (w *BSONWriter) Write(t *table.Table) error {
	doc := wireTable{Version: BSONVersion, Length: int64(t.Len())}
	for _, c := range t.Columns() {
		compact, err := array.Compact(t.Allocator(), c.Data())
		if err != nil {
			return errors.Attribute(err, c.Name())
		}
		doc.Columns = append(doc.Columns, wireColumn{
			Name:  c.Name(),
			Type:  datatype.ToDescriptor(c.DataType()),
			Array: encodeData(compact.Data()),
		})
		compact.Release()
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding BSON document: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return err
	}
	logWrite(w.options.Logger, FormatBSON, t)
	return nil
}

func encodeData(d *array.Data) wireArray {
	wa := wireArray{
		Length:    int64(d.Len()),
		NullCount: int64(d.NullN()),
		Buffers:   make([][]byte, len(d.Buffers())),
	}
	for i, b := range d.Buffers() {
		if b != nil {
			wa.Buffers[i] = append([]byte{}, b.Bytes()...)
		}
	}
	for _, c := range d.Children() {
		wa.Children = append(wa.Children, encodeData(c))
	}
	if dict := d.Dictionary(); dict != nil {
		dd := encodeData(dict)
		wa.Dictionary = &dd
	}
	return wa
}
