package io

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/testutil"
)

func int32Bytes(vs ...int32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func readWire(t *testing.T, doc wireTable) error {
	t.Helper()
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	tbl, err := NewBSONReader(bytes.NewReader(raw), DefaultBSONOptions(), mem.Allocator).Read()
	if err == nil {
		tbl.Release()
	}
	return err
}

func stringColumn(offsets []byte, values string) wireColumn {
	return wireColumn{
		Name: "s",
		Type: datatype.ToDescriptor(datatype.Utf8),
		Array: wireArray{
			Length:  2,
			Buffers: [][]byte{nil, offsets, []byte(values)},
		},
	}
}

func TestBSONReaderValidates(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		doc := wireTable{Version: BSONVersion, Length: 2, Columns: []wireColumn{
			stringColumn(int32Bytes(0, 3, 5), "annbo"),
		}}
		assert.NoError(t, readWire(t, doc))
	})

	t.Run("decreasing offsets", func(t *testing.T) {
		doc := wireTable{Version: BSONVersion, Length: 2, Columns: []wireColumn{
			stringColumn(int32Bytes(0, 5, 3), "annbo"),
		}}
		err := readWire(t, doc)
		require.Error(t, err)
		var e *errors.Error
		require.True(t, stderrors.As(err, &e))
		assert.Equal(t, "s", e.Column)
	})

	t.Run("offsets past the data", func(t *testing.T) {
		doc := wireTable{Version: BSONVersion, Length: 2, Columns: []wireColumn{
			stringColumn(int32Bytes(0, 3, 9), "annbo"),
		}}
		assert.Error(t, readWire(t, doc))
	})

	t.Run("length mismatch", func(t *testing.T) {
		doc := wireTable{Version: BSONVersion, Length: 3, Columns: []wireColumn{
			stringColumn(int32Bytes(0, 3, 5), "annbo"),
		}}
		err := readWire(t, doc)
		assert.True(t, stderrors.Is(err, errors.ErrMismatchedLength))
	})

	t.Run("unknown version", func(t *testing.T) {
		err := readWire(t, wireTable{Version: BSONVersion + 1})
		assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
	})

	t.Run("unknown type", func(t *testing.T) {
		doc := wireTable{Version: BSONVersion, Length: 0, Columns: []wireColumn{
			{Name: "d", Type: datatype.Descriptor{Type: "decimal"}},
		}}
		assert.Error(t, readWire(t, doc))
	})
}

func TestBSONReaderRejectsMalformed(t *testing.T) {
	column := func(typ datatype.Type, wa wireArray) wireTable {
		return wireTable{Version: BSONVersion, Length: wa.Length, Columns: []wireColumn{
			{Name: "c", Type: datatype.ToDescriptor(typ), Array: wa},
		}}
	}

	tests := []struct {
		name string
		doc  wireTable
		want error
	}{
		{
			"utf8 with only a validity slot",
			column(datatype.Utf8, wireArray{Length: 2, Buffers: [][]byte{nil}}),
			errors.ErrInvalidInput,
		},
		{
			"short int32 values",
			column(datatype.Int32, wireArray{Length: 3, Buffers: [][]byte{nil, int32Bytes(1)}}),
			errors.ErrInvalidInput,
		},
		{
			"short validity bitmap",
			column(datatype.Int32, wireArray{Length: 9, NullCount: 1, Buffers: [][]byte{{0xff}, int32Bytes(1, 2, 3, 4, 5, 6, 7, 8, 9)}}),
			errors.ErrInvalidInput,
		},
		{
			"null count without bitmap",
			column(datatype.Int32, wireArray{Length: 2, NullCount: 1, Buffers: [][]byte{nil, int32Bytes(1, 2)}}),
			errors.ErrInvalidInput,
		},
		{
			"null count disagrees with bitmap",
			column(datatype.Int32, wireArray{Length: 2, NullCount: 0, Buffers: [][]byte{{0b01}, int32Bytes(1, 2)}}),
			errors.ErrInvalidInput,
		},
		{
			"struct without buffers",
			column(datatype.StructOf(datatype.Field{Name: "x", Type: datatype.Int32}), wireArray{
				Length:   1,
				Children: []wireArray{{Length: 1, Buffers: [][]byte{nil, int32Bytes(7)}}},
			}),
			errors.ErrInvalidInput,
		},
		{
			"list without child",
			column(datatype.ListOf(datatype.Int32), wireArray{Length: 1, Buffers: [][]byte{nil, int32Bytes(0, 1)}}),
			errors.ErrInvalidInput,
		},
		{
			"dictionary index out of range",
			column(datatype.DictionaryOf(datatype.Int8, datatype.Utf8), wireArray{
				Length:     2,
				Buffers:    [][]byte{nil, {0, 4}},
				Dictionary: &wireArray{Length: 1, Buffers: [][]byte{nil, int32Bytes(0, 1), []byte("a")}},
			}),
			errors.ErrIndexOutOfRange,
		},
		{
			"dictionary with short indices",
			column(datatype.DictionaryOf(datatype.Int32, datatype.Utf8), wireArray{
				Length:     2,
				Buffers:    [][]byte{nil, {0}},
				Dictionary: &wireArray{Length: 1, Buffers: [][]byte{nil, int32Bytes(0, 1), []byte("a")}},
			}),
			errors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { err = readWire(t, tt.doc) })
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want), "%v", err)

			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, "c", e.Column)
		})
	}
}
