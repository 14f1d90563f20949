package io_test

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/io"
	"github.com/paveg/colframe/internal/table/tabletest"
	"github.com/paveg/colframe/internal/testutil"
)

func TestJSONRoundTrip(t *testing.T) {
	for _, format := range []io.JSONFormat{io.JSONArray, io.JSONLines} {
		mem := testutil.SetupMemoryTest(t)

		src := nestedTable(t, mem.Allocator)

		opts := io.DefaultJSONOptions()
		opts.Format = format

		var buf bytes.Buffer
		require.NoError(t, io.NewJSONWriter(&buf, opts).Write(src))

		opts.Schema = src.Schema()
		got, err := io.NewJSONReader(&buf, opts, mem.Allocator).Read()
		require.NoError(t, err)

		assertTablesEqual(t, src, got)
		got.Release()
		src.Release()
		mem.Release()
	}
}

func TestJSONWriter(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	src := tabletest.Build(t, mem.Allocator,
		tabletest.Col("b", datatype.Int64, int64(1), nil),
		tabletest.Col("a", datatype.DictionaryOf(datatype.Int8, datatype.Utf8), "x", "y"),
	)
	defer src.Release()

	t.Run("array keeps column order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, io.NewJSONWriter(&buf, io.DefaultJSONOptions()).Write(src))
		assert.Equal(t, `[{"b":1,"a":"x"},{"b":null,"a":"y"}]`, buf.String())
	})

	t.Run("lines", func(t *testing.T) {
		opts := io.DefaultJSONOptions()
		opts.Format = io.JSONLines
		var buf bytes.Buffer
		require.NoError(t, io.NewJSONWriter(&buf, opts).Write(src))
		assert.Equal(t, "{\"b\":1,\"a\":\"x\"}\n{\"b\":null,\"a\":\"y\"}\n", buf.String())
	})
}

func TestJSONReaderInference(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	in := `[
		{"name": "ann", "age": 31, "score": 1, "ok": true, "mixed": 1},
		{"name": "bob", "score": 2.5, "ok": false, "mixed": "two", "extra": {"k": 1}}
	]`
	got, err := io.NewJSONReader(strings.NewReader(in), io.DefaultJSONOptions(), mem.Allocator).Read()
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, []string{"age", "extra", "mixed", "name", "ok", "score"}, got.ColumnNames())

	schema := got.Schema()
	want := map[string]datatype.Type{
		"age":   datatype.Int64,
		"extra": datatype.Utf8,
		"mixed": datatype.Utf8,
		"name":  datatype.Utf8,
		"ok":    datatype.Boolean,
		"score": datatype.Float64,
	}
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		assert.True(t, datatype.Equal(want[f.Name], f.Type), "%s: %s", f.Name, f.Type)
	}

	assert.Equal(t, []any{int64(31), nil}, tabletest.Values(t, got, "age"))
	assert.Equal(t, []any{1.0, 2.5}, tabletest.Values(t, got, "score"))
	assert.Equal(t, []any{"1", "two"}, tabletest.Values(t, got, "mixed"))
	assert.Equal(t, []any{nil, `{"k":1}`}, tabletest.Values(t, got, "extra"))
}

func TestJSONReader(t *testing.T) {
	t.Run("lines skip blank lines", func(t *testing.T) {
		mem := testutil.SetupMemoryTest(t)
		defer mem.Release()

		opts := io.DefaultJSONOptions()
		opts.Format = io.JSONLines
		in := "{\"n\": 1}\n\n{\"n\": 2}\n"
		got, err := io.NewJSONReader(strings.NewReader(in), opts, mem.Allocator).Read()
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, []any{int64(1), int64(2)}, tabletest.Values(t, got, "n"))
	})

	t.Run("max records", func(t *testing.T) {
		mem := testutil.SetupMemoryTest(t)
		defer mem.Release()

		opts := io.DefaultJSONOptions()
		opts.MaxRecords = 2
		got, err := io.NewJSONReader(strings.NewReader(`[{"n":1},{"n":2},{"n":3}]`), opts, mem.Allocator).Read()
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, 2, got.Len())
	})

	t.Run("temporal from strings", func(t *testing.T) {
		mem := testutil.SetupMemoryTest(t)
		defer mem.Release()

		opts := io.DefaultJSONOptions()
		opts.Schema = datatypeSchema(
			"day", datatype.Date32,
			"ts", datatype.TimestampOf(datatype.Second, "UTC"),
		)
		in := `[{"day": "1970-01-03", "ts": "1970-01-01T00:01:00Z"}]`
		got, err := io.NewJSONReader(strings.NewReader(in), opts, mem.Allocator).Read()
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, []any{int32(2)}, tabletest.Values(t, got, "day"))
		assert.Equal(t, []any{int64(60)}, tabletest.Values(t, got, "ts"))
	})

	t.Run("bad value names row and column", func(t *testing.T) {
		mem := testutil.SetupMemoryTest(t)
		defer mem.Release()

		opts := io.DefaultJSONOptions()
		opts.Schema = datatypeSchema("n", datatype.Int32)
		_, err := io.NewJSONReader(strings.NewReader(`[{"n":1},{"n":"x"}]`), opts, mem.Allocator).Read()
		require.Error(t, err)

		var e *errors.Error
		require.True(t, stderrors.As(err, &e))
		assert.Equal(t, "n", e.Column)
		assert.Equal(t, 1, e.Index)
	})

	t.Run("malformed", func(t *testing.T) {
		mem := testutil.SetupMemoryTest(t)
		defer mem.Release()

		_, err := io.NewJSONReader(strings.NewReader(`[{"n":1}`), io.DefaultJSONOptions(), mem.Allocator).Read()
		assert.Error(t, err)
	})
}
