package io_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/io"
	"github.com/paveg/colframe/internal/testutil"
)

func TestBSONRoundTrip(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	src := nestedTable(t, mem.Allocator)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewBSONWriter(&buf, io.DefaultBSONOptions()).Write(src))

	got, err := io.NewBSONReader(&buf, io.DefaultBSONOptions(), mem.Allocator).Read()
	require.NoError(t, err)
	defer got.Release()

	assertTablesEqual(t, src, got)
}

func TestBSONSlicedTable(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	src := nestedTable(t, mem.Allocator)
	defer src.Release()
	view, err := src.Slice(1, 3)
	require.NoError(t, err)
	defer view.Release()

	var full, sliced bytes.Buffer
	require.NoError(t, io.NewBSONWriter(&full, io.DefaultBSONOptions()).Write(src))
	require.NoError(t, io.NewBSONWriter(&sliced, io.DefaultBSONOptions()).Write(view))
	assert.Less(t, sliced.Len(), full.Len())

	got, err := io.NewBSONReader(&sliced, io.DefaultBSONOptions(), mem.Allocator).Read()
	require.NoError(t, err)
	defer got.Release()

	assertTablesEqual(t, view, got)
}

func TestBSONReaderRejectsGarbage(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	_, err := io.NewBSONReader(bytes.NewBufferString("not bson"), io.DefaultBSONOptions(), mem.Allocator).Read()
	assert.Error(t, err)
}
