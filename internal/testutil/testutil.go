// Package testutil provides common testing utilities for colframe packages.
//
// It consolidates the patterns shared by most tests:
// - allocator setup with a leak check on release
// - building arrays from plain Go values
// - reading arrays back as plain Go values
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/datatype"
)

// TestMemoryContext provides a checked allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator *memory.CheckedAllocator
	cleanup   func()
}

// Release asserts that every byte taken from the allocator was returned.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked allocator for a test. Release the
// context with defer after every array built from it.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// BuildArray builds an array of type t from Go values; nil appends a null.
// Values are passed to the builder's AppendValue, so nested types take
// slices and map[string]any.
func BuildArray(tb testing.TB, mem memory.Allocator, t datatype.Type, values ...any) array.Array {
	tb.Helper()
	b, err := array.NewBuilder(mem, t)
	require.NoError(tb, err)
	defer b.Release()

	for _, v := range values {
		require.NoError(tb, b.AppendValue(v), "append %v", v)
	}
	arr, err := b.Finish()
	require.NoError(tb, err)
	return arr
}

// Values reads arr back through GetOneForMarshal.
func Values(arr array.Array) []any {
	out := make([]any, arr.Len())
	for i := range out {
		out[i] = arr.GetOneForMarshal(i)
	}
	return out
}
