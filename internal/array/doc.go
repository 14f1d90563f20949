// Package array implements colframe's immutable, typed, nullable arrays.
//
// An Array is a view over a Data: a type descriptor, a length, an offset and
// a set of reference-counted arrow-go buffers. Arrays are produced by a
// Builder's Finish (or by the cast engine) and never change afterwards, so
// they may be read from any number of goroutines.
//
// Slicing is zero-copy. NewSlice returns an array of the same variant whose
// Data shares the parent's buffers and only adjusts the offset; slicing a
// slice composes offsets on the same buffers. Every holder (array, slice,
// parent Data) keeps its own reference and the buffers are freed by the last
// Release.
//
// Buffer layouts follow the Arrow columnar format, which lets the interop
// package hand the very same buffers to arrow-go:
//
//	Null        [nil]
//	Bool        [validity, bits]
//	Primitive   [validity, values]
//	Temporal    [validity, values]
//	String      [validity, offsets, bytes]
//	List        [validity, offsets] + children[0]
//	Struct      [validity] + one child per field
//	Dictionary  [validity, indices] + dictionary
//
// A nil validity buffer means every element is valid.
//
// Null ordering: comparisons place nulls after every value by default
// (NullsLast); CompareOptions.NullPlacement selects NullsFirst.
package array
