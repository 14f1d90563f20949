package array

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// NumericValue is the set of Go types backing primitive arrays.
type NumericValue interface {
	constraints.Integer | constraints.Float
}

// Offset is the set of offset widths for variable-length arrays.
type Offset interface {
	~int32 | ~int64
}

const minBuilderCapacity = 1 << 5

// reinterpret views b as a slice of T without copying.
func reinterpret[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/int(unsafe.Sizeof(zero)))
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func maxOffsetOf[O Offset]() int64 {
	if sizeOf[O]() == 4 {
		return 1<<31 - 1
	}
	return 1<<63 - 1
}
