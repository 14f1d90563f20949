package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
)

// Validate checks the structural invariants of arr: buffer sizes, offset
// monotonicity, child lengths and dictionary index ranges. Arrays built by
// this package always pass; arrays assembled from foreign buffers may not.
func Validate(arr Array) error {
	return validateData(arr.Data())
}

// ValidateData runs the checks of Validate on d before any Array is built
// over it, so decoders can reject malformed buffers without touching them.
func ValidateData(d *Data) error {
	return validateData(d)
}

func invalid(format string, args ...any) error {
	return errors.NewInvalidInputError("Validate", fmt.Sprintf(format, args...))
}

func validateData(d *Data) error {
	if d.length < 0 || d.offset < 0 {
		return invalid("negative length %d or offset %d", d.length, d.offset)
	}
	end := d.offset + d.length

	if d.dtype.ID() != datatype.NULL && len(d.buffers) > 0 && d.buffers[0] != nil {
		if need := bitutil.BytesForBits(int64(end)); int64(d.buffers[0].Len()) < need {
			return invalid("validity bitmap holds %d bytes, need %d", d.buffers[0].Len(), need)
		}
	}

	if err := validateNullCount(d); err != nil {
		return err
	}

	switch datatype.KindOf(d.dtype) {
	case datatype.KindNull:
		return nil
	case datatype.KindBool:
		if err := expectBuffers(d, 2); err != nil {
			return err
		}
		return checkBufferLen(d, 1, int(bitutil.BytesForBits(int64(end))))
	case datatype.KindPrimitive, datatype.KindTemporal:
		if err := expectBuffers(d, 2); err != nil {
			return err
		}
		return checkBufferLen(d, 1, end*datatype.ByteWidth(d.dtype))
	case datatype.KindString:
		if err := expectBuffers(d, 3); err != nil {
			return err
		}
		payload := 0
		if d.buffers[2] != nil {
			payload = d.buffers[2].Len()
		}
		return validateOffsets(d, payload)
	case datatype.KindList:
		if err := expectBuffers(d, 2); err != nil {
			return err
		}
		if len(d.children) != 1 {
			return invalid("list has %d children, want 1", len(d.children))
		}
		if err := validateOffsets(d, d.children[0].length); err != nil {
			return err
		}
		return validateData(d.children[0])
	case datatype.KindStruct:
		if err := expectBuffers(d, 1); err != nil {
			return err
		}
		st := d.dtype.(*datatype.StructType)
		if len(d.children) != st.NumFields() {
			return invalid("struct has %d children, want %d", len(d.children), st.NumFields())
		}
		for i, c := range d.children {
			if c.length < end {
				return errors.NewChildLengthMismatch("Validate", st.Field(i).Name, c.length, end)
			}
			if err := validateData(c); err != nil {
				return err
			}
		}
		return nil
	case datatype.KindDictionary:
		if err := expectBuffers(d, 2); err != nil {
			return err
		}
		if d.dictionary == nil {
			return invalid("dictionary array has no dictionary")
		}
		if err := checkBufferLen(d, 1, end*datatype.ByteWidth(d.dtype)); err != nil {
			return err
		}
		if err := validateData(d.dictionary); err != nil {
			return err
		}
		arr := MakeFromData(d).(*Dictionary)
		defer arr.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsValid(i) {
				if idx := arr.IndexAt(i); idx < 0 || idx >= d.dictionary.length {
					return errors.NewIndexOutOfRange("Validate", idx, d.dictionary.length)
				}
			}
		}
	}
	return nil
}

// validateNullCount checks a recorded null count against the bitmap. A
// deferred count is computed from the bitmap and always agrees.
func validateNullCount(d *Data) error {
	n := d.nulls.Load()
	if n == UnknownNullCount || d.dtype.ID() == datatype.NULL {
		return nil
	}
	counted := 0
	if len(d.buffers) > 0 && d.buffers[0] != nil {
		counted = d.length - bitutil.CountSetBits(d.buffers[0].Bytes(), d.offset, d.length)
	}
	if n != int64(counted) {
		return invalid("null count %d disagrees with validity bitmap holding %d nulls", n, counted)
	}
	return nil
}

func expectBuffers(d *Data, n int) error {
	if len(d.buffers) != n {
		return invalid("%s array has %d buffers, want %d", d.dtype, len(d.buffers), n)
	}
	return nil
}

func checkBufferLen(d *Data, i, need int) error {
	got := 0
	if d.buffers[i] != nil {
		got = d.buffers[i].Len()
	}
	if got < need {
		return invalid("%s buffer %d holds %d bytes, need %d", d.dtype, i, got, need)
	}
	return nil
}

func validateOffsets(d *Data, limit int) error {
	wide := d.dtype.ID() == datatype.LARGE_STRING || d.dtype.ID() == datatype.LARGE_LIST
	width := 4
	if wide {
		width = 8
	}
	end := d.offset + d.length
	if err := checkBufferLen(d, 1, (end+1)*width); err != nil {
		return err
	}

	offsetAt := func(i int) int64 {
		if wide {
			return reinterpret[int64](d.buffers[1].Bytes())[i]
		}
		return int64(reinterpret[int32](d.buffers[1].Bytes())[i])
	}
	prev := offsetAt(d.offset)
	if prev < 0 {
		return invalid("negative offset %d", prev)
	}
	for i := d.offset + 1; i <= end; i++ {
		cur := offsetAt(i)
		if cur < prev {
			return invalid("offsets decrease at %d: %d < %d", i, cur, prev)
		}
		prev = cur
	}
	if prev > int64(limit) {
		return invalid("last offset %d exceeds %d", prev, limit)
	}
	return nil
}
