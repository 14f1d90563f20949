// Package errors provides the error taxonomy shared by every colframe package.
// Each failure carries a Kind so callers can branch with errors.Is against the
// predefined sentinels, plus the operation name and, when relevant, the column
// and element index that triggered it.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindIndexOutOfRange
	KindBuilderOverflow
	KindDictionaryOverflow
	KindChildLengthMismatch
	KindBuilderFinished
	KindCastOverflow
	KindCastParseError
	KindIncompatibleSchema
	KindInvalidInput
	KindUnsupportedType
	KindColumnNotFound
	KindMismatchedLength
	KindInternal
)

var kindNames = [...]string{
	KindUnknown:             "Unknown",
	KindIndexOutOfRange:     "IndexOutOfRange",
	KindBuilderOverflow:     "BuilderOverflow",
	KindDictionaryOverflow:  "DictionaryOverflow",
	KindChildLengthMismatch: "ChildLengthMismatch",
	KindBuilderFinished:     "BuilderFinished",
	KindCastOverflow:        "CastOverflow",
	KindCastParseError:      "CastParseError",
	KindIncompatibleSchema:  "IncompatibleSchema",
	KindInvalidInput:        "InvalidInput",
	KindUnsupportedType:     "UnsupportedType",
	KindColumnNotFound:      "ColumnNotFound",
	KindMismatchedLength:    "MismatchedLength",
	KindInternal:            "Internal",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// NoIndex marks an Error that is not tied to a single element.
const NoIndex = -1

// Error represents standardized errors across all colframe operations
type Error struct {
	Op      string // Operation name (e.g., "Cast", "Finish", "Slice")
	Kind    Kind   // Failure class
	Column  string // Column name if applicable
	Index   int    // Element index if applicable, NoIndex otherwise
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Op + " operation failed"
	if e.Column != "" {
		msg += fmt.Sprintf(" on column '%s'", e.Column)
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" at index %d", e.Index)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
//
// A sentinel (an Error carrying only a Kind) matches every Error of that
// Kind. Any other target must agree on Op, Kind, Column and Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.isSentinel() {
		return e.Kind == t.Kind
	}
	return e.Op == t.Op && e.Kind == t.Kind && e.Column == t.Column && e.Message == t.Message
}

func (e *Error) isSentinel() bool {
	return e.Op == "" && e.Column == "" && e.Message == "" && e.Cause == nil
}

// WithColumn returns a copy of e attributed to column.
func (e *Error) WithColumn(column string) *Error {
	cp := *e
	cp.Column = column
	return &cp
}

// Attribute sets the column of the first *Error in err's chain when it has
// none yet. Other errors are returned unchanged.
func Attribute(err error, column string) error {
	var e *Error
	if stderrors.As(err, &e) && e.Column == "" {
		return e.WithColumn(column)
	}
	return err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(op string, kind Kind, index int, message string) *Error {
	return &Error{Op: op, Kind: kind, Index: index, Message: message}
}

// NewIndexOutOfRange reports an accessor or slice bound beyond length.
func NewIndexOutOfRange(op string, index, length int) *Error {
	return newError(op, KindIndexOutOfRange, index,
		fmt.Sprintf("index out of range [0, %d)", length))
}

// NewSliceOutOfRange reports a [start, end) range that is not inside [0, length].
func NewSliceOutOfRange(op string, start, end, length int) *Error {
	return newError(op, KindIndexOutOfRange, NoIndex,
		fmt.Sprintf("slice bounds [%d:%d] out of range with length %d", start, end, length))
}

// NewBuilderOverflow reports a variable-length payload exceeding its offset width.
func NewBuilderOverflow(op string, size, limit int64) *Error {
	return newError(op, KindBuilderOverflow, NoIndex,
		fmt.Sprintf("payload size %d exceeds offset limit %d", size, limit))
}

// NewDictionaryOverflow reports more distinct values than the index type can address.
func NewDictionaryOverflow(op string, distinct int, indexType string) *Error {
	return newError(op, KindDictionaryOverflow, NoIndex,
		fmt.Sprintf("%d distinct values exceed the range of index type %s", distinct, indexType))
}

// NewChildLengthMismatch reports a struct field builder out of lockstep with its parent.
func NewChildLengthMismatch(op, field string, got, want int) *Error {
	e := newError(op, KindChildLengthMismatch, NoIndex,
		fmt.Sprintf("child has %d elements, parent has %d", got, want))
	e.Column = field
	return e
}

// NewBuilderFinished reports use of a builder after Finish.
func NewBuilderFinished(op string) *Error {
	return newError(op, KindBuilderFinished, NoIndex, "builder already finished")
}

// NewCastOverflow reports a value that cannot be represented in the destination type.
func NewCastOverflow(op string, index int, message string) *Error {
	return newError(op, KindCastOverflow, index, message)
}

// NewCastParseError reports malformed text in a string to non-string cast.
func NewCastParseError(op string, index int, value string, cause error) *Error {
	e := newError(op, KindCastParseError, index, fmt.Sprintf("cannot parse %q", value))
	e.Cause = cause
	return e
}

// NewIncompatibleSchema reports a conversion or reconciliation with no defined rule.
func NewIncompatibleSchema(op, message string) *Error {
	return newError(op, KindIncompatibleSchema, NoIndex, message)
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *Error {
	e := newError(op, KindColumnNotFound, NoIndex, "column does not exist")
	e.Column = column
	return e
}

// NewMismatchedLengthError reports arrays or columns of unequal length.
func NewMismatchedLengthError(op string, got, want int) *Error {
	return newError(op, KindMismatchedLength, NoIndex,
		fmt.Sprintf("length %d does not match expected length %d", got, want))
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *Error {
	return newError(op, KindInvalidInput, NoIndex, message)
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *Error {
	return newError(op, KindUnsupportedType, NoIndex, fmt.Sprintf("unsupported type: %s", typeName))
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *Error {
	e := newError(op, KindInternal, NoIndex, "internal error occurred")
	e.Cause = cause
	return e
}

// Sentinels for errors.Is checks; each matches any Error of its Kind.
var (
	ErrIndexOutOfRange     = &Error{Kind: KindIndexOutOfRange, Index: NoIndex}
	ErrBuilderOverflow     = &Error{Kind: KindBuilderOverflow, Index: NoIndex}
	ErrDictionaryOverflow  = &Error{Kind: KindDictionaryOverflow, Index: NoIndex}
	ErrChildLengthMismatch = &Error{Kind: KindChildLengthMismatch, Index: NoIndex}
	ErrBuilderFinished     = &Error{Kind: KindBuilderFinished, Index: NoIndex}
	ErrCastOverflow        = &Error{Kind: KindCastOverflow, Index: NoIndex}
	ErrCastParseError      = &Error{Kind: KindCastParseError, Index: NoIndex}
	ErrIncompatibleSchema  = &Error{Kind: KindIncompatibleSchema, Index: NoIndex}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Index: NoIndex}
	ErrUnsupportedType     = &Error{Kind: KindUnsupportedType, Index: NoIndex}
	ErrColumnNotFound      = &Error{Kind: KindColumnNotFound, Index: NoIndex}
	ErrMismatchedLength    = &Error{Kind: KindMismatchedLength, Index: NoIndex}
	ErrInternal            = &Error{Kind: KindInternal, Index: NoIndex}
)
