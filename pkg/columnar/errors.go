package columnar

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kinds of SchemaError. Test for them with errors.Is.
var (
	ErrUnsupported        = errors.New("unsupported schema construct")
	ErrDuplicateField     = errors.New("duplicate field")
	ErrInvalidLogicalType = errors.New("invalid logical type")
	ErrInvalidSchema      = errors.New("invalid schema document")
)

var (
	// ErrTypeMismatch matches every *TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrBatchShape is returned when columns handed to Assemble do not fit
	// the schema.
	ErrBatchShape = errors.New("invalid batch shape")
	// ErrBuilderFailed is returned by every call on a ColumnBuilder whose
	// columns could no longer be kept aligned.
	ErrBuilderFailed = errors.New("column builder failed")
)

// SchemaError is returned when a source schema cannot be translated. No
// partial schema is ever returned alongside it.
type SchemaError struct {
	// Path is the dotted location of the offending node.
	Path string
	// Err is one of ErrUnsupported, ErrDuplicateField, ErrInvalidLogicalType
	// or ErrInvalidSchema.
	Err error
	// Detail describes the offending construct, e.g. "map".
	Detail string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *SchemaError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return "schema error: " + msg
}

func (e *SchemaError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func schemaErr(path string, kind error, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// TypeMismatchError reports a decoded value whose shape does not fit the
// column it was coerced into, including a null in a non-nullable column.
type TypeMismatchError struct {
	Path     string
	Expected arrow.DataType
	// Got is the kind of the offending value, e.g. "int" or "null".
	Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
