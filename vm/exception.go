package vm

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ---------------------------------------------------------------------------
// Source locations
// ---------------------------------------------------------------------------

// SourceLocation identifies the statement performing a binding.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// Loc is a shorthand constructor for SourceLocation.
func Loc(file string, line, column int) SourceLocation {
	return SourceLocation{File: file, Line: line, Column: column}
}

// String renders the location as "file [line,column]" using the base name
// of the file.
func (l SourceLocation) String() string {
	file := "<unknown>"
	if l.File != "" {
		file = filepath.Base(l.File)
	}
	return fmt.Sprintf("%s [%d,%d]", file, l.Line, l.Column)
}

// ---------------------------------------------------------------------------
// Capability errors (recoverable)
// ---------------------------------------------------------------------------

// ErrorKind classifies a rejected binding.
type ErrorKind int

const (
	// KindStillAliased: the value is AliasedIsolate.
	KindStillAliased ErrorKind = iota
	// KindUnsupported: the holder's capability does not support the value's.
	KindUnsupported
	// KindImmutableHolder: an ordinary field write into an Immutable object.
	KindImmutableHolder
)

// Sentinel errors matched by errors.Is against a *CapabilityError.
var (
	ErrStillAliased    = errors.New("still aliased")
	ErrUnsupported     = errors.New("unsupported capability")
	ErrImmutableHolder = errors.New("immutable holder")
)

func (k ErrorKind) String() string {
	switch k {
	case KindStillAliased:
		return "StillAliased"
	case KindUnsupported:
		return "Unsupported"
	case KindImmutableHolder:
		return "ImmutableHolder"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindStillAliased:
		return ErrStillAliased
	case KindUnsupported:
		return ErrUnsupported
	default:
		return ErrImmutableHolder
	}
}

// CapabilityError is returned when the guard rejects a binding. The
// operation that raised it has not modified any slot or capability tag.
type CapabilityError struct {
	Kind     ErrorKind
	Holder   Capability
	Value    Capability
	Location SourceLocation
}

func newCapabilityError(kind ErrorKind, holder, value Capability, loc SourceLocation) *CapabilityError {
	return &CapabilityError{Kind: kind, Holder: holder, Value: value, Location: loc}
}

// Message returns the error text without the location prefix.
func (e *CapabilityError) Message() string {
	switch e.Kind {
	case KindStillAliased:
		return fmt.Sprintf("Attempted to store an Isolate that is still aliased (%s into %s)", e.Value, e.Holder)
	case KindUnsupported:
		return fmt.Sprintf("%s doesn't support field values of %s", e.Holder, e.Value)
	case KindImmutableHolder:
		return fmt.Sprintf("%s doesn't support field writes as it is marked as immutable", e.Holder)
	}
	return e.Kind.String()
}

func (e *CapabilityError) Error() string {
	return e.Location.String() + " " + e.Message()
}

// Unwrap exposes the sentinel for errors.Is.
func (e *CapabilityError) Unwrap() error {
	return e.Kind.sentinel()
}

// FieldError is returned when a named field does not exist on an object.
type FieldError struct {
	Class    string
	Field    string
	Location SourceLocation
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s has no field named %q", e.Location, e.Class, e.Field)
}

// VariableError is returned when writing a variable that no frame declares.
type VariableError struct {
	Name     string
	Location SourceLocation
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%s undeclared variable %q", e.Location, e.Name)
}

// ---------------------------------------------------------------------------
// Transfer errors (defects)
// ---------------------------------------------------------------------------

// TransferErrorKind classifies an internal transfer defect.
type TransferErrorKind int

const (
	// DoubleTransfer: an object was copied twice within one transfer map.
	DoubleTransfer TransferErrorKind = iota
	// UnsupportedStorage: a storage representation has no transfer handling.
	UnsupportedStorage
)

func (k TransferErrorKind) String() string {
	switch k {
	case DoubleTransfer:
		return "DoubleTransfer"
	case UnsupportedStorage:
		return "UnsupportedStorage"
	default:
		return fmt.Sprintf("TransferErrorKind(%d)", int(k))
	}
}

// TransferError is panicked, never returned: it signals a violated
// precondition of Transfer rather than a user error.
type TransferError struct {
	Kind   TransferErrorKind
	Detail string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer: %s: %s", e.Kind, e.Detail)
}
