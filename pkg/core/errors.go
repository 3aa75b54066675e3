package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrValidation marks caller-supplied data that is structurally or
	// semantically wrong. Nothing is sent to the repository.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownType marks a type or aspect id the type lookup cannot resolve.
	ErrUnknownType = errors.New("unknown type")

	// ErrTransport marks a failure of the remote call.
	ErrTransport = errors.New("transport failure")

	// ErrNotFound marks an object id the repository does not know.
	ErrNotFound = errors.New("object not found")

	ErrReadOnly = errors.New("repository is in read-only mode")
)

// ValidationError describes why a property or request was rejected.
type ValidationError struct {
	PropertyID string
	Value      string
	Reason     string
}

func (e *ValidationError) Error() string {
	switch {
	case e.PropertyID == "":
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	case e.Value == "":
		return fmt.Sprintf("%s: property '%s': %s", ErrValidation, e.PropertyID, e.Reason)
	default:
		return fmt.Sprintf("%s: property '%s': %s (%q)", ErrValidation, e.PropertyID, e.Reason, e.Value)
	}
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError not tied to a property.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidProperty builds a ValidationError for a property.
func InvalidProperty(propertyID, format string, args ...any) error {
	return &ValidationError{PropertyID: propertyID, Reason: fmt.Sprintf(format, args...)}
}

// UnknownTypeError names the id that failed to resolve.
type UnknownTypeError struct {
	TypeID string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownType, e.TypeID)
}

// Is makes errors.Is(err, ErrUnknownType) hold.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// IsUnknownType reports whether err is, or wraps, ErrUnknownType.
func IsUnknownType(err error) bool {
	return errors.Is(err, ErrUnknownType)
}
