package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by ActionErrors classified as validation_error.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is matched by ActionErrors classified as not_found.
	ErrNotFound = errors.New("not found")

	// ErrAssetNotFound is returned when an asset path resolves to nothing.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrResolution is returned when a host type or member cannot be located.
	ErrResolution = errors.New("host member could not be resolved")
)

// ActionError is a failure classified at its source.
type ActionError struct {
	Code    ErrorCode
	Message string
	Details any
	Err     error
}

// NewError creates an ActionError.
func NewError(code ErrorCode, message string, details any) *ActionError {
	return &ActionError{Code: code, Message: message, Details: details}
}

// Errorf creates an ActionError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *ActionError {
	return &ActionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches diagnostic details.
func (e *ActionError) WithDetails(details any) *ActionError {
	e.Details = details
	return e
}

// Wrap records the underlying cause.
func (e *ActionError) Wrap(err error) *ActionError {
	e.Err = err
	return e
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package sentinels by classification.
func (e *ActionError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == CodeValidation
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrAssetNotFound:
		return e.Code == CodeAssetNotFound
	case ErrResolution:
		return e.Code == CodeResolution
	}
	return false
}
