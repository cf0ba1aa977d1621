package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a failure by how far it is allowed to propagate.
type ErrorType string

const (
	// ErrorTypeUI is a missing control or an elapsed wait. It is recovered where it happens.
	ErrorTypeUI ErrorType = "ui"
	// ErrorTypeAttempt aborts one (brand, product type) attempt but never the run.
	ErrorTypeAttempt ErrorType = "attempt"
	// ErrorTypeConfiguration skips the affected brand.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeFatal aborts the run.
	ErrorTypeFatal ErrorType = "fatal"
)

// SearchError is a failure raised while discovering links for a brand.
type SearchError struct {
	Type    ErrorType
	Brand   string
	Step    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *SearchError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Brand != "" {
		prefix += " " + e.Brand
	}
	if e.Step != "" {
		prefix += " (" + e.Step + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the run must stop.
func (e *SearchError) IsFatal() bool {
	return e.Type == ErrorTypeFatal
}

// New creates a new SearchError
func New(errType ErrorType, brand, step, message string, err error) *SearchError {
	return &SearchError{
		Type:    errType,
		Brand:   brand,
		Step:    step,
		Message: message,
		Err:     err,
	}
}

// NewUI creates a soft failure for a control that could not be used.
func NewUI(brand, step, message string, err error) *SearchError {
	return New(ErrorTypeUI, brand, step, message, err)
}

// NewAttempt creates a failure that abandons the current attempt.
func NewAttempt(brand, step, message string, err error) *SearchError {
	return New(ErrorTypeAttempt, brand, step, message, err)
}

// NewConfiguration creates a configuration error
func NewConfiguration(brand, message string) *SearchError {
	return New(ErrorTypeConfiguration, brand, "", message, nil)
}

// NewFatal creates an error that aborts the run.
func NewFatal(message string, err error) *SearchError {
	return New(ErrorTypeFatal, "", "", message, err)
}

// TypeOf returns the ErrorType of the first SearchError in err's chain, or "" when
// there is none.
func TypeOf(err error) ErrorType {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ""
}
