package core

import "github.com/pkg/errors"

// FieldError ties a validation failure to one request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries an optional base error plus per-field details.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

func (ve ValidationError) Error() string {
	if ve.Err == nil {
		return ""
	}
	return ve.Err.Error()
}

// shutdown signals that the service cannot continue and must exit.
type shutdown struct {
	msg string
}

func NewShutdownError(msg string) error { return &shutdown{msg: msg} }

func (s shutdown) Error() string { return s.msg }

// IsShutdown reports whether err (or its cause) requests a shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
