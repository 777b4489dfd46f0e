package config

import "fmt"

const (
	ErrorCodeMissingField      = "config.missing_field"
	ErrorCodeInvalidValue      = "config.invalid_value"
	ErrorCodeUnsupportedFormat = "config.unsupported_format"
	ErrorCodeReadFailed        = "config.read_failed"
)

// Error is a configuration failure with a stable code.
type Error struct {
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func missingField(field string) *Error {
	return &Error{Code: ErrorCodeMissingField, Field: field, Message: "is required"}
}
