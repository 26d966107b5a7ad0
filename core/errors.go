package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is a recoverable input error; it blocks the current operation and is shown inline.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// UploadError reports an unusable document upload.
// Retryable errors come from the verification service; the file may be uploaded again as is.
type UploadError struct {
	Kind      string
	Err       error
	Retryable bool
}

func NewUploadError(kind string, err error, retryable bool) *UploadError {
	return &UploadError{Kind: kind, Err: err, Retryable: retryable}
}

func (err UploadError) Error() string {
	if err.Err == nil {
		return err.Kind + ": upload failed"
	}
	return err.Kind + ": " + err.Err.Error()
}

func (err UploadError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
