package domain

import "errors"

var (
	// Common domain errors
	ErrInvalidInput          = errors.New("input text cannot be empty")
	ErrRequestPending        = errors.New("an analysis is already in progress")
	ErrUnexpectedCategory    = errors.New("unexpected category label")
	ErrMalformedResponse     = errors.New("malformed classification response")
	ErrResultNotFound        = errors.New("result not found in history")
	ErrProviderNotConfigured = errors.New("no classification provider configured")
)

// ClassificationError is the single user-visible failure of a classification call.
// Msg is safe to show to the user; Err keeps the underlying cause for logs.
type ClassificationError struct {
	Msg string
	Err error
}

func (e *ClassificationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "classification failed"
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// NewClassificationError wraps err with a user-facing message.
func NewClassificationError(msg string, err error) *ClassificationError {
	return &ClassificationError{Msg: msg, Err: err}
}
