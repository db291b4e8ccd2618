package common

import (
	"errors"
	"net/http"
)

// AppError is an error the API can render: a stable machine code, a message
// safe to show clients, the HTTP status and optional structured details.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return http.StatusText(e.HTTPStatus)
	}
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError constructs an AppError wrapping err, which may be nil.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest is a 400 for requests the API could not accept as sent.
func BadRequest(code, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusBadRequest, err)
}

// Unprocessable is a 422 for well-formed requests whose content cannot be honoured.
func Unprocessable(code, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusUnprocessableEntity, err)
}

// WithDetails attaches a client-visible payload and returns e.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// AsAppError finds an AppError in err's chain. Anything else is reported as
// a 500 INTERNAL without leaking err's text.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}
	return NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
}
