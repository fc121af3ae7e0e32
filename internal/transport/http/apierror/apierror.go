// Package apierror carries HTTP status and client-facing message from
// handlers to the error middleware.
package apierror

import (
	"errors"
	"net/http"
)

// InternalMessage is returned for any error without an explicit mapping.
const InternalMessage = "Internal server error"

// Error is an error with a status code and a message safe to show clients.
type Error struct {
	Status  int
	Message string
	Err     error
}

// New builds an Error without an underlying cause.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap builds an Error that keeps err for logging.
func Wrap(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// From resolves err into an Error. Unknown errors become a 500.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(http.StatusInternalServerError, InternalMessage, err)
}

// Body is the uniform failure payload.
type Body struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewBody returns the payload for message.
func NewBody(message string) Body {
	return Body{Status: "failed", Message: message}
}
