package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code returned to callers.
type Code string

const (
	CodeBadRequest    Code = "BAD_REQUEST"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeBettingClosed Code = "BETTING_CLOSED"
	CodeConflict      Code = "CONFLICT"
	CodeValidation    Code = "VALIDATION_ERROR"
)

var statusByCode = map[Code]int{
	CodeBadRequest:    http.StatusBadRequest,
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
	CodeNotFound:      http.StatusNotFound,
	CodeBettingClosed: http.StatusConflict,
	CodeConflict:      http.StatusConflict,
	CodeValidation:    http.StatusUnprocessableEntity,
}

// Error is a domain error with a code and an HTTP-style status.
type Error struct {
	Code    Code   `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error, deriving the status from the code.
func New(code Code, message string) *Error {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap builds an Error that keeps the underlying cause.
func Wrap(code Code, message string, err error) *Error {
	e := New(code, message)
	e.Err = err
	return e
}

func BadRequest(message string) *Error   { return New(CodeBadRequest, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func Forbidden(message string) *Error    { return New(CodeForbidden, message) }
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }

// BettingClosed reports a submission after the event's deadline.
func BettingClosed(what string) *Error {
	return New(CodeBettingClosed, "Betting is closed for this "+what)
}

// Validation reports malformed or out-of-range input.
func Validation(message string, err error) *Error {
	return Wrap(CodeValidation, message, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
