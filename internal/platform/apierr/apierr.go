package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Newf is New with a formatted message.
func Newf(status int, code, format string, args ...any) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "forbidden", errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, "not_found", errors.New(msg))
}

func Conflict(code, msg string) *Error {
	return New(http.StatusConflict, code, errors.New(msg))
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}
