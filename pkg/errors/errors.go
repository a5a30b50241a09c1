// Package errors carries the error envelope handlers translate into HTTP
// responses. Services wrap validation and lookup failures in an AppError;
// everything else surfaces as a plain 500.
package errors

import (
	"fmt"
)

// Code classifies an AppError for status mapping.
type Code int

const (
	ErrNotFound Code = iota + 1000
	ErrBadRequest
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// BadRequest marks a client mistake: a payload that parsed but failed
// validation.
func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

// NotFound marks a lookup against a resource that does not exist.
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}
