// Package apperr is the error taxonomy handlers render to JSON.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
)

func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error is a client facing failure. Fields holds per field messages for
// validation errors.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string][]string
	Cause   error

	file string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Add appends a message for field and returns e.
func (e *Error) Add(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// HasFields reports whether any field message was collected.
func (e *Error) HasFields() bool { return len(e.Fields) > 0 }

// NotFound builds "<Resource> with ID <id> not found" with code
// <RESOURCE>_NOT_FOUND.
func NotFound(resource string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(resource) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func Validation() *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: "Validation failed"}
}

// Invalid is a validation error with a single field message.
func Invalid(field, msg string) *Error {
	return Validation().Add(field, msg)
}

func Forbidden(code, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Code: "UNAUTHENTICATED", Message: "Unauthenticated."}
}

func Conflict(code, msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg, Cause: cause}
}

// Internal wraps an unexpected failure and remembers where it was raised.
func Internal(cause error) *Error {
	e := &Error{Kind: KindInternal, Code: "SERVER_ERROR", Message: "Server Error", Cause: cause}
	if _, file, line, ok := runtime.Caller(1); ok {
		e.file = fmt.Sprintf("%s:%d", file, line)
	}
	return e
}

// As converts any error into an *Error, treating unknown errors as
// internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Code: "SERVER_ERROR", Message: "Server Error", Cause: err}
}
