// SPDX-License-Identifier: MIT

// Package apperr defines the application's error taxonomy and its mapping
// onto HTTP status codes: InvalidInput, NotFound, ExternalAPI, Cache,
// Database, Optimization, Internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates the taxonomy of application errors.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindNotFound
	KindExternalAPI
	KindCache
	KindDatabase
	KindOptimization
	KindInternal
)

// Error is the concrete error type carried through the system. The HTTP
// layer inspects Kind via errors.As to pick a status code; everywhere else
// it is just an error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidInput builds a 400-mapped error: blank search query, empty
// optimization request, and similar caller mistakes.
func InvalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound builds a 404-mapped error: unknown route.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

// ExternalAPI builds a 502-mapped error: non-success from an upstream
// provider, a missing identifier in a DTO, or a failed id resolution.
func ExternalAPI(format string, args ...any) *Error {
	return newError(KindExternalAPI, fmt.Sprintf(format, args...))
}

// ExternalAPIWrap wraps an underlying transport error as ExternalAPI.
func ExternalAPIWrap(err error, format string, args ...any) *Error {
	e := newError(KindExternalAPI, fmt.Sprintf(format, args...))
	e.Cause = err
	return e
}

// Cache builds a 500-mapped error for a remote key/value store read
// failure. Writes never surface through this constructor — they are
// logged and dropped by the cache's background writer.
func Cache(err error, format string, args ...any) *Error {
	e := newError(KindCache, fmt.Sprintf(format, args...))
	e.Cause = err
	return e
}

// Database builds a 500-mapped error for a relational store failure.
func Database(err error, format string, args ...any) *Error {
	e := newError(KindDatabase, fmt.Sprintf(format, args...))
	e.Cause = err
	return e
}

// Optimization builds a 422-mapped error: no catalog services after
// filtering, or solver infeasibility distinct from "all must-have
// unavailable".
func Optimization(format string, args ...any) *Error {
	return newError(KindOptimization, fmt.Sprintf(format, args...))
}

// Internal builds a 500-mapped error: serialization bugs, task-join
// failures, anything indicating a schema mismatch rather than transient
// unavailability.
func Internal(format string, args ...any) *Error {
	return newError(KindInternal, fmt.Sprintf(format, args...))
}

// InternalWrap wraps an underlying error as Internal.
func InternalWrap(err error, format string, args ...any) *Error {
	e := newError(KindInternal, fmt.Sprintf(format, args...))
	e.Cause = err
	return e
}

// StatusCode returns the HTTP status this error's kind maps to.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalAPI:
		return http.StatusBadGateway
	case KindCache, KindDatabase, KindInternal:
		return http.StatusInternalServerError
	case KindOptimization:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// StatusCode extracts the HTTP status for any error, defaulting to 500 for
// errors that are not *Error.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}

// Message extracts the user-visible message for any error, defaulting to
// the error's own Error() string.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
