// Package apperrors defines the typed errors surfaced by the domain
// services. Every failed invariant check carries a stable machine-readable
// kind and code plus a human-readable message, so the HTTP boundary can map
// errors to status codes without inspecting message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindNotFound   Kind = "not_found"  // referenced entity does not exist
	KindConflict   Kind = "conflict"   // duplicate entry or unique-key violation
	KindValidation Kind = "validation" // caller-correctable bad input
	KindForbidden  Kind = "forbidden"  // actor is not the owning user
	KindGateway    Kind = "gateway"    // upstream metadata provider failure
	KindUnknown    Kind = "unknown"
)

// Error is a domain error with a stable kind and code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two apperrors by kind and code, so sentinel values declared
// with the constructors below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func Gateway(code, message string, err error) *Error {
	return &Error{Kind: KindGateway, Code: code, Message: message, Err: err}
}

// WithMessagef returns a copy of e with a formatted message. The kind and
// code are preserved so errors.Is still matches the original sentinel.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// KindOf returns the kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the machine-readable code of err, or "" for plain errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
