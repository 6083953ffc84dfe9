// Package calerrors defines the typed error kind used across the query
// engine. Grounded on kevmarchant-go-icloud-caldav's CalDAVError: a single
// struct carrying an operation, a kind, a message and an optional wrapped
// cause, with package-level predicates built on errors.As instead of type
// assertions at call sites.
package calerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for programmatic handling.
type Kind int

const (
	// Unknown is the zero value; never set deliberately.
	Unknown Kind = iota
	// Parse marks a failure tokenizing or parsing a query string.
	Parse
	// Validation marks a structurally well-formed but semantically
	// invalid request (bad bound ordering, unbounded prune range, ...).
	Validation
	// IndexState marks a failure reading or maintaining an index
	// (dangling reference, family not built, disabled index queried).
	IndexState
	// NotFound marks a lookup miss (uid, calendar, override).
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case Validation:
		return "validation"
	case IndexState:
		return "index"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Span is a half-open byte range into a query string, attached to parse
// errors so a caller can underline the offending token.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.End)
}

// Error is the engine's single error type. Op names the failing
// operation ("calqueryparse.Parse", "calendar.Calendar.Rebuild", ...); Message
// is a short human-readable reason; Span is set only for Kind == Parse.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Span    *Span
	Err     error
}

// Error renders "Error - <reason> at <span>" for parse errors (matching
// spec §7's format for reporting a bad query string) and "Error: <op>:
// <reason>" for everything else.
func (e *Error) Error() string {
	if e.Kind == Parse && e.Span != nil {
		return fmt.Sprintf("Error - %s at %s", e.Message, e.Span)
	}
	if e.Err != nil {
		return fmt.Sprintf("Error: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("Error: %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewParse builds a Parse error anchored at span.
func NewParse(op, message string, span Span) *Error {
	return &Error{Kind: Parse, Op: op, Message: message, Span: &span}
}

// NewValidation builds a Validation error.
func NewValidation(op, message string) *Error {
	return &Error{Kind: Validation, Op: op, Message: message}
}

// NewIndexState builds an IndexState error, optionally wrapping cause.
func NewIndexState(op, message string, cause error) *Error {
	return &Error{Kind: IndexState, Op: op, Message: message, Err: cause}
}

// NewNotFound builds a NotFound error.
func NewNotFound(op, message string) *Error {
	return &Error{Kind: NotFound, Op: op, Message: message}
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
