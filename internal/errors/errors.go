// Package errors classifies byline failures so the CLI can pick an exit code
// and the HTTP API a status from the same value.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

// The zero Kind is KindGeneral, so an unclassified *Error behaves like a
// plain error.
const (
	KindGeneral Kind = iota
	KindInvalidArgs
	KindNotFound
	KindConflict
	KindInternal
)

var kindTable = [...]struct {
	name   string
	exit   int
	status int
}{
	KindGeneral:     {"General", 1, http.StatusInternalServerError},
	KindInvalidArgs: {"InvalidArgs", 2, http.StatusBadRequest},
	KindNotFound:    {"NotFound", 3, http.StatusNotFound},
	KindConflict:    {"Conflict", 6, http.StatusConflict},
	KindInternal:    {"Internal", 5, http.StatusInternalServerError},
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kindTable)
}

func (k Kind) String() string {
	if !k.valid() {
		return "Unknown"
	}
	return kindTable[k].name
}

// ExitCode is the process exit code for the kind. Unknown kinds exit 1.
func (k Kind) ExitCode() int {
	if !k.valid() {
		return 1
	}
	return kindTable[k].exit
}

// HTTPStatus is the response status for the kind. Unknown kinds map to 500.
func (k Kind) HTTPStatus() int {
	if !k.valid() {
		return http.StatusInternalServerError
	}
	return kindTable[k].status
}

// Public reports whether the message of an error of this kind may be shown
// to API clients.
func (k Kind) Public() bool {
	return k.HTTPStatus() < http.StatusInternalServerError
}

// Error is a classified failure with an optional hint for the user.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Err        error
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

// WithSuggestion sets the hint printed after the message.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgs(format string, args ...any) *Error {
	return New(KindInvalidArgs, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(KindInternal, format, args...)
}

func General(format string, args ...any) *Error {
	return New(KindGeneral, format, args...)
}

// Wrap classifies err under kind with a message of its own.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Err = err
	return e
}

// WrapInternal wraps err as KindInternal.
func WrapInternal(err error, format string, args ...any) *Error {
	return Wrap(err, KindInternal, format, args...)
}

// The helpers below look through fmt.Errorf wrapping for the outermost *Error.

func find(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf returns the kind of err, KindGeneral if it carries none.
func KindOf(err error) Kind {
	if e := find(err); e != nil {
		return e.Kind
	}
	return KindGeneral
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e := find(err)
	return e != nil && e.Kind == kind
}

// ExitCode returns the CLI exit code for err; 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}

// SuggestionOf returns the hint attached to err, if any.
func SuggestionOf(err error) string {
	if e := find(err); e != nil {
		return e.Suggestion
	}
	return ""
}

// PublicMessage returns the text an API client may see for err. Server-side
// failures are reduced to "internal error"; client errors give their own
// message without the wrapped cause.
func PublicMessage(err error) string {
	e := find(err)
	if e == nil || !e.Kind.Public() {
		return "internal error"
	}
	return e.Message
}
