package lang

//go:generate go tool stringer --linecomment --type ErrorKind --output error_string.go

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrorKind classifies an [Error].
type ErrorKind uint8

const (
	SyntaxError ErrorKind = iota + 1
	NameError
	ArityError
	TypeError
	ValueError
	LimitError
	StorageError
	InternalError
)

// Reader errors.
var (
	ErrUnterminatedString = NewError(SyntaxError, "unterminated string")
	ErrUnclosedList       = NewError(SyntaxError, "unclosed list")
	ErrUnexpectedClose    = NewError(SyntaxError, "unexpected ')'")
	ErrInvalidToken       = NewError(SyntaxError, "invalid token")
	ErrInvalidNumber      = NewError(SyntaxError, "invalid number")
	ErrInvalidChar        = NewError(SyntaxError, "invalid character literal")
	ErrDanglingQuote      = NewError(SyntaxError, "quote without datum")
	ErrMalformed          = NewError(SyntaxError, "malformed special form")
)

// Evaluation errors.
var (
	ErrUnbound       = NewError(NameError, "unbound symbol")
	ErrArity         = NewError(ArityError, "wrong number of arguments")
	ErrType          = NewError(TypeError, "wrong argument type")
	ErrNotCallable   = NewError(TypeError, "not a procedure")
	ErrDivideByZero  = NewError(ValueError, "division by zero")
	ErrOverflow      = NewError(ValueError, "integer overflow")
	ErrIndex         = NewError(ValueError, "index out of range")
	ErrUser          = NewError(ValueError, "error")
	ErrPrimitive     = NewError(ValueError, "primitive failed")
	ErrMaxDepth      = NewError(LimitError, "maximum evaluation depth exceeded")
	ErrMaxSteps      = NewError(LimitError, "step limit exceeded")
	ErrCanceled      = NewError(LimitError, "evaluation canceled")
	ErrNoStorage     = NewError(StorageError, "no storage configured")
	ErrStorage       = NewError(StorageError, "storage failure")
	ErrInternal      = NewError(InternalError, "internal error")
	ErrReadInput     = NewError(InternalError, "failed to read input")
	ErrUnknownFormat = NewError(ValueError, "unknown format")
)

// Error is a klisp error. It is both a Go error and a klisp [Value], so it
// can be returned from evaluation, stored in results, and logged.
//
// Errors are immutable; every method that changes a field returns a copy.
type Error struct {
	kind   ErrorKind
	msg    string
	detail string
	err    error
	attrs  []slog.Attr
	span   Span
}

// NewError returns an error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// AsError returns err as an *Error. Errors of other types are wrapped by
// [ErrInternal].
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return ErrInternal.Wrap(err)
}

// Kind returns the error's classification.
func (e *Error) Kind() ErrorKind { return e.kind }

// Span returns the source range the error refers to.
func (e *Error) Span() Span { return e.span }

// Message returns the error text without its kind.
func (e *Error) Message() string {
	part := make([]string, 0, 3)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.detail != "" {
		part = append(part, e.detail)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message()
	if msg == "" {
		return e.kind.String()
	}

	return e.kind.String() + ": " + msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is matches another *Error with the same kind and message, so sentinels
// compare equal to their derived copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.kind == e.kind && t.msg == e.msg
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)
	attrs = append(attrs, slog.String("kind", e.kind.String()))

	if e.msg != "" {
		attrs = append(attrs, slog.String("msg", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if !e.span.IsZero() {
		attrs = append(attrs, slog.String("at", e.span.Start.String()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached with [Error.With].
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = append(e.attrs[:len(e.attrs):len(e.attrs)], attrs...)

	return &c
}

// Detail returns a copy of e with a human-readable detail appended to its
// message. The detail does not affect [Error.Is].
func (e *Error) Detail(detail string) *Error {
	c := *e
	c.detail = detail

	return &c
}

// At returns a copy of e located at span.
func (e *Error) At(span Span) *Error {
	c := *e
	c.span = span

	return &c
}

// within locates e at span unless it already has a location.
func (e *Error) within(span Span) *Error {
	if !e.span.IsZero() {
		return e
	}

	return e.At(span)
}

func (*Error) value() {}
