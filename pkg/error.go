package pkg

// Sentinel errors shared by the klisp packages. Wrap them with the
// underlying cause and test them with errors.Is.

import (
	"fmt"
	"slices"
	"strings"
)

// Error represents a chain of errors.
type Error []error

// ErrReadInput is returned when reading a source file or stdin fails.
var ErrReadInput = MakeErrorf("failed to read input")

// ErrParse is returned when source text contains syntax errors. It should be
// wrapped with the first reader error.
var ErrParse = MakeErrorf("parse error")

// ErrEval is returned by commands when a top-level form fails to evaluate.
var ErrEval = MakeErrorf("evaluation failed")

// ErrJSONMarshal is returned when JSON marshaling fails.
var ErrJSONMarshal = MakeErrorf("JSON marshal error")

// ErrYAMLMarshal is returned when YAML marshaling fails.
var ErrYAMLMarshal = MakeErrorf("YAML marshal error")

// ErrInvalidFormat is returned when an invalid output format is specified.
//
// This error should be wrapped with the invalid format and the list of valid
// formats.
var ErrInvalidFormat = MakeErrorf("invalid format")

// ErrOpenStore is returned when a storage backend cannot be opened.
var ErrOpenStore = MakeErrorf("cannot open store")

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = MakeErrorf("store is closed")

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = MakeErrorf("session is closed")

// ErrUnknownSession is returned when a session id is not registered.
var ErrUnknownSession = MakeErrorf("unknown session")

// ErrUnknownDocument is returned when a query names a document that was
// never opened, or was closed.
var ErrUnknownDocument = MakeErrorf("unknown document")

// ErrStaleVersion is returned when a document change carries a version
// older than the one already applied.
var ErrStaleVersion = MakeErrorf("stale document version")

// MakeError constructs an Error from the given errors.
// The errors are stored in the order they are provided:
// the first argument is the innermost error in the chain.
// Nil is returned if no errors are provided.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted error message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error returns a concatenated string representation of all errors
// in the error chain, separated by ": ", from innermost to outermost.
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range slices.All(e) {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap appends one or more errors to a copy of the receiver and returns the
// result. Nil errors are skipped.
func (e Error) Wrap(err ...error) Error {
	out := slices.Clip(slices.Clone(e))

	for _, x := range err {
		if x != nil {
			out = append(out, x)
		}
	}

	return out
}

// Wrapf appends a formatted error to a copy of the receiver and returns the
// result.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Is reports whether e contains every error of target, so that a sentinel
// matches any chain built from it.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 {
		return false
	}

	for _, want := range t {
		if _, nested := want.(Error); nested {
			continue
		}

		if !slices.ContainsFunc(e, func(have error) bool {
			_, nested := have.(Error)

			return !nested && have == want
		}) {
			return false
		}
	}

	return true
}

// Unwrap returns the slice of errors contained in the receiver.
func (e Error) Unwrap() []error {
	return e
}

// UnwrapErrors recursively unwraps an error chain and returns a slice
// containing all errors in the chain, starting from the innermost error.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	chain := Error{}

	if e, ok := err.(interface{ Unwrap() []error }); ok {
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	} else if e, ok := err.(interface{ Unwrap() error }); ok {
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
