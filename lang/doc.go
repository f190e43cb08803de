// Package lang implements the klisp language: a fault-tolerant reader, a
// copy-on-write environment store, and a tail-call-eliminating evaluator.
//
// # Syntax
//
// klisp source is a sequence of s-expressions:
//
//	42 -7 2.5           ; integers and floats
//	"text\n"            ; strings with \n \t \r \0 \" \\ escapes
//	\a \space \newline  ; characters
//	:name               ; keywords
//	true false          ; booleans
//	sym                 ; symbols
//	(f x y)             ; lists
//	'x                  ; shorthand for (quote x)
//
// Commas are whitespace and ';' starts a comment that runs to end of line.
//
// # Reading
//
// [Parse] never fails. Malformed input becomes [FormError] nodes carrying a
// located [*Error], and reading resumes after them. A list left open at end of
// input is re-read so that a '(' in column 1 ends it; editors therefore see
// every later top-level definition even while one form is incomplete.
// [ParseCached] memoizes programs by content hash.
//
// # Environments
//
// A [Frame] holds its bindings in a persistent hash map. [Frame.Snapshot]
// returns a [FrameHandle] that observes exactly the bindings present when it
// was taken, without copying and without blocking writers.
//
// # Evaluation
//
// An [Interpreter] holds builtins and limits; it is safe for concurrent use
// as long as each goroutine evaluates in its own frames or serializes writes
// to shared ones. Calls in tail position do not grow the Go stack. Failures
// are [*Error] values whose [ErrorKind] classifies them and whose span
// locates the form that raised them.
//
// Special forms: quote, define (def), let, if, when, unless, lambda (lam,
// fn), begin, and, or. Conditions treat false, (), "", empty maps and
// numbers not greater than zero as false.
package lang
