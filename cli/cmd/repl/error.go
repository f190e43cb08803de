package repl

import "github.com/ardnew/klisp/pkg"

// ErrOutOfBounds is returned for a history index outside the loaded entries.
var ErrOutOfBounds = pkg.MakeErrorf("history index out of range")

// ErrEditDeclined is returned when the user gives up on a buffer that does
// not parse.
var ErrEditDeclined = pkg.MakeErrorf("edit declined")
