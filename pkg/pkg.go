// Package pkg holds project metadata, shared sentinel errors, and the
// per-user directories klisp reads and writes.
package pkg

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed VERSION
var versionFile string

const (
	// Name is the command name. It appears in help text, diagnostics
	// sources, and the default directory names.
	Name = "klisp"
	// Description is the one-line summary shown by --help.
	Description = "Fault-tolerant Lisp interpreter and language server"
)

// Version is the semantic version embedded at build time, without
// surrounding whitespace.
//
//nolint:gochecknoglobals
var Version = strings.TrimSpace(versionFile)

// AuthorInfo identifies one author.
type AuthorInfo struct {
	Name  string
	Email string
}

func (a AuthorInfo) String() string {
	if a.Email == "" {
		return a.Name
	}

	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Author lists the project authors.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

// Banner returns "name version", the first line of `klisp version`.
func Banner() string { return Name + " " + Version }
