package cmd

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/ardnew/klisp/pkg"
)

// Version prints the program version.
type Version struct {
	Verbose bool `help:"Include build information." short:"v"`
}

// Run executes the version command.
func (v *Version) Run(ctx context.Context) error {
	out := streamsFrom(ctx).Out

	fmt.Fprintln(out, pkg.Banner())

	if !v.Verbose {
		return nil
	}

	for _, a := range pkg.Author {
		fmt.Fprintf(out, "author: %s\n", a)
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(out, "go: %s\n", info.GoVersion)

		for _, s := range info.Settings {
			if strings.HasPrefix(s.Key, "vcs.") || s.Key == "-tags" {
				fmt.Fprintf(out, "%s: %s\n", s.Key, s.Value)
			}
		}
	}

	return nil
}
