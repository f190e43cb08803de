// Package cmd implements the klisp subcommands. Each command is a kong
// command struct with a Run(context.Context) error method; the context
// carries the parsed [kong.Context], the global --source files, and the
// runtime [Options] shared by every command.
package cmd

var (
	// CacheIdentifier is the kong variable holding the cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the klisp
	// configuration file.
	ConfigIdentifier = "config"
)
