// Package cli contains the command line interface for klisp.
//
// # Usage
//
//	klisp [flags] [repl] [file...]   interactive session (default)
//	klisp eval [-e expr] [file...]   evaluate files or expressions
//	klisp check [--format=F] file... report diagnostics
//	klisp fmt [klisp|json|yaml] file reformat or convert source
//	klisp lsp                        language server on stdio
//	klisp init [--force]             write the configuration file
//	klisp version
//
// # Configuration
//
// Flags may be set in ~/.config/klisp/config.kl. The file is evaluated in a
// sandbox interpreter with no storage, and each top-level definition whose
// name matches a flag supplies its default:
//
//	(def log-level "debug")
//	(def log-pretty false)
//	(def max-steps 1000000)
//
// Command-line flags override config file values. A config.json file with
// the same keys is also read. [klisp init] writes the current flag values in
// the first form.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: record format (json, text)
//   - --log-time-layout: timestamp layout (RFC3339, Kitchen, none, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorize output
//
// Logs always go to stderr, so the language server's stdout stays clean.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o klisp .
//
//   - --pprof-mode: allocs, block, clock, cpu, goroutine, heap, mem, mutex,
//     thread, trace
//   - --pprof-dir: output directory (default ~/.cache/klisp/pprof)
package cli
