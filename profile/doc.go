// Package profile provides optional runtime profiling for klisp.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o klisp .
//
// Without the tag, [Profiler.Start] returns a no-op and [Modes] is empty.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     synchronization blocking
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine stacks
//   - heap:      live heap allocations
//   - mem:       general memory profiling
//   - mutex:     mutex contention
//   - thread:    thread creation
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/klisp-pprof", Quiet: true}
//	defer p.Start().Stop()
//
// The CLI exposes the same settings as --pprof-mode and --pprof-dir. Profiles
// of a language server session are the usual reason to reach for this:
//
//	klisp --pprof-mode=cpu lsp
//	go tool pprof -http=: ~/.cache/klisp/pprof/cpu.pprof
//
// The tagged build also imports [net/http/pprof], so a host program that
// serves [net/http.DefaultServeMux] exposes /debug/pprof/.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
