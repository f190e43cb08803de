// Package session coordinates REPL input and editor requests over shared
// interpreter state.
//
// Each [Session] serializes mutations on one worker goroutine that drains a
// FIFO queue: REPL input evaluated in the session's global frame, and
// analysis of open documents. Read-only queries run on published
// [analysis.Snapshot] values from any goroutine. An edit cancels the
// document's in-flight analysis, and an analysis whose version has been
// superseded is never published.
//
// A [Manager] runs many sessions in parallel under one errgroup and bounds
// concurrent analyses with a weighted semaphore.
package session
