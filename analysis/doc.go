// Package analysis turns klisp source into published, queryable snapshots.
//
// An [Analyzer] parses a document, evaluates it in a fresh frame below a
// session's global frame, and collects the outcome into a [Snapshot]:
// diagnostics, per-form results, and an [Index] of every name in scope. A
// [Document] publishes snapshots atomically, newest version only, so editor
// queries never see diagnostics from one pass next to an index from another.
//
// Queries take byte offsets into the snapshot's text.
package analysis
