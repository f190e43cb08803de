package analysis

import (
	"context"
	"sync"
	"sync/atomic"
)

// Document publishes the analysis snapshots of one source buffer. Readers
// load the current snapshot without locking. Versions only move forward.
type Document struct {
	id   string
	snap atomic.Pointer[Snapshot]

	mu      sync.Mutex
	changed chan struct{} // closed and replaced on every publish
}

// NewDocument returns a document with nothing published.
func NewDocument(id string) *Document {
	return &Document{id: id, changed: make(chan struct{})}
}

// ID returns the document id.
func (d *Document) ID() string { return d.id }

// Current returns the latest published snapshot, or nil.
func (d *Document) Current() *Snapshot { return d.snap.Load() }

// Version returns the published version, or -1 when nothing is published.
func (d *Document) Version() int64 {
	if s := d.snap.Load(); s != nil {
		return s.Version
	}

	return -1
}

// Publish makes s current if it is newer than the published snapshot and
// wakes every waiter. It reports whether s was published.
func (d *Document) Publish(s *Snapshot) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur := d.snap.Load(); cur != nil && s.Version <= cur.Version {
		return false
	}

	d.snap.Store(s)
	close(d.changed)
	d.changed = make(chan struct{})

	return true
}

// Await returns the first published snapshot whose version is at least
// minVersion, waiting until one is published or ctx ends.
func (d *Document) Await(ctx context.Context, minVersion int64) (*Snapshot, error) {
	for {
		d.mu.Lock()
		s, ch := d.snap.Load(), d.changed
		d.mu.Unlock()

		if s != nil && s.Version >= minVersion {
			return s, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
}
