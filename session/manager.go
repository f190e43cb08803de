package session

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/pkg"
)

// Manager owns independent sessions. Sessions share nothing but the symbol
// table and a bound on how many analyses run at once.
type Manager struct {
	ctx    context.Context
	opts   []Option
	logger log.Logger
	group  *errgroup.Group
	sem    *semaphore.Weighted

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager returns a manager whose sessions are configured by opts. At
// most parallel analyses run at once across all sessions; zero or less uses
// GOMAXPROCS.
func NewManager(ctx context.Context, parallel int, opts ...Option) *Manager {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(parallel))

	return &Manager{
		ctx:      gctx,
		opts:     append(slices.Clip(opts), withSemaphore(sem)),
		logger:   makeConfig(opts...).logger,
		group:    g,
		sem:      sem,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session with the given id, starting it on first use.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, pkg.ErrSessionClosed
	}

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	s := newSession(m.ctx, id, m.opts...)
	m.group.Go(s.run)
	m.sessions[id] = s

	return s, nil
}

// Lookup returns an existing session.
func (m *Manager) Lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, pkg.ErrUnknownSession.Wrapf("%s", id)
	}

	return s, nil
}

// IDs returns the ids of the running sessions in order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return pkg.ErrUnknownSession.Wrapf("%s", id)
	}

	return s.Close()
}

// Close closes every session and waits for their workers.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}

	err := m.group.Wait()
	m.logger.Debug("sessions stopped")

	return err
}
