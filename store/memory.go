package store

import (
	"context"
	"sync"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/ardnew/klisp/pkg"
)

// Memory is a [Store] held in process memory. Readers load the current tree
// without locking; writers serialize on a mutex and publish a new tree.
type Memory struct {
	tree   atomic.Pointer[iradix.Tree[string]]
	mu     sync.Mutex
	closed atomic.Bool
	cfg    config
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{cfg: makeConfig(opts...)}
	m.tree.Store(iradix.New[string]())

	return m
}

func (m *Memory) ready(ctx context.Context) error {
	if m.closed.Load() {
		return pkg.ErrStoreClosed
	}

	return alive(ctx)
}

// Get implements [lang.Storage].
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := m.ready(ctx); err != nil {
		return "", false, err
	}

	v, ok := m.tree.Load().Get([]byte(key))

	return v, ok, nil
}

// Put implements [lang.Storage].
func (m *Memory) Put(ctx context.Context, key, value string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, _, _ := m.tree.Load().Insert([]byte(key), value)
	m.tree.Store(t)
	m.cfg.logger.TraceContext(ctx, "memory put", keyAttr(key))

	return nil
}

// Delete implements [lang.Storage]. Deleting a missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if t, _, ok := m.tree.Load().Delete([]byte(key)); ok {
		m.tree.Store(t)
		m.cfg.logger.TraceContext(ctx, "memory delete", keyAttr(key))
	}

	return nil
}

// Keys implements [lang.Storage]. Keys are returned in byte order.
func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := m.ready(ctx); err != nil {
		return nil, err
	}

	var keys []string

	m.tree.Load().Root().WalkPrefix([]byte(prefix), func(k []byte, _ string) bool {
		keys = append(keys, string(k))

		return false
	})

	return keys, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int { return m.tree.Load().Len() }

// Close discards the contents. Later operations fail with
// [pkg.ErrStoreClosed].
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.mu.Lock()
	m.tree.Store(iradix.New[string]())
	m.mu.Unlock()

	return nil
}
