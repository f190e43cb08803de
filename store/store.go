// Package store provides the key/value backends behind the klisp db-*
// primitives. Keys and values are strings; values hold printed klisp data.
//
// [Memory] keeps entries in a persistent radix tree and is meant for tests and
// throwaway sessions. [Bolt] persists entries to a bbolt database file.
package store

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
)

// MemoryDSN selects the in-memory backend in [Open].
const MemoryDSN = ":memory:"

// DefaultBucket names the bbolt bucket that holds entries.
const DefaultBucket = "klisp"

// DefaultTimeout bounds how long [Open] waits for the database file lock.
const DefaultTimeout = time.Second

// Store is a closable [lang.Storage].
type Store interface {
	lang.Storage
	io.Closer
}

type config struct {
	bucket  string
	timeout time.Duration
	logger  log.Logger
}

// Option configures a store.
type Option func(config) config

// WithBucket sets the bbolt bucket name.
func WithBucket(name string) Option {
	return func(c config) config {
		if name != "" {
			c.bucket = name
		}

		return c
	}
}

// WithTimeout sets how long to wait for the database file lock.
// Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(c config) config {
		c.timeout = max(d, 0)

		return c
	}
}

// WithLogger sets the logger for store operations.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

func makeConfig(opts ...Option) config {
	c := config{bucket: DefaultBucket, timeout: DefaultTimeout}
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// Open returns the backend named by dsn: an empty dsn or [MemoryDSN] yields a
// [Memory] store, and anything else is the path of a bbolt database file.
func Open(dsn string, opts ...Option) (Store, error) {
	if dsn == "" || strings.EqualFold(dsn, MemoryDSN) {
		return NewMemory(opts...), nil
	}

	return OpenBolt(dsn, opts...)
}

func keyAttr(key string) slog.Attr { return slog.String("key", key) }

func alive(ctx context.Context) error {
	return context.Cause(ctx)
}
