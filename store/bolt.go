package store

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	bolt "go.etcd.io/bbolt"

	"github.com/ardnew/klisp/pkg"
)

// Bolt is a [Store] persisted in a bbolt database file. All entries live in
// one bucket.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
	closed atomic.Bool
	cfg    config
}

// OpenBolt opens or creates the database at path, creating missing parent
// directories.
func OpenBolt(path string, opts ...Option) (*Bolt, error) {
	cfg := makeConfig(opts...)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, pkg.ErrOpenStore.Wrap(err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: cfg.timeout})
	if err != nil {
		return nil, pkg.ErrOpenStore.Wrapf("%s: %w", path, err)
	}

	b := &Bolt{db: db, bucket: []byte(cfg.bucket), cfg: cfg}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)

		return err
	}); err != nil {
		_ = db.Close()

		return nil, pkg.ErrOpenStore.Wrapf("%s: %w", path, err)
	}

	cfg.logger.Debug("opened store",
		slog.String("path", path),
		slog.String("bucket", cfg.bucket),
	)

	return b, nil
}

// Path returns the database file path.
func (b *Bolt) Path() string { return b.db.Path() }

func (b *Bolt) ready(ctx context.Context) error {
	if b.closed.Load() {
		return pkg.ErrStoreClosed
	}

	return alive(ctx)
}

// Get implements [lang.Storage].
func (b *Bolt) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	if err := b.ready(ctx); err != nil {
		return "", false, err
	}

	err = b.db.View(func(tx *bolt.Tx) error {
		// Bytes returned by Get are only valid inside the transaction.
		if v := tx.Bucket(b.bucket).Get([]byte(key)); v != nil {
			value, ok = string(v), true
		}

		return nil
	})

	return value, ok, err
}

// Put implements [lang.Storage].
func (b *Bolt) Put(ctx context.Context, key, value string) error {
	if err := b.ready(ctx); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), []byte(value))
	})
	if err == nil {
		b.cfg.logger.TraceContext(ctx, "bolt put", keyAttr(key))
	}

	return err
}

// Delete implements [lang.Storage].
func (b *Bolt) Delete(ctx context.Context, key string) error {
	if err := b.ready(ctx); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
}

// Keys implements [lang.Storage]. Keys are returned in byte order.
func (b *Bolt) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := b.ready(ctx); err != nil {
		return nil, err
	}

	var keys []string

	err := b.db.View(func(tx *bolt.Tx) error {
		p := []byte(prefix)
		c := tx.Bucket(b.bucket).Cursor()

		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			if len(keys)%256 == 255 {
				if err := alive(ctx); err != nil {
					return err
				}
			}

			keys = append(keys, string(k))
		}

		return nil
	})

	return keys, err
}

// Close closes the database file.
func (b *Bolt) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.cfg.logger.Debug("closed store", slog.String("path", b.db.Path()))

	return b.db.Close()
}
