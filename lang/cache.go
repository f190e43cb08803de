package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/klisp/log"
)

// Program is the parsed form of a complete source text. Programs returned by
// [ParseCached] are shared and must not be modified.
type Program struct {
	Source string
	Hash   uint64
	Forms  []*Form
	Errors []*Error
}

// maxCached bounds the parse cache. Editors re-analyze on every keystroke,
// so without a bound every intermediate buffer state would be retained.
const maxCached = 512

var (
	parseCache  sync.Map // uint64 -> *cacheEntry
	cacheSize   atomic.Int64
	cacheLogger atomic.Pointer[log.Logger]
)

type cacheEntry struct {
	once sync.Once
	prog *Program
}

// SetCacheLogger sets the logger used for parse cache tracing.
func SetCacheLogger(l log.Logger) { cacheLogger.Store(&l) }

func cacheLog() log.Logger {
	if l := cacheLogger.Load(); l != nil {
		return *l
	}

	return log.Logger{}
}

// HashSource returns the content hash used to key cached programs.
func HashSource(src string) uint64 { return xxh3.HashString(src) }

// ParseCached parses src, reusing the result of an earlier parse of the same
// text. Concurrent calls for the same text parse it once.
func ParseCached(ctx context.Context, src string) *Program {
	h := HashSource(src)

	v, hit := parseCache.Load(h)
	if !hit {
		if cacheSize.Add(1) > maxCached {
			ClearCache()
			cacheSize.Add(1)
		}

		v, hit = parseCache.LoadOrStore(h, new(cacheEntry))
	}

	entry := v.(*cacheEntry)
	entry.once.Do(func() {
		forms, errs := Parse(src)
		entry.prog = &Program{Source: src, Hash: h, Forms: forms, Errors: errs}
	})

	// Guard against hash collisions between distinct texts.
	if entry.prog.Source != src {
		forms, errs := Parse(src)

		return &Program{Source: src, Hash: h, Forms: forms, Errors: errs}
	}

	cacheLog().TraceContext(ctx, "parse",
		slog.String("hash", strconv.FormatUint(h, 16)),
		slog.Bool("cache_hit", hit),
		slog.Int("forms", len(entry.prog.Forms)),
		slog.Int("errors", len(entry.prog.Errors)),
	)

	return entry.prog
}

// ParseReader reads all of r and parses it through the cache.
func ParseReader(ctx context.Context, r io.Reader) (*Program, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return ParseCached(ctx, string(data)), nil
}

// ClearCache drops every cached program.
func ClearCache() {
	parseCache.Range(func(k, _ any) bool {
		parseCache.Delete(k)

		return true
	})
	cacheSize.Store(0)
}
