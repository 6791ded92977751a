package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/bamsammich/cuemerge/internal/layout"
)

// HashCache is a SQLite-backed store of BLAKE3 digests for byte ranges of
// source binaries. Entries are keyed by path, range, size and mtime, so a
// modified file never yields a stale digest.
type HashCache struct {
	db    *sql.DB
	path  string
	batch []cacheEntry
	mu    sync.Mutex
}

type cacheEntry struct {
	path      string
	digest    string
	offset    int64
	length    int64
	size      int64
	mtimeNano int64
}

// DefaultHashCachePath returns $XDG_CACHE_HOME/cuemerge/digests.db, or the
// platform cache directory equivalent.
func DefaultHashCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "cuemerge", "digests.db")
}

// OpenHashCache opens (or creates) the cache database at path.
func OpenHashCache(path string) (*HashCache, error) {
	if path == "" {
		path = DefaultHashCachePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open hash cache: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS digests (
			path      TEXT NOT NULL,
			range_off INTEGER NOT NULL,
			range_len INTEGER NOT NULL,
			size      INTEGER NOT NULL,
			mtime     INTEGER NOT NULL,
			digest    TEXT NOT NULL,
			PRIMARY KEY (path, range_off, range_len)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &HashCache{db: db, path: path}, nil
}

// Lookup returns the digest recorded for the range, if the file still has
// the recorded size and mtime.
func (c *HashCache) Lookup(path string, offset, length, size, mtimeNano int64) (string, bool) {
	var digest string
	var storedSize, storedMtime int64
	err := c.db.QueryRow(
		"SELECT size, mtime, digest FROM digests WHERE path = ? AND range_off = ? AND range_len = ?",
		path, offset, length,
	).Scan(&storedSize, &storedMtime, &digest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false
	case err != nil:
		slog.Debug("digest cache lookup failed", "path", path, "error", err)
		return "", false
	case storedSize != size || storedMtime != mtimeNano:
		return "", false
	}
	return digest, true
}

// Put queues a digest for the next Flush.
func (c *HashCache) Put(path string, offset, length, size, mtimeNano int64, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = append(c.batch, cacheEntry{
		path:      path,
		offset:    offset,
		length:    length,
		size:      size,
		mtimeNano: mtimeNano,
		digest:    digest,
	})
}

// Flush writes queued digests in one transaction.
func (c *HashCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batch) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO digests (path, range_off, range_len, size, mtime, digest)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range c.batch {
		if _, err := stmt.Exec(e.path, e.offset, e.length, e.size, e.mtimeNano, e.digest); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", e.path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.batch = c.batch[:0]
	return nil
}

// Close flushes pending digests and closes the database.
func (c *HashCache) Close() error {
	ferr := c.Flush()
	if err := c.db.Close(); err != nil {
		return err
	}
	return ferr
}

// Path returns the database file path.
func (c *HashCache) Path() string {
	return c.path
}

// TrackDigest is the BLAKE3 digest of one track's bytes.
type TrackDigest struct {
	Path   string
	Digest string
	Offset int64
	Length int64
	Track  int
	Cached bool
}

// HashTracks hashes the source bytes of every track in p. cache may be nil.
func HashTracks(ctx context.Context, p *layout.Plan, cache *HashCache) ([]TrackDigest, error) {
	out := make([]TrackDigest, 0, len(p.Extents))
	for _, e := range p.Extents {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		d := TrackDigest{Track: e.Track, Path: e.Source, Offset: e.SourceOffset, Length: e.Length}
		info, err := os.Stat(e.Source)
		if err != nil {
			return nil, &IOError{Kind: ReadFailure, Path: e.Source, Err: err}
		}
		mtime := info.ModTime().UnixNano()

		if cache != nil {
			if digest, ok := cache.Lookup(e.Source, e.SourceOffset, e.Length, info.Size(), mtime); ok {
				d.Digest, d.Cached = digest, true
				out = append(out, d)
				continue
			}
		}

		digest, err := hashExtent(LocalSource{}, e.Source, e.SourceOffset, e.Length)
		if err != nil {
			return nil, &IOError{Kind: ReadFailure, Path: e.Source, Err: err}
		}
		d.Digest = digest
		if cache != nil {
			cache.Put(e.Source, e.SourceOffset, e.Length, info.Size(), mtime, digest)
		}
		out = append(out, d)
	}

	if cache != nil {
		if err := cache.Flush(); err != nil {
			return out, fmt.Errorf("hash cache: %w", err)
		}
	}
	return out, nil
}
