package imagecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Handle is an ephemeral local reference to a cached blob: the bytes plus a
// temp file materialization for consumers that need a path (print layout,
// external viewers). Callers must Release the handle when the image is no
// longer displayed; Release is idempotent.
type Handle struct {
	URL string

	data []byte

	mu       sync.Mutex
	path     string
	released bool
}

// Bytes returns the cached blob contents.
func (h *Handle) Bytes() []byte {
	return h.data
}

// Path materializes the blob into a temp file on first use and returns its
// location. The file lives until Release.
func (h *Handle) Path() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return "", errors.New("image cache: handle released")
	}
	if h.path != "" {
		return h.path, nil
	}
	f, err := os.CreateTemp("", "proxyforge-img-*")
	if err != nil {
		return "", fmt.Errorf("image cache: materialize blob: %w", err)
	}
	if _, err := f.Write(h.data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("image cache: materialize blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("image cache: materialize blob: %w", err)
	}
	h.path = f.Name()
	return h.path, nil
}

// Release frees the materialized file, if any. Mandatory once the handle is
// no longer displayed.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if h.path != "" {
		_ = os.Remove(h.path)
		h.path = ""
	}
}

// Get returns a handle for the cached blob under url, or nil on miss. An
// entry older than the TTL is treated as absent and purged.
func (s *Store) Get(ctx context.Context, url string) (*Handle, error) {
	var (
		blob  []byte
		stamp string
	)
	err := s.db.QueryRowContext(ctx, `SELECT blob, timestamp FROM images WHERE url = ?`, url).Scan(&blob, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("image cache: get %s: %w", url, err)
	}

	created, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		// Unreadable timestamp: treat the entry as expired.
		created = time.Time{}
	}
	if s.now().Sub(created) > s.ttl {
		if err := s.Delete(ctx, url); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &Handle{URL: url, data: blob}, nil
}

// Set stores blob under url, replacing any previous entry.
func (s *Store) Set(ctx context.Context, url string, blob []byte) error {
	if url == "" {
		return errors.New("image cache: url required")
	}
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithRetry(ctx,
		`INSERT INTO images (url, blob, timestamp) VALUES (?, ?, ?)
         ON CONFLICT(url) DO UPDATE SET blob = excluded.blob, timestamp = excluded.timestamp`,
		url, blob, stamp,
	); err != nil {
		return fmt.Errorf("image cache: set %s: %w", url, err)
	}
	return nil
}

// Delete removes the entry under url. Deleting a missing entry is not an
// error.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := s.execWithRetry(ctx, `DELETE FROM images WHERE url = ?`, url); err != nil {
		return fmt.Errorf("image cache: delete %s: %w", url, err)
	}
	return nil
}

// Clear removes every cached entry.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.execWithRetry(ctx, `DELETE FROM images`); err != nil {
		return fmt.Errorf("image cache: clear: %w", err)
	}
	return nil
}

// Prune sweeps all expired entries and returns how many were removed.
// Expiry is otherwise lazy (on access), so Prune exists for the CLI.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE timestamp < ?`, cutoff)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("image cache: prune: %w", err)
	}
	return removed, nil
}

// Stats reports the number of cached entries and their total blob size.
func (s *Store) Stats(ctx context.Context) (count int64, bytes int64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(LENGTH(blob)), 0) FROM images`,
	).Scan(&count, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("image cache: stats: %w", err)
	}
	return count, bytes, nil
}
