// Package buildcache is a content-addressed store of compiled IR bundles,
// keyed by a digest over the full source set. `corrosion build` consults it
// before running the pipeline and fills it after; --no-cache bypasses it.
package buildcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	digest     TEXT PRIMARY KEY,
	build_id   TEXT NOT NULL,
	bundle     BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Cache is a sqlite-backed bundle store. Safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest computes the cache key for a source set: order-independent over
// module paths, sensitive to every byte of every module.
func Digest(sources map[string]string) string {
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(sources[p]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached bundle for digest, or ok=false on a miss.
func (c *Cache) Get(digest string) (bundle []byte, buildID string, ok bool, err error) {
	row := c.db.QueryRow(`SELECT bundle, build_id FROM bundles WHERE digest = ?`, digest)
	switch err := row.Scan(&bundle, &buildID); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, "", false, nil
	case err != nil:
		return nil, "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return bundle, buildID, true, nil
}

// Put stores a bundle under digest, replacing any previous entry.
func (c *Cache) Put(digest, buildID string, bundle []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO bundles (digest, build_id, bundle, created_at) VALUES (?, ?, ?, ?)`,
		digest, buildID, bundle, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Prune drops entries older than maxAge and reports how many went away.
func (c *Cache) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := c.db.Exec(`DELETE FROM bundles WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry count and total bundle bytes.
func (c *Cache) Stats() (entries int64, bytes int64, err error) {
	row := c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(LENGTH(bundle)), 0) FROM bundles`)
	if err := row.Scan(&entries, &bytes); err != nil {
		return 0, 0, fmt.Errorf("cache stats: %w", err)
	}
	return entries, bytes, nil
}
