// Package buildcache stores generated C sources keyed by a content hash of
// the IR, so unchanged functions skip re-emission across driver runs. The
// store is a single SQLite database.
package buildcache

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key        TEXT PRIMARY KEY,
	build_id   TEXT NOT NULL,
	csource    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Cache is an on-disk artifact cache. A fresh build id is minted per open
// so entries can be traced back to the run that produced them.
type Cache struct {
	db      *sql.DB
	BuildID string
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening build cache %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing build cache schema")
	}
	return &Cache{db: db, BuildID: uuid.NewString()}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached C source for key, if present.
func (c *Cache) Get(key string) (string, bool, error) {
	var csource string
	err := c.db.QueryRow(`SELECT csource FROM artifacts WHERE key = ?`, key).Scan(&csource)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading cache entry %s", key)
	}
	return csource, true, nil
}

// Put stores the C source for key, replacing any previous entry.
func (c *Cache) Put(key, csource string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO artifacts (key, build_id, csource, created_at) VALUES (?, ?, ?, ?)`,
		key, c.BuildID, csource, time.Now().Unix())
	return errors.Wrapf(err, "writing cache entry %s", key)
}

// Stats returns the number of cached artifacts.
func (c *Cache) Stats() (int64, error) {
	var n int64
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "counting cache entries")
	}
	return n, nil
}

// Clear removes every cached artifact.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM artifacts`)
	return errors.Wrap(err, "clearing build cache")
}
