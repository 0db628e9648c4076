// Package buildcache memoizes finished compiles keyed by source text and
// link mode, so the server does not re-run the toolchain for a request it
// has already served.
package buildcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Cache wraps a sqlite-backed table of (key -> compiled program). It is
// cgo-free: modernc.org/sqlite is a pure-Go driver, so the compiler binary
// stays a single static executable.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or attaches to the cache database at path. Use ":memory:"
// for a process-local cache with no persistence.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening build cache")
	}
	const schema = `
CREATE TABLE IF NOT EXISTS builds (
	key         TEXT PRIMARY KEY,
	request_id  TEXT NOT NULL,
	program     BLOB NOT NULL,
	created_at  TEXT NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating build cache schema")
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives a cache key from the source text and link mode. Two requests
// for the same source under the same link mode always hash to the same key.
func Key(source string, linkWithC bool) string {
	h := sha256.New()
	h.Write([]byte(source))
	if linkWithC {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached program for key, if any.
func (c *Cache) Lookup(key string) (program []byte, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRow(`SELECT program FROM builds WHERE key = ?`, key)
	var program_ []byte
	switch err := row.Scan(&program_); err {
	case nil:
		return program_, true, nil
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, errors.Wrap(err, "querying build cache")
	}
}

// Store records a successful compile under key, tagged with a fresh
// correlation id for cache-entry provenance.
func (c *Cache) Store(key string, program []byte) (requestID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO builds (key, request_id, program, created_at) VALUES (?, ?, ?, ?)`,
		key, id, program, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", errors.Wrap(err, "storing build cache entry")
	}
	return id, nil
}
