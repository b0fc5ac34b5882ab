// Package codecache persists translated chunks in SQLite, keyed by the
// content digest of the level-one program they were translated from. A hit
// skips translation entirely; a miss translates and stores. The cache only
// holds wire-encodable chunks; anything else is recompiled every time.
//
// Cached translations bake in dispatch resolution decisions, so the cache is
// only valid for one shape of the dispatch table. Callers purge it when
// definitions change.
package codecache

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tliron/commonlog"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/l1"
	"github.com/chazu/optic/pkg/l2"
	"github.com/chazu/optic/pkg/wire"
)

var log = commonlog.GetLogger("optic.codecache")

// ErrMiss indicates the digest has no cached translation.
var ErrMiss = errors.New("code cache miss")

// Cache is a persistent compiled-code cache.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if missing) a cache database at the given path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Busy timeout for concurrent access.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		digest BLOB PRIMARY KEY,
		name TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Put stores a translated chunk under the program digest. Chunks that are
// not wire-encodable return wire.ErrUnencodable and are not stored.
func (c *Cache) Put(digest [32]byte, chunk *l2.Chunk) error {
	data, err := wire.EncodeChunk(chunk)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO chunks (digest, name, unit_id, data, created_at) VALUES (?, ?, ?, ?, ?)",
		digest[:], chunk.Name, chunk.UnitID.String(), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storing chunk: %w", err)
	}
	return nil
}

// Get loads the cached translation for a program digest, re-resolving it
// against the given dispatch table. Returns ErrMiss when absent.
func (c *Cache) Get(digest [32]byte, table *dispatch.Table, resolve wire.TypeResolver) (*l2.Chunk, error) {
	var data []byte
	err := c.db.QueryRow("SELECT data FROM chunks WHERE digest = ?", digest[:]).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("querying chunk: %w", err)
	}
	return wire.DecodeChunk(data, table, resolve)
}

// Purge drops every cached translation. Called when the dispatch table's
// definitions change, invalidating baked-in resolution decisions.
func (c *Cache) Purge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}
	return nil
}

// Stats summarizes cache contents.
type Stats struct {
	Chunks int
	Bytes  int64
}

// Stats reports the number of cached chunks and their total encoded size.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	err := c.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0) FROM chunks").
		Scan(&s.Chunks, &s.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("querying cache stats: %w", err)
	}
	return s, nil
}

// Translate returns the cached translation of src if present, translating
// and caching on a miss. Chunks the wire format cannot carry are translated
// but not stored.
func (c *Cache) Translate(src *l1.Chunk, table *dispatch.Table, opts l2.Options, resolve wire.TypeResolver) (*l2.Chunk, error) {
	digest, err := wire.ProgramDigest(src)
	if err != nil && !errors.Is(err, wire.ErrUnencodable) {
		return nil, err
	}
	cacheable := err == nil

	if cacheable {
		if chunk, err := c.Get(digest, table, resolve); err == nil {
			log.Debugf("cache hit for %q", src.Name)
			return chunk, nil
		} else if !errors.Is(err, ErrMiss) {
			return nil, err
		}
	}

	chunk, err := l2.Translate(src, table, opts)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := c.Put(digest, chunk); err != nil && !errors.Is(err, wire.ErrUnencodable) {
			return nil, err
		}
	}
	return chunk, nil
}
