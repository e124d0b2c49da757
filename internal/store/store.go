// Package store caches completed Analyses in a BadgerDB key-value store,
// keyed by the exact search parameters that produced them, so re-running a
// mining pass over overlapping seeds doesn't re-drive the engine for a
// position it has already searched under the same protocol and caps.
//
// This is strictly a cache: it is never consulted in place of seen_set or
// analyzed_set, which govern de-duplication within a single run regardless
// of what's on disk from a previous one.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/puzzleforge/internal/analysis"
)

// Cache wraps a BadgerDB instance dedicated to analysis results.
type Cache struct {
	db *badger.DB
}

// Open opens (creating if necessary) a BadgerDB cache rooted at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Key identifies one cached Analysis: the exact protocol, position, and
// caps that produced it. Two searches of the same FEN under different
// caps or a different engine are different cache entries.
type Key struct {
	ProtocolHash  string
	FEN           string
	NodesCap      int64
	DurationCapMs int64
}

func (k Key) encode() []byte {
	return []byte(fmt.Sprintf("%s|%s|%d|%d", k.ProtocolHash, k.FEN, k.NodesCap, k.DurationCapMs))
}

// ProtocolHash derives the cache-key component for one Engine Protocol
// descriptor from its serialized form, so that changing the engine's
// setup sequence invalidates cached entries instead of silently reusing
// analyses from a different configuration.
func ProtocolHash(descriptorBytes []byte) string {
	sum := sha256.Sum256(descriptorBytes)
	return hex.EncodeToString(sum[:8])
}

// Get returns the cached Analysis for key, or ok=false if absent.
func (c *Cache) Get(key Key) (a *analysis.Analysis, ok bool, err error) {
	err = c.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key.encode())
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error {
			a = analysis.New()
			return json.Unmarshal(val, a)
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: get: %w", err)
	}
	return a, ok, nil
}

// Put stores a under key, overwriting any existing entry.
func (c *Cache) Put(key Key, a *analysis.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key.encode(), data)
	})
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	return nil
}
