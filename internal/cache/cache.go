// Package cache provides the persistent clinical-significance cache that
// sits in front of remote lookups.
package cache

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Store persists cache entries. Implementations must never leave a
// partially written entry behind: after Put or Flush returns, storage holds
// either the previous or the new state.
type Store interface {
	// Load returns all persisted entries.
	Load() (map[string]string, error)
	// Put persists entries after id was inserted or overwritten.
	Put(entries map[string]string, id string) error
	// Flush persists the full mapping.
	Flush(entries map[string]string) error
	// Close releases resources held by the store.
	Close() error
}

// Cache maps SPDI identifiers to clinical-significance labels.
// It is owned by a single pipeline run and is not safe for concurrent use.
type Cache struct {
	entries map[string]string
	store   Store
	logger  *zap.Logger
}

// Open loads a cache from store. Missing or unreadable storage is not an
// error: the cache starts empty and a warning is logged.
func Open(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := store.Load()
	if err != nil {
		logger.Warn("starting with empty significance cache", zap.Error(err))
		entries = nil
	}
	if entries == nil {
		entries = make(map[string]string)
	}

	logger.Debug("loaded significance cache", zap.Int("entries", len(entries)))
	return &Cache{entries: entries, store: store, logger: logger}
}

// Lookup returns the cached label for id.
func (c *Cache) Lookup(id string) (string, bool) {
	label, ok := c.entries[id]
	return label, ok
}

// Store sets the label for id and persists the cache immediately.
// The in-memory entry is kept even if persisting fails, so that a later
// Flush or Close can still write it.
func (c *Cache) Store(id, label string) error {
	c.entries[id] = label
	if err := c.store.Put(c.entries, id); err != nil {
		return fmt.Errorf("persist cache entry %s: %w", id, err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns a copy of all cached entries.
func (c *Cache) Entries() map[string]string {
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Flush writes the full mapping to the store.
func (c *Cache) Flush() error {
	if err := c.store.Flush(c.entries); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	return nil
}

// Close flushes the cache one last time and closes the store.
// Callers should defer Close right after Open.
func (c *Cache) Close() error {
	return errors.Join(c.Flush(), c.store.Close())
}

// IsDuckDB checks if a cache path names a DuckDB database file.
func IsDuckDB(path string) bool {
	return strings.HasSuffix(path, ".duckdb") ||
		strings.HasSuffix(path, ".db")
}
