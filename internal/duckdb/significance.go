package duckdb

import (
	"fmt"
	"sort"
)

const upsertSignificance = `INSERT OR REPLACE INTO significance_cache (id, label) VALUES (?, ?)`

// Load returns all cached significance labels. It satisfies cache.Store.
func (s *Store) Load() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT id, label FROM significance_cache`)
	if err != nil {
		return nil, fmt.Errorf("query significance cache: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan significance: %w", err)
		}
		entries[id] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate significance cache: %w", err)
	}
	return entries, nil
}

// Put upserts the single entry for id. Unlike the JSON file store this
// costs O(1) per insert.
func (s *Store) Put(entries map[string]string, id string) error {
	label, ok := entries[id]
	if !ok {
		return fmt.Errorf("no entry for %s", id)
	}
	if _, err := s.db.Exec(upsertSignificance, id, label); err != nil {
		return fmt.Errorf("upsert significance %s: %w", id, err)
	}
	return nil
}

// Flush upserts every entry in one transaction.
func (s *Store) Flush(entries map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertSignificance)
	if err != nil {
		return fmt.Errorf("prepare flush: %w", err)
	}
	defer stmt.Close()

	// Sorted for deterministic write order.
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := stmt.Exec(id, entries[id]); err != nil {
			return fmt.Errorf("flush significance %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SignificanceCount returns the number of cached labels.
func (s *Store) SignificanceCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM significance_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count significance cache: %w", err)
	}
	return n, nil
}

// ClearSignificance removes all cached labels.
func (s *Store) ClearSignificance() error {
	_, err := s.db.Exec(`DELETE FROM significance_cache`)
	return err
}
