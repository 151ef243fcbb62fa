// Package duckdb provides DuckDB-backed persistence for triage runs.
// Clinical-significance labels are cached in an upsert table (one atomic
// statement per new label), and triaged variants can be exported for
// ad hoc SQL queries.
package duckdb

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for significance labels and variant exports.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// DamagedSuffix is appended to a database file that OpenOrRecover moved
// aside.
const DamagedSuffix = ".damaged"

// fileMagic is the DuckDB file signature stored at byte offset 8.
var fileMagic = []byte("DUCK")

// OpenOrRecover opens the database at path like Open. If an existing file
// is not a DuckDB database at all, it is renamed to path+DamagedSuffix and
// a fresh database is created in its place. The second result names the
// moved file and is empty when no recovery happened. Files that carry the
// DuckDB signature are never moved, so a locked or newer-version database
// still fails with the original error.
func OpenOrRecover(path string) (*Store, string, error) {
	s, err := Open(path)
	if err == nil || path == "" {
		return s, "", err
	}
	if !isForeignFile(path) {
		return nil, "", err
	}

	aside := path + DamagedSuffix
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, "", errors.Join(err, fmt.Errorf("move damaged database aside: %w", rerr))
	}
	// The write-ahead log belongs to the moved file.
	if _, werr := os.Stat(path + ".wal"); werr == nil {
		_ = os.Rename(path+".wal", aside+".wal")
	}

	s, err = Open(path)
	if err != nil {
		return nil, aside, err
	}
	return s, aside, nil
}

// isForeignFile reports whether path exists and lacks the DuckDB signature.
func isForeignFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return n < len(head) || !bytes.Equal(head[8:12], fileMagic)
}

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS significance_cache (
			id VARCHAR PRIMARY KEY,
			label VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS triaged_variants (
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			af DOUBLE,
			dp BIGINT,
			qual DOUBLE,
			clinical_significance VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS triage_runs (
			run_id VARCHAR PRIMARY KEY,
			source_path VARCHAR,
			source_size BIGINT,
			source_modtime TIMESTAMP,
			variant_count BIGINT,
			exported_at TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
