package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileMode = 0644

// FileStore persists the cache as a flat JSON object. Every write rewrites
// the whole file through a temporary file and a rename in the same
// directory, so readers never observe a half-written file.
type FileStore struct {
	path string
}

// NewFileStore creates a JSON store at path. Nothing is touched on disk
// until the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the JSON mapping. A missing file yields an empty mapping.
func (s *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", s.path, err)
	}
	return entries, nil
}

// Put rewrites the whole mapping.
func (s *FileStore) Put(entries map[string]string, _ string) error {
	return s.Flush(entries)
}

// Flush atomically replaces the file with entries.
func (s *FileStore) Flush(entries map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	// CreateTemp uses 0600; the cache is an ordinary readable file.
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is closed after every write.
func (s *FileStore) Close() error {
	return nil
}
