package duckdb

import (
	"os"
	"time"
)

// FileFingerprint identifies the input file an export was produced from.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatSource fingerprints an input path. Standard input ("-") has no
// size or modification time.
func StatSource(path string) (FileFingerprint, error) {
	if path == "-" {
		return FileFingerprint{Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
