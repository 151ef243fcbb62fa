// Package vcf provides VCF file parsing functionality.
package vcf

// RecordSource is the interface for sequential record readers.
// A source is lazy, finite and cannot be restarted.
type RecordSource interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the source and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
