package triage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-triage/internal/vcf"
)

// Retention thresholds. A record is kept only if both are met.
const (
	MinQuality = 30.0
	MinDepth   = 10
)

// INFO keys read from each record.
const (
	InfoDepth           = "DP"
	InfoAlleleFrequency = "AF"
)

// Defaults holds the values substituted for missing record fields.
// Missing fields are a data-quality condition, not an error.
//
//	field             source           default
//	quality           QUAL             0
//	depth             INFO DP          0
//	allele frequency  INFO AF (first)  0
var Defaults = struct {
	Quality         float64
	Depth           int
	AlleleFrequency float64
}{
	Quality:         0,
	Depth:           0,
	AlleleFrequency: 0,
}

// Extractor turns raw records into retained variants.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an extractor that logs nothing.
func NewExtractor() *Extractor {
	return &Extractor{logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Extract reads src to the end and returns retained variants in input
// order. Any read or parse error aborts extraction.
func (e *Extractor) Extract(src vcf.RecordSource) ([]*Variant, error) {
	var (
		variants  []*Variant
		discarded int
	)

	for {
		r, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("read record at line %d: %w", src.LineNumber(), err)
		}
		if r == nil {
			break
		}

		v, ok := FromRecord(r)
		if !ok {
			discarded++
			continue
		}
		variants = append(variants, v)
	}

	e.logger.Debug("filtered variant records",
		zap.Int("kept", len(variants)),
		zap.Int("discarded", discarded))

	return variants, nil
}

// FromRecord applies defaults and the retention thresholds to one record.
// It returns false if the record is discarded.
func FromRecord(r *vcf.Record) (*Variant, bool) {
	qual := Defaults.Quality
	if r.Qual != nil {
		qual = *r.Qual
	}

	dp, ok := r.InfoInt(InfoDepth)
	if !ok {
		dp = Defaults.Depth
	}

	if qual < MinQuality || dp < MinDepth {
		return nil, false
	}

	af, ok := r.InfoFloat(InfoAlleleFrequency, 0)
	if !ok {
		af = Defaults.AlleleFrequency
	}

	return &Variant{
		Chrom: r.Chrom,
		Pos:   r.Pos,
		Ref:   r.Ref,
		Alt:   r.FirstAlt(),
		AF:    af,
		DP:    dp,
		Qual:  qual,
	}, true
}
