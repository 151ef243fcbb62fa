// Package annotate runs the triage pipeline: filtering, bounded
// clinical-significance annotation and summary statistics.
package annotate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-triage/internal/spdi"
	"github.com/inodb/vibe-triage/internal/stats"
	"github.com/inodb/vibe-triage/internal/triage"
	"github.com/inodb/vibe-triage/internal/vcf"
)

// Default caps applied by a pipeline run.
const (
	DefaultQueryLimit  = 300  // variants resolved remotely, in filtered order
	DefaultOutputLimit = 1000 // variants written to the listing
)

// Labels assigned without a remote lookup.
const (
	LabelInvalidFormat = "Invalid format" // chromosome has no accession
	LabelNotQueried    = "Not queried"    // beyond the query limit
)

// Resolver returns a clinical-significance label for an SPDI identifier.
// It reports failures as labels, never as errors.
type Resolver interface {
	Resolve(ctx context.Context, id string) string
}

// Result holds the outputs of one pipeline run.
type Result struct {
	Variants []*triage.Variant // every retained variant, labeled
	Listing  []*triage.Variant // first OutputLimit variants
	Stats    *stats.Statistics // computed over Variants
	Labels   map[string]int    // label counts over Variants
}

// Pipeline sequences extraction, bounded annotation and aggregation.
// A Pipeline owns its resolver for the duration of a run and is not safe
// for concurrent use.
type Pipeline struct {
	resolver    Resolver
	extractor   *triage.Extractor
	queryLimit  int
	outputLimit int
	logger      *zap.Logger
}

// NewPipeline creates a pipeline with the default caps.
func NewPipeline(r Resolver) *Pipeline {
	return &Pipeline{
		resolver:    r,
		extractor:   triage.NewExtractor(),
		queryLimit:  DefaultQueryLimit,
		outputLimit: DefaultOutputLimit,
		logger:      zap.NewNop(),
	}
}

// SetLimits overrides the query and output caps. Negative values are
// treated as zero.
func (p *Pipeline) SetLimits(query, output int) {
	p.queryLimit = max(query, 0)
	p.outputLimit = max(output, 0)
}

// SetLogger sets the logger for progress messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
	p.extractor.SetLogger(l)
}

// Run reads src to the end and returns the labeled variants, the bounded
// listing and statistics over the full retained set. Source errors and
// context cancellation are returned; lookup failures end up as labels.
func (p *Pipeline) Run(ctx context.Context, src vcf.RecordSource) (*Result, error) {
	variants, err := p.extractor.Extract(src)
	if err != nil {
		return nil, fmt.Errorf("extract variants: %w", err)
	}
	if variants == nil {
		variants = []*triage.Variant{}
	}
	p.logger.Info("retained variants", zap.Int("count", len(variants)))

	queried := min(p.queryLimit, len(variants))
	p.logger.Info("querying clinical significance", zap.Int("variants", queried))

	labels := make(map[string]int)
	for i, v := range variants {
		if i < queried {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("annotate variants: %w", err)
			}
			v.ClinicalSignificance = p.label(ctx, v)
			if (i+1)%50 == 0 {
				p.logger.Debug("annotation progress", zap.Int("done", i+1), zap.Int("total", queried))
			}
		} else {
			v.ClinicalSignificance = LabelNotQueried
		}
		labels[v.ClinicalSignificance]++
	}
	// A cancellation during the last lookup leaves that variant labeled "Error".
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("annotate variants: %w", err)
	}

	return &Result{
		Variants: variants,
		Listing:  variants[:min(p.outputLimit, len(variants))],
		Stats:    stats.Compute(variants),
		Labels:   labels,
	}, nil
}

// label translates v and resolves its identifier.
func (p *Pipeline) label(ctx context.Context, v *triage.Variant) string {
	id, err := spdi.FromVariant(v.Chrom, v.Pos, v.Ref, v.Alt)
	if err != nil {
		p.logger.Debug("skipping lookup", zap.String("chrom", v.Chrom), zap.Int64("pos", v.Pos), zap.Error(err))
		return LabelInvalidFormat
	}
	return p.resolver.Resolve(ctx, id)
}
