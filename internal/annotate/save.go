package annotate

import (
	"fmt"

	"github.com/inodb/vibe-triage/internal/output"
)

// Outputs names the files a run is persisted to.
type Outputs struct {
	Variants   string // bounded listing (default variants.json)
	Statistics string // statistics (default analysis_results.json)
}

// DefaultOutputs returns the default report file names.
func DefaultOutputs() Outputs {
	return Outputs{
		Variants:   "variants.json",
		Statistics: "analysis_results.json",
	}
}

// Save writes the listing and the statistics as indented JSON.
func Save(r *Result, o Outputs) error {
	if err := output.WriteJSONFile(o.Variants, r.Listing); err != nil {
		return fmt.Errorf("save variants: %w", err)
	}
	if err := output.WriteJSONFile(o.Statistics, r.Stats); err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}
