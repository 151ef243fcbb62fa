package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/inodb/vibe-triage/internal/stats"
)

// WriteSummary prints the human-readable run summary. labels may be nil.
func WriteSummary(w io.Writer, s *stats.Statistics, labels map[string]int) error {
	mostCommon := "-"
	if s.MostCommonChromosome != nil {
		mostCommon = *s.MostCommonChromosome
	}

	lines := []string{
		"",
		"Summary Statistics:",
		fmt.Sprintf("Total Variants: %s", humanize.Comma(int64(s.TotalVariants))),
		fmt.Sprintf("SNPs: %s (%.1f%%)", humanize.Comma(int64(s.SNPCount)), s.SNPPercentage),
		fmt.Sprintf("Indels: %s (%.1f%%)", humanize.Comma(int64(s.IndelCount)), s.IndelPercentage),
		fmt.Sprintf("Most Common Chromosome: %s", mostCommon),
	}

	if s.ChromosomeCounts != nil {
		lines = append(lines, fmt.Sprintf("Chromosomes: %d", s.ChromosomeCounts.Len()))
	}
	if outside := s.TotalVariants - s.AFHistogram.Total(); outside > 0 {
		lines = append(lines, fmt.Sprintf("Allele Frequencies Outside [0, 1]: %s", humanize.Comma(int64(outside))))
	}

	if len(labels) > 0 {
		lines = append(lines, "", "Clinical Significance:")
		for _, l := range sortLabels(labels) {
			lines = append(lines, fmt.Sprintf("  %s: %s", l, humanize.Comma(int64(labels[l]))))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// sortLabels orders labels by descending count, then by name.
func sortLabels(labels map[string]int) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if labels[keys[i]] != labels[keys[j]] {
			return labels[keys[i]] > labels[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
