// Package stats computes summary statistics over triaged variants.
package stats

import (
	"github.com/inodb/vibe-triage/internal/triage"
)

// Statistics summarizes a retained variant set. It is computed once and
// not modified afterwards.
type Statistics struct {
	TotalVariants        int            `json:"total_variants"`
	SNPCount             int            `json:"snp_count"`
	IndelCount           int            `json:"indel_count"`
	SNPPercentage        float64        `json:"snp_percentage"`
	IndelPercentage      float64        `json:"indel_percentage"`
	MostCommonChromosome *string        `json:"most_common_chromosome"`
	AFHistogram          Histogram      `json:"af_histogram"`
	AFValues             []float64      `json:"af_values"`
	DPValues             []int          `json:"dp_values"`
	ChromosomeCounts     *OrderedCounts `json:"chromosome_counts"`
}

// Compute aggregates variants in a single pass.
//
// Allele frequencies outside [0, 1] are left out of the histogram but
// still appear in AFValues and in the SNP/indel tallies, so the histogram
// total can be lower than TotalVariants.
func Compute(variants []*triage.Variant) *Statistics {
	s := &Statistics{
		AFValues:         make([]float64, 0, len(variants)),
		DPValues:         make([]int, 0, len(variants)),
		ChromosomeCounts: NewOrderedCounts(),
	}

	for _, v := range variants {
		if v.IsSNP() {
			s.SNPCount++
		} else {
			s.IndelCount++
		}

		s.AFValues = append(s.AFValues, v.AF)
		s.DPValues = append(s.DPValues, v.DP)
		s.AFHistogram.Add(v.AF)
		s.ChromosomeCounts.Inc(v.Chrom)
	}

	s.TotalVariants = len(variants)
	if s.TotalVariants > 0 {
		s.SNPPercentage = float64(s.SNPCount) / float64(s.TotalVariants) * 100
		s.IndelPercentage = float64(s.IndelCount) / float64(s.TotalVariants) * 100
	}

	if chrom, _, ok := s.ChromosomeCounts.Max(); ok {
		s.MostCommonChromosome = &chrom
	}

	return s
}
