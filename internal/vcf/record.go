package vcf

import (
	"math"
	"strconv"
	"strings"
)

// Record represents a single data line from a VCF file.
type Record struct {
	Chrom  string                 // Chromosome name (e.g., "17", "chr17")
	Pos    int64                  // 1-based genomic position
	ID     string                 // Variant identifier (e.g., rs ID)
	Ref    string                 // Reference allele
	Alts   []string               // Alternate alleles in file order
	Qual   *float64               // Quality score, nil when QUAL is "."
	Filter string                 // Filter status (PASS or filter name)
	Info   map[string]interface{} // INFO key-value pairs; flags map to true
}

// FirstAlt returns the first alternate allele, or "" if there is none.
func (r *Record) FirstAlt() string {
	if len(r.Alts) == 0 {
		return ""
	}
	return r.Alts[0]
}

// InfoInt returns an integer INFO value such as DP.
// The second result is false if the key is missing or not an integer.
func (r *Record) InfoInt(key string) (int, bool) {
	s, ok := r.Info[key].(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// InfoFloat returns the i-th value of a comma-separated float INFO field
// such as AF. The second result is false if the key is missing, has fewer
// than i+1 values, or the value is "." or not a number.
func (r *Record) InfoFloat(key string, i int) (float64, bool) {
	s, ok := r.Info[key].(string)
	if !ok {
		return 0, false
	}
	parts := strings.Split(s, ",")
	if i < 0 || i >= len(parts) {
		return 0, false
	}
	f, err := strconv.ParseFloat(parts[i], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
