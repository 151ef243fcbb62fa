// Package triage filters raw variant records into typed variants.
package triage

// Variant kinds reported by Kind.
const (
	KindSNP   = "SNP"
	KindIndel = "indel"
)

// Variant is a retained, quality-filtered variant call.
type Variant struct {
	Chrom                string  `json:"chrom"`
	Pos                  int64   `json:"pos"`
	Ref                  string  `json:"ref"`
	Alt                  string  `json:"alt"` // first alternate allele only
	AF                   float64 `json:"af"`
	DP                   int     `json:"dp"`
	Qual                 float64 `json:"qual"`
	ClinicalSignificance string  `json:"clinical_significance"`
}

// IsSNP reports whether both alleles are a single base. Every other
// variant, including same-length multi-base substitutions, counts as an
// indel.
func (v *Variant) IsSNP() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// Kind returns KindSNP or KindIndel.
func (v *Variant) Kind() string {
	if v.IsSNP() {
		return KindSNP
	}
	return KindIndel
}
