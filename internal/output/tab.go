package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-triage/internal/triage"
)

// TabWriter writes triaged variants in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#CHROM",
			"POS",
			"REF",
			"ALT",
			"TYPE",
			"AF",
			"DP",
			"QUAL",
			"CLIN_SIG",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single variant.
func (tw *TabWriter) Write(v *triage.Variant) error {
	alt := v.Alt
	if alt == "" {
		alt = "."
	}

	clinSig := v.ClinicalSignificance
	if clinSig == "" {
		clinSig = "-"
	}

	values := []string{
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		v.Ref,
		alt,
		v.Kind(),
		strconv.FormatFloat(v.AF, 'g', -1, 64),
		strconv.Itoa(v.DP),
		strconv.FormatFloat(v.Qual, 'g', -1, 64),
		clinSig,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header followed by every variant, then flushes.
func (tw *TabWriter) WriteAll(variants []*triage.Variant) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, v := range variants {
		if err := tw.Write(v); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
