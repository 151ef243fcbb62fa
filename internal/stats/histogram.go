package stats

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// HistogramBins is the number of allele-frequency bins.
const HistogramBins = 10

// Histogram counts allele frequencies in ten bins of width 0.1 over [0, 1].
// The last bin is closed so that 1.0 lands in "0.9-1.0".
type Histogram [HistogramBins]int

// Bin returns the bin index for v, or false if v lies outside [0, 1].
func Bin(v float64) (int, bool) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, false
	}
	return min(int(math.Floor(v*10)), HistogramBins-1), true
}

// Add counts v if it lies in [0, 1] and reports whether it was counted.
func (h *Histogram) Add(v float64) bool {
	i, ok := Bin(v)
	if ok {
		h[i]++
	}
	return ok
}

// Total returns the number of counted values.
func (h *Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// BinLabel returns the label of bin i, e.g. "0.3-0.4".
func BinLabel(i int) string {
	return fmt.Sprintf("%.1f-%.1f", float64(i)/10, float64(i+1)/10)
}

// MarshalJSON writes the bins as an object keyed by BinLabel, in bin order.
func (h Histogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(BinLabel(i)))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

