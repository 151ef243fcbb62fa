package stats

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// OrderedCounts counts labels and remembers the order they were first seen.
type OrderedCounts struct {
	keys   []string
	counts map[string]int
}

// NewOrderedCounts creates an empty counter.
func NewOrderedCounts() *OrderedCounts {
	return &OrderedCounts{counts: make(map[string]int)}
}

// Inc increments the count for key.
func (o *OrderedCounts) Inc(key string) {
	if _, ok := o.counts[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.counts[key]++
}

// Len returns the number of distinct labels.
func (o *OrderedCounts) Len() int {
	return len(o.keys)
}

// Max returns the first-seen label with the highest count.
// Ties go to the label seen first, not the lexically smallest.
func (o *OrderedCounts) Max() (string, int, bool) {
	var (
		best  string
		count int
		found bool
	)
	for _, k := range o.keys {
		if c := o.counts[k]; !found || c > count {
			best, count, found = k, c, true
		}
	}
	return best, count, found
}

// MarshalJSON writes an object whose keys follow first-seen order.
func (o *OrderedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(o.counts[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
