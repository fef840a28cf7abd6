package encoding

import (
	"fmt"
	"sort"
)

// DefaultQuantileBins is the number of quantile-derived ranges each
// designated continuous feature is split into.
const DefaultQuantileBins = 7

// BinSpec holds the frozen boundaries of one continuous feature. Intervals
// are right-closed with the lowest edge included, matching the training-time
// cut; labels carry the numeric range.
type BinSpec struct {
	Labels []string  `json:"labels,omitempty"`
	Bounds []float64 `json:"bounds"`
}

// NewBinSpec freezes a set of ascending boundaries.
func NewBinSpec(bounds []float64) BinSpec {
	spec := BinSpec{Bounds: bounds}
	for i := 0; i+1 < len(bounds); i++ {
		spec.Labels = append(spec.Labels, rangeLabel(bounds[i], bounds[i+1]))
	}
	return spec
}

// Label maps a value into its frozen range label. Values outside the
// boundaries yield the empty label, the same way out-of-range rows fell out
// of the training-time cut.
func (b BinSpec) Label(v float64) string {
	if len(b.Bounds) < 2 {
		return ""
	}
	if v < b.Bounds[0] || v > b.Bounds[len(b.Bounds)-1] {
		return ""
	}
	// right-closed intervals, lowest edge inclusive
	for i := 0; i+1 < len(b.Bounds); i++ {
		if v <= b.Bounds[i+1] {
			return b.Labels[i]
		}
	}
	return ""
}

// QuantileBounds derives q-quantile boundaries over the given values with
// linear interpolation, dropping duplicate edges the way the training-time
// cut does on low-cardinality data. Nil-free input only; returns nil when
// fewer than two distinct edges survive.
func QuantileBounds(values []float64, q int) []float64 {
	if len(values) == 0 || q < 1 {
		return nil
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)

	bounds := make([]float64, 0, q+1)
	for i := 0; i <= q; i++ {
		bounds = append(bounds, quantile(s, float64(i)/float64(q)))
	}
	// drop duplicate edges
	dedup := bounds[:1]
	for _, b := range bounds[1:] {
		if b != dedup[len(dedup)-1] {
			dedup = append(dedup, b)
		}
	}
	if len(dedup) < 2 {
		return nil
	}
	return dedup
}

// quantile interpolates linearly over a sorted slice.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func rangeLabel(lo, hi float64) string {
	return fmt.Sprintf("[%.2f-%.2f)", lo, hi)
}
