// Package encoding freezes the categorical feature space: rare-category
// collapse, base-category selection, continuous-feature binning, and the
// coefficient scoring that reuses the frozen artifacts at evaluation time.
package encoding

import (
	"math"
	"sort"
)

// OthersCategory is the bucket sparse categories collapse into.
const OthersCategory = "Others"

// MinBaseSampleSize is the smallest category allowed to serve as a base
// (reference) level; smaller candidates fall back to the most frequent one.
const MinBaseSampleSize = 500

// Sample is one feature-table row seen as categorical values plus its
// renewal label (nil = unknown).
type Sample struct {
	Values map[string]string
	Label  *int
}

// FeatureAlphabet is the frozen category set of one feature.
type FeatureAlphabet struct {
	Base       string   `json:"base"`
	Categories []string `json:"categories"` // base first, then by sample size descending
	Collapsed  []string `json:"collapsed,omitempty"`
}

// Alphabet is the artifact reused verbatim at scoring time: per-feature
// category sets with their base level, plus the continuous-bin boundaries.
// It is produced once over the full historical dataset and never recomputed.
type Alphabet struct {
	Features map[string]FeatureAlphabet `json:"features"`
	Bins     map[string]BinSpec         `json:"bins"`
}

// categoryStat mirrors the per-category (sample size, renewal rate) table.
type categoryStat struct {
	value string
	size  int
	rate  float64
}

// stats computes the per-category sample sizes and mean renewal rates over
// label-known rows, ordered by sample size descending (ties alphabetical).
func stats(samples []Sample, feature string) []categoryStat {
	sizes := make(map[string]int)
	sums := make(map[string]int)
	for _, s := range samples {
		v := s.Values[feature]
		if v == "" || s.Label == nil {
			continue
		}
		sizes[v]++
		sums[v] += *s.Label
	}
	out := make([]categoryStat, 0, len(sizes))
	for v, n := range sizes {
		out = append(out, categoryStat{value: v, size: n, rate: float64(sums[v]) / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].value < out[j].value })
	sort.SliceStable(out, func(i, j int) bool { return out[i].size > out[j].size })
	return out
}

// ChooseBase picks the reference category of a feature: the one whose renewal
// rate sits closest to the cross-category median rate, provided it is backed
// by at least MinBaseSampleSize rows; otherwise the most frequent category.
func ChooseBase(samples []Sample, feature string) string {
	st := stats(samples, feature)
	if len(st) == 0 {
		return ""
	}
	med := medianRate(st)
	best := 0
	bestDiff := math.Inf(1)
	for i, s := range st {
		if d := math.Abs(s.rate - med); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	if st[best].size >= MinBaseSampleSize {
		return st[best].value
	}
	return st[0].value
}

func medianRate(st []categoryStat) float64 {
	rates := make([]float64, len(st))
	for i, s := range st {
		rates[i] = s.rate
	}
	sort.Float64s(rates)
	n := len(rates)
	if n%2 == 1 {
		return rates[n/2]
	}
	return (rates[n/2-1] + rates[n/2]) / 2
}

// BuildAlphabet freezes the post-collapse category sets and base levels for
// the given features. collapsed maps feature -> raw values relabeled Others.
func BuildAlphabet(samples []Sample, features []string, collapsed map[string][]string, bins map[string]BinSpec) *Alphabet {
	a := &Alphabet{
		Features: make(map[string]FeatureAlphabet, len(features)),
		Bins:     bins,
	}
	for _, f := range features {
		base := ChooseBase(samples, f)
		cats := []string{}
		if base != "" {
			cats = append(cats, base)
		}
		for _, s := range stats(samples, f) {
			if s.value != base {
				cats = append(cats, s.value)
			}
		}
		a.Features[f] = FeatureAlphabet{Base: base, Categories: cats, Collapsed: collapsed[f]}
	}
	return a
}

// CategoryFor maps a raw value through the frozen alphabet: values collapsed
// at build time become Others; everything else passes through. Unknown values
// are not rewritten here; the scorer already treats them as the base level.
func (a *Alphabet) CategoryFor(feature, raw string) string {
	fa, ok := a.Features[feature]
	if !ok {
		return raw
	}
	for _, v := range fa.Collapsed {
		if v == raw {
			return OthersCategory
		}
	}
	return raw
}

// BinFor maps a raw continuous value through the frozen bin boundaries.
// Nil values and values outside the boundaries yield the empty label.
func (a *Alphabet) BinFor(feature string, v *float64) string {
	spec, ok := a.Bins[feature]
	if !ok || v == nil {
		return ""
	}
	return spec.Label(*v)
}
