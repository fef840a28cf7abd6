package encoding

import (
	"math"
	"sort"
	"strings"
)

// FeatureCategory keys one coefficient: a feature name and one of its
// category values.
type FeatureCategory struct {
	Feature  string
	Category string
}

// Model is the coefficient artifact handed back by the external training
// collaborator, rebuilt once into a typed lookup. Categories missing from the
// map (including the base category itself) contribute nothing, which makes
// the base category the implicit reference level.
type Model struct {
	Intercept float64
	Weights   map[FeatureCategory]float64
}

// NewModel creates an empty model around an intercept.
func NewModel(intercept float64) *Model {
	return &Model{Intercept: intercept, Weights: make(map[FeatureCategory]float64)}
}

// Add registers one coefficient.
func (m *Model) Add(feature, category string, weight float64) {
	m.Weights[FeatureCategory{Feature: feature, Category: category}] = weight
}

// ParseKey splits a flat "feature_category" coefficient key against the known
// feature names, longest feature first so "unit_price_range" is not shadowed
// by a shorter prefix.
func ParseKey(key string, features []string) (feature, category string, ok bool) {
	byLength := append([]string(nil), features...)
	sort.Slice(byLength, func(i, j int) bool { return len(byLength[i]) > len(byLength[j]) })
	for _, f := range byLength {
		if strings.HasPrefix(key, f+"_") {
			return f, key[len(f)+1:], true
		}
	}
	return "", "", false
}

// Score sums the matched coefficients for a row's feature values onto the
// intercept. Unmatched (feature, value) pairs are the reference level and add
// nothing.
func (m *Model) Score(values map[string]string, features []string) float64 {
	score := m.Intercept
	for _, f := range features {
		if w, ok := m.Weights[FeatureCategory{Feature: f, Category: values[f]}]; ok {
			score += w
		}
	}
	return score
}

// Probability maps a linear score through the logistic transform.
func Probability(score float64) float64 {
	return 1 / (1 + math.Exp(-score))
}

// Classify applies the probability threshold, 1 meaning predicted renewal.
func Classify(probability, threshold float64) int {
	if probability >= threshold {
		return 1
	}
	return 0
}
