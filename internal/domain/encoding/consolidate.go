package encoding

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// MinExpectedFrequency is the chi-square rule of thumb: a category whose
// contingency cell has an expected frequency below this is too sparse to keep.
const MinExpectedFrequency = 5.0

// Consolidate finds, per categorical feature, the categories whose expected
// contingency-table frequency against the renewal label falls below
// MinExpectedFrequency in any cell, and rewrites those values to Others on
// every sample, dataset-wide. Returns the collapsed raw values per feature.
//
// The contingency table only sees label-known rows, but the rewrite applies
// to all rows, so pending contracts carry the same collapsed vocabulary.
func Consolidate(samples []Sample, features []string) map[string][]string {
	collapsed := make(map[string][]string)
	for _, f := range features {
		sparse := sparseCategories(samples, f)
		if len(sparse) == 0 {
			continue
		}
		collapsed[f] = sparse
		lookup := make(map[string]bool, len(sparse))
		for _, v := range sparse {
			lookup[v] = true
		}
		for i := range samples {
			if lookup[samples[i].Values[f]] {
				samples[i].Values[f] = OthersCategory
			}
		}
		log.Debug().Str("feature", f).Strs("collapsed", sparse).Msg("sparse categories relabeled")
	}
	return collapsed
}

// sparseCategories builds the category x label contingency table and applies
// the expected-frequency rule: expected = row total x column total / grand.
func sparseCategories(samples []Sample, feature string) []string {
	// cell counts per category: [not renewed, renewed]
	cells := make(map[string][2]float64)
	var colTotals [2]float64
	var grand float64
	for _, s := range samples {
		v := s.Values[feature]
		if v == "" || s.Label == nil {
			continue
		}
		c := cells[v]
		c[*s.Label]++
		cells[v] = c
		colTotals[*s.Label]++
		grand++
	}
	if grand == 0 {
		return nil
	}

	var sparse []string
	for v, c := range cells {
		rowTotal := c[0] + c[1]
		for col := 0; col < 2; col++ {
			expected := rowTotal * colTotals[col] / grand
			if expected < MinExpectedFrequency {
				sparse = append(sparse, v)
				break
			}
		}
	}
	sort.Strings(sparse)
	return sparse
}
