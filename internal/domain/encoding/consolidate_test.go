package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_CollapsesSparseCategories(t *testing.T) {
	var samples []Sample
	samples = append(samples, bulkSamples("status", "Common", 100, 0.5)...)
	samples = append(samples, bulkSamples("status", "Rare", 4, 0.5)...)

	collapsed := Consolidate(samples, []string{"status"})

	require.Contains(t, collapsed, "status")
	assert.Equal(t, []string{"Rare"}, collapsed["status"])

	for _, s := range samples {
		assert.NotEqual(t, "Rare", s.Values["status"], "collapse applies dataset-wide")
	}
}

func TestConsolidate_RewritesUnlabeledRowsToo(t *testing.T) {
	var samples []Sample
	samples = append(samples, bulkSamples("status", "Common", 100, 0.5)...)
	samples = append(samples, bulkSamples("status", "Rare", 4, 0.5)...)
	// Pending row with an unknown label: excluded from the contingency
	// table, still rewritten.
	samples = append(samples, Sample{Values: map[string]string{"status": "Rare"}})

	Consolidate(samples, []string{"status"})

	assert.Equal(t, OthersCategory, samples[len(samples)-1].Values["status"])
}

func TestConsolidate_MonotonicCollapse(t *testing.T) {
	var samples []Sample
	samples = append(samples, bulkSamples("status", "Common", 100, 0.5)...)
	samples = append(samples, bulkSamples("status", "Rare1", 4, 0.5)...)
	samples = append(samples, bulkSamples("status", "Rare2", 4, 0.5)...)
	samples = append(samples, bulkSamples("status", "Rare3", 4, 0.5)...)

	first := Consolidate(samples, []string{"status"})
	require.Equal(t, []string{"Rare1", "Rare2", "Rare3"}, first["status"])

	// The combined Others bucket is large enough now; a second pass must not
	// collapse anything further.
	second := Consolidate(samples, []string{"status"})
	assert.Empty(t, second)
}

func TestConsolidate_SafeCategoriesUntouched(t *testing.T) {
	var samples []Sample
	samples = append(samples, bulkSamples("status", "A", 100, 0.4)...)
	samples = append(samples, bulkSamples("status", "B", 80, 0.6)...)

	collapsed := Consolidate(samples, []string{"status"})

	assert.Empty(t, collapsed)
	assert.Equal(t, "A", samples[0].Values["status"])
}
