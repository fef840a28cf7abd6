// Package features defines the per-contract feature row the pipeline
// assembles and the canonical feature names shared with the coefficient
// artifact produced by the external model collaborator.
package features

import (
	"time"
)

// Canonical feature names. These are the keys of the CategoryAlphabet and the
// prefixes of the coefficient artifact ("<feature>_<category>").
const (
	FeatMembershipName = "membership_name"
	FeatMembershipKind = "membership_kind"
	FeatContractType   = "contract_type"
	FeatStatus         = "status"
	FeatDetailStatus   = "detail_status"
	FeatCandidateType  = "candidate_type"
	FeatGender         = "gender"
	FeatMarital        = "marital_status"
	FeatInterval       = "assigned_interval"

	FeatAgeRange          = "age_years_range"
	FeatCallCountRange    = "call_count_range"
	FeatOverallPctRange   = "overall_usage_pct_range"
	FeatLast30PctRange    = "last30_utilization_pct_range"
	FeatAvgDurationRange  = "avg_visit_duration_range"
	FeatUnitPriceRange    = "unit_price_range"
	FeatRenewalPctRange   = "renewal_pct_range"
	FeatPastRenewalsRange = "past_renewal_count_range"
)

// CategoricalFeatures are the raw categorical columns subject to sparse
// collapse. Identifier columns are deliberately absent.
var CategoricalFeatures = []string{
	FeatMembershipName,
	FeatStatus,
	FeatDetailStatus,
	FeatGender,
	FeatMarital,
	FeatContractType,
	FeatMembershipKind,
	FeatCandidateType,
	FeatInterval,
}

// ContinuousFeatures are the range-bucketed columns, keyed by their range
// feature name.
var ContinuousFeatures = []string{
	FeatAgeRange,
	FeatCallCountRange,
	FeatOverallPctRange,
	FeatLast30PctRange,
	FeatAvgDurationRange,
	FeatUnitPriceRange,
	FeatRenewalPctRange,
	FeatPastRenewalsRange,
}

// AllFeatures is every column that gets a base category in the alphabet.
func AllFeatures() []string {
	out := append([]string(nil), CategoricalFeatures...)
	return append(out, ContinuousFeatures...)
}

// Row is one assembled ContractFeatures record: the contract, its aggregated
// usage, normalized price, historical renewal statistics, and the categorical
// view (raw categories plus range buckets) in Values.
type Row struct {
	CustomerCode   string
	ContractNumber string
	StartDate      time.Time
	EndDate        time.Time
	Renewed        *int

	TotalVisits    int
	Last30Visits   int
	OverallPct     float64
	Last30Pct      float64
	AvgDuration    float64
	CallCount      int
	Amount         float64
	AdjustedAmount float64
	UnitPrice      *float64
	AgeYears       *float64
	RenewalPct     *float64
	PastRenewals   *float64

	// Values maps canonical feature name to the row's category. Populated
	// with the raw categorical values at assembly, then rewritten in place
	// by consolidation and extended with range buckets by binning.
	Values map[string]string
}

// Continuous returns the row's raw numeric value for a range feature, nil
// when underivable. The mapping is the binning contract: the same accessor
// feeds both boundary derivation and later re-application.
func (r *Row) Continuous(feature string) *float64 {
	switch feature {
	case FeatAgeRange:
		return r.AgeYears
	case FeatCallCountRange:
		return floatPtr(float64(r.CallCount))
	case FeatOverallPctRange:
		return floatPtr(r.OverallPct)
	case FeatLast30PctRange:
		return floatPtr(r.Last30Pct)
	case FeatAvgDurationRange:
		return floatPtr(r.AvgDuration)
	case FeatUnitPriceRange:
		return r.UnitPrice
	case FeatRenewalPctRange:
		return r.RenewalPct
	case FeatPastRenewalsRange:
		return r.PastRenewals
	default:
		return nil
	}
}

func floatPtr(v float64) *float64 { return &v }
