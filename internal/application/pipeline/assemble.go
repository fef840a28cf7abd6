package pipeline

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/encoding"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/pricing"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/usage"
)

// buildRows joins contracts with their usage stats and price normalization
// into feature rows. Contracts sharing a number collapse to the first seen;
// contracts without an assigned time-of-day interval are dropped. idx may be
// nil, in which case amounts pass through unadjusted.
func buildRows(cs []*contract.Contract, stats map[string]*usage.Stats, idx *pricing.PriceIndex, fiveDay map[string]bool) []*features.Row {
	rows := make([]*features.Row, 0, len(cs))
	seen := make(map[string]bool, len(cs))
	dropped := 0

	for _, c := range cs {
		if seen[c.Number] {
			continue
		}
		seen[c.Number] = true

		st := stats[c.Number]
		if st == nil || st.AssignedInterval == "" {
			dropped++
			continue
		}

		adjusted := c.Amount
		if idx != nil {
			adjusted = pricing.Adjust(c.Amount, c.StartDate, idx)
		}

		row := &features.Row{
			CustomerCode:   c.CustomerCode,
			ContractNumber: c.Number,
			StartDate:      c.StartDate,
			EndDate:        c.EndDate,
			Renewed:        c.Renewed,
			TotalVisits:    st.TotalVisits,
			Last30Visits:   st.Last30Visits,
			OverallPct:     st.OverallPct,
			Last30Pct:      st.Last30Pct,
			AvgDuration:    st.AvgDuration,
			CallCount:      st.CallCount,
			Amount:         c.Amount,
			AdjustedAmount: adjusted,
			UnitPrice:      pricing.UnitPrice(adjusted, c.StartDate, c.EndDate, fiveDay[c.MembershipName]),
			Values: map[string]string{
				features.FeatMembershipName: c.MembershipName,
				features.FeatMembershipKind: c.MembershipKind,
				features.FeatContractType:   c.ContractType,
				features.FeatStatus:         c.Status,
				features.FeatDetailStatus:   c.DetailStatus,
				features.FeatCandidateType:  c.CandidateType,
				features.FeatGender:         c.Gender,
				features.FeatMarital:        c.MaritalStatus,
				features.FeatInterval:       st.AssignedInterval,
			},
		}
		if c.AgeYears != nil {
			age := float64(*c.AgeYears)
			row.AgeYears = &age
		}
		rows = append(rows, row)
	}

	if dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("Contracts without assigned interval dropped")
	}
	return rows
}

// redistributeFamilyFees rewrites the unit price of family-membership groups:
// every member of a pure-contract-number group with an "Asil Üyelik" primary
// gets the primary's own unit price divided by the group size.
func redistributeFamilyFees(rows []*features.Row, cs []*contract.Contract) {
	kinds := make(map[string]string, len(cs))
	pure := make(map[string]string, len(cs))
	for _, c := range cs {
		if _, ok := kinds[c.Number]; !ok {
			kinds[c.Number] = c.MembershipKind
			pure[c.Number] = c.PureNumber()
		}
	}

	members := make([]pricing.GroupMember, len(rows))
	for i, r := range rows {
		members[i] = pricing.GroupMember{
			PureNumber: pure[r.ContractNumber],
			Primary:    kinds[r.ContractNumber] == contract.KindPrimary,
			UnitPrice:  r.UnitPrice,
		}
	}

	for i, p := range pricing.Redistribute(members) {
		rows[i].UnitPrice = p
	}
}

// applyRenewalHistory computes each customer's past-renewal percentage and
// count over contracts with a known label, and broadcasts both onto every row
// of that customer. Customers with no labeled contract get a count of zero
// but no percentage.
func applyRenewalHistory(rows []*features.Row) {
	type hist struct {
		known int
		sum   int
	}
	byCustomer := make(map[string]*hist)
	for _, r := range rows {
		h := byCustomer[r.CustomerCode]
		if h == nil {
			h = &hist{}
			byCustomer[r.CustomerCode] = h
		}
		if r.Renewed != nil {
			h.known++
			h.sum += *r.Renewed
		}
	}

	for _, r := range rows {
		h := byCustomer[r.CustomerCode]
		cnt := float64(h.sum)
		r.PastRenewals = &cnt
		if h.known == 0 {
			continue
		}
		pct := float64(h.sum) / float64(h.known) * 100
		r.RenewalPct = &pct
	}
}

// last30Bounds are the fixed breakpoints for last-30-day utilization.
var last30Bounds = []float64{0, 1, 30, 100}

// deriveBins computes the continuous-feature bucket boundaries over the whole
// dataset and applies the resulting labels to every row. The returned specs
// are frozen into the alphabet for scoring-time reuse.
func deriveBins(rows []*features.Row) map[string]encoding.BinSpec {
	bins := make(map[string]encoding.BinSpec, len(features.ContinuousFeatures))

	for _, feat := range features.ContinuousFeatures {
		var bounds []float64
		if feat == features.FeatLast30PctRange {
			bounds = last30Bounds
		} else {
			values := make([]float64, 0, len(rows))
			for _, r := range rows {
				if v := r.Continuous(feat); v != nil {
					values = append(values, *v)
				}
			}
			bounds = encoding.QuantileBounds(values, encoding.DefaultQuantileBins)
		}
		if bounds == nil {
			log.Warn().Str("feature", feat).Msg("Too few distinct values to bin")
			continue
		}
		bins[feat] = encoding.NewBinSpec(bounds)
	}

	applyBins(rows, bins)
	return bins
}

// applyBins writes each row's range-bucket labels into Values. Rows with a
// nil numeric value get an empty label.
func applyBins(rows []*features.Row, bins map[string]encoding.BinSpec) {
	for _, r := range rows {
		for feat, spec := range bins {
			if v := r.Continuous(feat); v != nil {
				r.Values[feat] = spec.Label(*v)
			} else {
				r.Values[feat] = ""
			}
		}
	}
}

// toSamples views feature rows as encoding samples. The Values maps are
// shared, so in-place category rewrites propagate back to the rows.
func toSamples(rows []*features.Row) []encoding.Sample {
	samples := make([]encoding.Sample, len(rows))
	for i, r := range rows {
		samples[i] = encoding.Sample{Values: r.Values, Label: r.Renewed}
	}
	return samples
}

// sortRows orders the output deterministically by customer then contract.
func sortRows(rows []*features.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CustomerCode != rows[j].CustomerCode {
			return rows[i].CustomerCode < rows[j].CustomerCode
		}
		return rows[i].ContractNumber < rows[j].ContractNumber
	})
}
