package events

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
)

// Index is a per-customer interval index over contracts, ordered by start
// date. Matching an event is a binary search on the start dates followed by a
// scan of the candidates, so overlapping contracts always resolve to the
// earliest-starting one.
type Index struct {
	byCustomer map[string][]*contract.Contract
}

// NewIndex builds the interval index. The input slice is not mutated.
func NewIndex(cs []*contract.Contract) *Index {
	by := make(map[string][]*contract.Contract)
	for _, c := range cs {
		by[c.CustomerCode] = append(by[c.CustomerCode], c)
	}
	for code := range by {
		seq := by[code]
		sort.SliceStable(seq, func(i, j int) bool {
			return seq[i].StartDate.Before(seq[j].StartDate)
		})
	}
	return &Index{byCustomer: by}
}

// Match returns the earliest-starting contract of the customer whose
// [start, end] interval contains ts, or nil. A zero ts matches nothing.
func (x *Index) Match(customerCode string, ts time.Time) *contract.Contract {
	if ts.IsZero() {
		return nil
	}
	seq := x.byCustomer[customerCode]
	// candidates are the prefix with start <= ts
	cut := sort.Search(len(seq), func(i int) bool { return seq[i].StartDate.After(ts) })
	for _, c := range seq[:cut] {
		if c.Contains(ts) {
			return c
		}
	}
	return nil
}

// MatchedVisit is a visit assigned to exactly one contract.
type MatchedVisit struct {
	Visit
	ContractNumber string
}

// MatchVisits assigns each visit to the contract containing its entry time.
// Unmatched visits are discarded.
func MatchVisits(x *Index, vs []Visit) []MatchedVisit {
	out := make([]MatchedVisit, 0, len(vs))
	for _, v := range vs {
		c := x.Match(v.CustomerCode, v.Entry)
		if c == nil {
			continue
		}
		out = append(out, MatchedVisit{Visit: v, ContractNumber: c.Number})
	}
	log.Info().
		Int("visits", len(vs)).
		Int("matched", len(out)).
		Int("discarded", len(vs)-len(out)).
		Msg("visits matched to contracts")
	return out
}

// MatchCalls counts calls per contract using the same containment rule.
// Unmatched calls are discarded.
func MatchCalls(x *Index, calls []Call) map[string]int {
	counts := make(map[string]int)
	matched := 0
	for _, ca := range calls {
		c := x.Match(ca.CustomerCode, ca.Date)
		if c == nil {
			continue
		}
		counts[c.Number]++
		matched++
	}
	log.Info().
		Int("calls", len(calls)).
		Int("matched", matched).
		Msg("calls matched to contracts")
	return counts
}
