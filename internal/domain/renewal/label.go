// Package renewal derives the ground-truth renewal outcome per contract from
// each customer's chronological contract sequence.
package renewal

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
)

// Apply assigns the renewal outcome to every contract. The input order does
// not matter: contracts are grouped per customer and ordered by start date
// internally, so re-running over a re-shuffled slice yields identical labels.
func Apply(cs []*contract.Contract) {
	byCustomer := make(map[string][]*contract.Contract)
	for _, c := range cs {
		byCustomer[c.CustomerCode] = append(byCustomer[c.CustomerCode], c)
	}

	var known, unknown int
	for _, seq := range byCustomer {
		sort.SliceStable(seq, func(i, j int) bool {
			return seq[i].StartDate.Before(seq[j].StartDate)
		})
		for i, c := range seq {
			var next *contract.Contract
			if i+1 < len(seq) {
				next = seq[i+1]
			}
			c.Renewed = Label(c, next)
			if c.Renewed == nil {
				unknown++
			} else {
				known++
			}
		}
	}

	log.Info().
		Int("customers", len(byCustomer)).
		Int("labeled", known).
		Int("unknown", unknown).
		Msg("renewal labels assigned")
}

// Label computes the outcome for cur given the immediately following contract
// of the same customer (next may be nil).
//
//	next exists:  1 when cur closed and next is a renewal or update,
//	              or when next has not started yet; else 0
//	no next:      unknown (nil) while cur is still active; else 0
func Label(cur, next *contract.Contract) *int {
	if next == nil {
		if cur.Status == contract.StatusActive {
			return nil
		}
		return intPtr(0)
	}
	if cur.Status == contract.StatusClosed &&
		(next.ContractType == contract.TypeRenewal || next.ContractType == contract.TypeUpdate) {
		return intPtr(1)
	}
	if next.Status == contract.StatusNotStarted {
		return intPtr(1)
	}
	return intPtr(0)
}

// AdjustMinorAges overwrites implausible under-18 ages on individual
// memberships with the dataset mean age. Runs after labeling and before any
// categorical binning.
func AdjustMinorAges(cs []*contract.Contract) {
	mean, ok := contract.MeanAge(cs)
	if !ok {
		return
	}
	adjusted := 0
	for _, c := range cs {
		if c.MembershipKind == contract.KindIndividual && c.AgeYears != nil && *c.AgeYears < 18 {
			age := mean
			c.AgeYears = &age
			adjusted++
		}
	}
	if adjusted > 0 {
		log.Debug().Int("rows", adjusted).Int("mean_age", mean).Msg("minor ages overwritten with dataset mean")
	}
}

func intPtr(v int) *int { return &v }
