// Package events models facility check-in/out and outbound-call records and
// assigns them to the contract active at their timestamp.
package events

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
)

// MinVisitMinutes is the shortest stay counted as a real visit; anything
// shorter is a turnstile artifact.
const MinVisitMinutes = 15.0

// Visit is one check-in/out record. Exit may be reconstructed when the logger
// wrote its 23:59:59 placeholder.
type Visit struct {
	CustomerCode string
	Membership   string // membership name as logged at the turnstile
	Entry        time.Time
	Exit         time.Time
}

// Duration is the stay length in minutes, negative when either side is missing.
func (v Visit) Duration() float64 {
	if v.Entry.IsZero() || v.Exit.IsZero() {
		return -1
	}
	return v.Exit.Sub(v.Entry).Minutes()
}

// Call is one outbound-call record.
type Call struct {
	CustomerCode string
	Date         time.Time
}

// CleanVisits fills missing membership names from other rows of the same
// customer, then drops staff rows, rows with no membership at all, and stays
// shorter than MinVisitMinutes. Rows with an unknown duration (entry or exit
// missing) are dropped with the short stays.
func CleanVisits(vs []Visit) []Visit {
	membershipByCode := make(map[string]string)
	for _, v := range vs {
		if v.Membership != "" {
			if _, seen := membershipByCode[v.CustomerCode]; !seen {
				membershipByCode[v.CustomerCode] = v.Membership
			}
		}
	}

	out := vs[:0]
	for _, v := range vs {
		if v.Membership == "" {
			v.Membership = membershipByCode[v.CustomerCode]
		}
		if v.Membership == "" || v.Membership == contract.StaffMembershipName {
			continue
		}
		if v.Duration() < MinVisitMinutes {
			continue
		}
		out = append(out, v)
	}
	log.Debug().Int("rows_in", len(vs)).Int("rows_out", len(out)).Msg("visit log cleaned")
	return out
}

// FixErroneousExits repairs the 23:59:59 logging artifact: the device stamps
// that time when a member never badges out. The true exit is reconstructed as
// entry + the customer's mean stay over their valid visits, falling back to
// the global mean stay when the customer has none.
func FixErroneousExits(vs []Visit) []Visit {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var globalSum float64
	var globalN int
	for _, v := range vs {
		if isErroneousExit(v.Exit) || v.Entry.IsZero() || v.Exit.IsZero() {
			continue
		}
		d := v.Duration()
		sums[v.CustomerCode] += d
		counts[v.CustomerCode]++
		globalSum += d
		globalN++
	}

	fixed := 0
	out := make([]Visit, 0, len(vs))
	for _, v := range vs {
		if isErroneousExit(v.Exit) && !v.Entry.IsZero() {
			mean := 0.0
			if n := counts[v.CustomerCode]; n > 0 {
				mean = sums[v.CustomerCode] / float64(n)
			} else if globalN > 0 {
				mean = globalSum / float64(globalN)
			}
			v.Exit = v.Entry.Add(time.Duration(mean * float64(time.Minute)))
			fixed++
		}
		out = append(out, v)
	}
	if fixed > 0 {
		log.Debug().Int("rows", fixed).Msg("erroneous 23:59:59 exits reconstructed")
	}
	return out
}

func isErroneousExit(exit time.Time) bool {
	if exit.IsZero() {
		return false
	}
	h, m, s := exit.Clock()
	return h == 23 && m == 59 && s == 59
}
