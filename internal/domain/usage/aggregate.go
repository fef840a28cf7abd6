// Package usage turns matched visit and call events into per-contract usage
// counts, percentages and a time-of-day profile.
package usage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/events"
)

// Time-of-day buckets for the average visit midpoint, in fractional hours.
const (
	IntervalMorning   = "6-11"
	IntervalMidday    = "11-15"
	IntervalAfternoon = "15-19"
	IntervalEvening   = "19-23"
	IntervalOutside   = "Outside Defined Intervals"

	// ZeroUsageSentinel marks contracts with no matched visits. Kept as a
	// string so the column stays single-typed; such rows survive assembly
	// because the sentinel is a value, not an absent interval.
	ZeroUsageSentinel = "0"
)

// Stats is the aggregated usage of one contract.
type Stats struct {
	ContractNumber   string
	TotalVisits      int
	Last30Visits     int
	OverallPct       float64
	Last30Pct        float64
	AvgDuration      float64 // minutes; 0 for zero-usage contracts
	AssignedInterval string
	CallCount        int
}

// Aggregate computes per-contract usage. Visit counts take every retained
// visit of the contract's customer whose entry falls inside the contract
// window; the time-of-day profile averages only the visits assigned to the
// contract itself. fiveDayNames lists the membership products restricted to
// weekday usage, which shrinks the percentage denominator to weekdays.
func Aggregate(cs []*contract.Contract, matched []events.MatchedVisit, callCounts map[string]int, fiveDayNames []string) map[string]*Stats {
	fiveDay := make(map[string]bool, len(fiveDayNames))
	for _, n := range fiveDayNames {
		fiveDay[n] = true
	}

	byCustomer := make(map[string][]events.MatchedVisit)
	byContract := make(map[string][]events.MatchedVisit)
	for _, v := range matched {
		byCustomer[v.CustomerCode] = append(byCustomer[v.CustomerCode], v)
		byContract[v.ContractNumber] = append(byContract[v.ContractNumber], v)
	}

	out := make(map[string]*Stats, len(cs))
	for _, c := range cs {
		if _, dup := out[c.Number]; dup {
			continue // duplicate export rows collapse to the first
		}
		st := &Stats{ContractNumber: c.Number, CallCount: callCounts[c.Number]}
		out[c.Number] = st

		last30From := c.EndDate.AddDate(0, 0, -30)
		for _, v := range byCustomer[c.CustomerCode] {
			if v.Entry.Before(c.StartDate) || v.Entry.After(c.EndDate) {
				continue
			}
			st.TotalVisits++
			if !v.Entry.Before(last30From) {
				st.Last30Visits++
			}
		}

		maxDays := maxUsageDays(c, fiveDay[c.MembershipName])
		if maxDays > 0 {
			st.OverallPct = float64(st.TotalVisits) / float64(maxDays) * 100
		}
		st.Last30Pct = float64(st.Last30Visits) / 30 * 100

		st.AvgDuration, st.AssignedInterval = profile(byContract[c.Number])
		if st.TotalVisits == 0 {
			st.AvgDuration = 0
			st.AssignedInterval = ZeroUsageSentinel
		}
	}

	log.Info().Int("contracts", len(out)).Msg("usage aggregated")
	return out
}

// profile averages duration and entry/exit midpoints over the contract's own
// visits and maps the mean midpoint to its bucket.
func profile(vs []events.MatchedVisit) (avgDuration float64, interval string) {
	if len(vs) == 0 {
		return 0, ""
	}
	var durSum, midSum float64
	for _, v := range vs {
		durSum += v.Duration()
		entry := fractionalHour(v.Entry)
		exit := fractionalHour(v.Exit)
		midSum += (entry + exit) / 2
	}
	n := float64(len(vs))
	return durSum / n, MapToInterval(midSum / n)
}

// MapToInterval buckets a fractional hour of day.
func MapToInterval(hour float64) string {
	switch {
	case hour >= 6 && hour < 11:
		return IntervalMorning
	case hour >= 11 && hour < 15:
		return IntervalMidday
	case hour >= 15 && hour < 19:
		return IntervalAfternoon
	case hour >= 19 && hour < 23:
		return IntervalEvening
	default:
		return IntervalOutside
	}
}

// maxUsageDays is the percentage denominator: weekdays in [start, end] for
// five-day products, the plain calendar span otherwise.
func maxUsageDays(c *contract.Contract, fiveDay bool) int {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return 0
	}
	if fiveDay {
		return weekdaysInclusive(c.StartDate, c.EndDate)
	}
	return int(c.EndDate.Sub(c.StartDate).Hours() / 24)
}

func weekdaysInclusive(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func fractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// String implements fmt.Stringer for log output.
func (s *Stats) String() string {
	return fmt.Sprintf("%s visits=%d last30=%d interval=%s", s.ContractNumber, s.TotalVisits, s.Last30Visits, s.AssignedInterval)
}
