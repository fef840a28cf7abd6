package pricing

import (
	"time"
)

// UnitPrice is the adjusted amount spread over the contract duration in days.
// Five-day products pay only for business days, end date inclusive; everything
// else pays for the plain calendar span. A missing date, zero price or
// non-positive duration yields nil.
func UnitPrice(adjusted float64, start, end time.Time, fiveDay bool) *float64 {
	if start.IsZero() || end.IsZero() || adjusted == 0 {
		return nil
	}
	var days int
	if fiveDay {
		days = businessDaysInclusive(start, end)
	} else {
		days = int(end.Sub(start).Hours() / 24)
	}
	if days <= 0 {
		return nil
	}
	v := adjusted / float64(days)
	return &v
}

func businessDaysInclusive(from, to time.Time) int {
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

// GroupMember is one contract inside a family group, identified by the pure
// contract number shared by all co-members.
type GroupMember struct {
	PureNumber string
	Primary    bool
	UnitPrice  *float64
}

// Redistribute overwrites every co-member's unit price inside a family group
// with the primary (Asil Üyelik) member's own unit price divided by the group
// size. Groups without a primary member are left untouched. Returns the new
// unit prices aligned with the input slice.
//
// Note this divides the primary's already-individual per-day price, not a
// combined family total; the behavior is carried over from the source system
// as-is.
func Redistribute(members []GroupMember) []*float64 {
	byPure := make(map[string][]int)
	for i, m := range members {
		byPure[m.PureNumber] = append(byPure[m.PureNumber], i)
	}

	out := make([]*float64, len(members))
	for i, m := range members {
		out[i] = m.UnitPrice
	}
	for _, idxs := range byPure {
		var primary *GroupMember
		for _, i := range idxs {
			if members[i].Primary {
				primary = &members[i]
				break
			}
		}
		if primary == nil {
			continue
		}
		size := float64(len(idxs))
		var share *float64
		if primary.UnitPrice != nil {
			v := *primary.UnitPrice / size
			share = &v
		}
		for _, i := range idxs {
			out[i] = share
		}
	}
	return out
}
