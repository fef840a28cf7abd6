// Package pricing normalizes contract amounts: inflation adjustment against a
// published price index, per-day unit prices, and family-fee redistribution.
package pricing

import (
	"time"
)

// PriceIndex is the year x month matrix of the published consumer price
// index. Zero cells mean the index was not published for that month.
type PriceIndex struct {
	Rows map[int][12]float64
}

// At returns the index value for a year/month, false when missing or zero.
func (p *PriceIndex) At(year int, month time.Month) (float64, bool) {
	if p == nil {
		return 0, false
	}
	row, ok := p.Rows[year]
	if !ok {
		return 0, false
	}
	v := row[int(month)-1]
	return v, v != 0
}

// Latest returns the most recently published value: the last non-zero month
// of the highest year.
func (p *PriceIndex) Latest() (float64, bool) {
	if p == nil || len(p.Rows) == 0 {
		return 0, false
	}
	maxYear := 0
	for y := range p.Rows {
		if y > maxYear {
			maxYear = y
		}
	}
	row := p.Rows[maxYear]
	for m := 11; m >= 0; m-- {
		if row[m] != 0 {
			return row[m], true
		}
	}
	return 0, false
}

// Adjust scales amount from the contract's start month to the latest
// published index. Adjustment is best-effort: a zero amount, a missing start
// date, a start year outside the table or a missing/zero index cell all pass
// the raw amount through unchanged.
func Adjust(amount float64, start time.Time, p *PriceIndex) float64 {
	if amount == 0 || start.IsZero() {
		return amount
	}
	latest, ok := p.Latest()
	if !ok {
		return amount
	}
	startIdx, ok := p.At(start.Year(), start.Month())
	if !ok {
		return amount
	}
	return amount * (latest / startIdx)
}
