package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/events"
)

func ts(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func visit(code, num string, entry, exit time.Time) events.MatchedVisit {
	return events.MatchedVisit{
		Visit:          events.Visit{CustomerCode: code, Entry: entry, Exit: exit},
		ContractNumber: num,
	}
}

func TestAggregate_CountsAndPercentages(t *testing.T) {
	c := &contract.Contract{
		CustomerCode:   "C1",
		Number:         "A1",
		MembershipName: "GOLD",
		StartDate:      ts(2020, time.January, 1, 0, 0),
		// 100-day calendar span.
		EndDate: ts(2020, time.April, 10, 0, 0),
	}

	matched := []events.MatchedVisit{
		visit("C1", "A1", ts(2020, time.January, 10, 9, 0), ts(2020, time.January, 10, 10, 0)),
		visit("C1", "A1", ts(2020, time.February, 10, 9, 0), ts(2020, time.February, 10, 10, 0)),
		// Inside the last 30 days of the contract.
		visit("C1", "A1", ts(2020, time.April, 1, 9, 0), ts(2020, time.April, 1, 10, 0)),
	}

	stats := Aggregate([]*contract.Contract{c}, matched, map[string]int{"A1": 4}, nil)

	st := stats["A1"]
	require.NotNil(t, st)
	assert.Equal(t, 3, st.TotalVisits)
	assert.Equal(t, 1, st.Last30Visits)
	assert.InDelta(t, 3.0, st.OverallPct, 0.01)          // 3 visits / 100 days
	assert.InDelta(t, 100.0/30, st.Last30Pct, 0.01)      // 1 visit / 30 days
	assert.InDelta(t, 60.0, st.AvgDuration, 0.01)        // all visits are an hour
	assert.Equal(t, IntervalMorning, st.AssignedInterval) // 9:00-10:00 midpoint 9.5
	assert.Equal(t, 4, st.CallCount)
}

func TestAggregate_FiveDayDenominatorUsesWeekdays(t *testing.T) {
	// Mon Jan 6 to Sun Jan 19 2020: 14 calendar days, 10 weekdays.
	c := &contract.Contract{
		CustomerCode:   "C1",
		Number:         "A1",
		MembershipName: "FIVE DAYS BİREYSEL",
		StartDate:      ts(2020, time.January, 6, 0, 0),
		EndDate:        ts(2020, time.January, 19, 0, 0),
	}
	matched := []events.MatchedVisit{
		visit("C1", "A1", ts(2020, time.January, 7, 9, 0), ts(2020, time.January, 7, 10, 0)),
	}

	stats := Aggregate([]*contract.Contract{c}, matched, nil, []string{"FIVE DAYS BİREYSEL"})

	assert.InDelta(t, 10.0, stats["A1"].OverallPct, 0.01, "1 visit over 10 weekdays")
}

func TestAggregate_ZeroUsageSentinel(t *testing.T) {
	c := &contract.Contract{
		CustomerCode: "C1",
		Number:       "A1",
		StartDate:    ts(2020, time.January, 1, 0, 0),
		EndDate:      ts(2020, time.December, 31, 0, 0),
	}

	stats := Aggregate([]*contract.Contract{c}, nil, nil, nil)

	st := stats["A1"]
	require.NotNil(t, st)
	assert.Equal(t, 0, st.TotalVisits)
	assert.Equal(t, ZeroUsageSentinel, st.AssignedInterval)
	assert.Zero(t, st.AvgDuration)
}

func TestAggregate_CustomerVisitsCountedByContainment(t *testing.T) {
	// The visit was assigned to A1, but it also falls inside A2's window of
	// the same customer, so A2 counts it too. Only A1 gets a profile.
	a1 := &contract.Contract{CustomerCode: "C1", Number: "A1",
		StartDate: ts(2020, time.January, 1, 0, 0), EndDate: ts(2020, time.June, 30, 0, 0)}
	a2 := &contract.Contract{CustomerCode: "C1", Number: "A2",
		StartDate: ts(2020, time.March, 1, 0, 0), EndDate: ts(2020, time.December, 31, 0, 0)}

	matched := []events.MatchedVisit{
		visit("C1", "A1", ts(2020, time.March, 15, 9, 0), ts(2020, time.March, 15, 10, 0)),
	}

	stats := Aggregate([]*contract.Contract{a1, a2}, matched, nil, nil)

	assert.Equal(t, 1, stats["A1"].TotalVisits)
	assert.Equal(t, 1, stats["A2"].TotalVisits)
	assert.Equal(t, IntervalMorning, stats["A1"].AssignedInterval)
	assert.Equal(t, ZeroUsageSentinel, stats["A2"].AssignedInterval)
}

func TestAggregate_DuplicateContractNumbersCollapse(t *testing.T) {
	first := &contract.Contract{CustomerCode: "C1", Number: "A1",
		StartDate: ts(2020, time.January, 1, 0, 0), EndDate: ts(2020, time.June, 30, 0, 0)}
	dup := &contract.Contract{CustomerCode: "C1", Number: "A1",
		StartDate: ts(2021, time.January, 1, 0, 0), EndDate: ts(2021, time.June, 30, 0, 0)}

	matched := []events.MatchedVisit{
		visit("C1", "A1", ts(2020, time.March, 15, 9, 0), ts(2020, time.March, 15, 10, 0)),
	}

	stats := Aggregate([]*contract.Contract{first, dup}, matched, nil, nil)

	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats["A1"].TotalVisits, "first row's window wins")
}

func TestMapToInterval(t *testing.T) {
	tests := []struct {
		hour float64
		want string
	}{
		{6, IntervalMorning},
		{10.99, IntervalMorning},
		{11, IntervalMidday},
		{14.5, IntervalMidday},
		{15, IntervalAfternoon},
		{19, IntervalEvening},
		{22.99, IntervalEvening},
		{23, IntervalOutside},
		{3, IntervalOutside},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapToInterval(tt.hour), "hour %.2f", tt.hour)
	}
}
