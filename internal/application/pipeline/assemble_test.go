package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/encoding"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/pricing"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/usage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

func TestBuildRows_DropsIntervalLessKeepsSentinel(t *testing.T) {
	cs := []*contract.Contract{
		{CustomerCode: "C1", Number: "A1", Status: contract.StatusClosed,
			StartDate: date(2020, 1, 1), EndDate: date(2020, 12, 31), Amount: 1000},
		{CustomerCode: "C2", Number: "B1", Status: contract.StatusClosed,
			StartDate: date(2020, 1, 1), EndDate: date(2020, 12, 31), Amount: 500},
		{CustomerCode: "C3", Number: "D1", Status: contract.StatusClosed,
			StartDate: date(2020, 1, 1), EndDate: date(2020, 12, 31), Amount: 700},
	}
	stats := map[string]*usage.Stats{
		"A1": {ContractNumber: "A1", TotalVisits: 10, AssignedInterval: usage.IntervalMorning},
		// Zero usage keeps its sentinel interval and survives.
		"B1": {ContractNumber: "B1", AssignedInterval: usage.ZeroUsageSentinel},
		// No interval at all: dropped.
		"D1": {ContractNumber: "D1"},
	}

	rows := buildRows(cs, stats, nil, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[0].ContractNumber)
	assert.Equal(t, usage.ZeroUsageSentinel, rows[1].Values[features.FeatInterval])
}

func TestBuildRows_DuplicateNumbersCollapse(t *testing.T) {
	cs := []*contract.Contract{
		{CustomerCode: "C1", Number: "A1", StartDate: date(2020, 1, 1),
			EndDate: date(2020, 12, 31), Amount: 1000},
		{CustomerCode: "C1", Number: "A1", StartDate: date(2021, 1, 1),
			EndDate: date(2021, 12, 31), Amount: 2000},
	}
	stats := map[string]*usage.Stats{
		"A1": {ContractNumber: "A1", AssignedInterval: usage.IntervalMorning},
	}

	rows := buildRows(cs, stats, nil, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, 1000.0, rows[0].Amount, "first export row wins")
}

func TestBuildRows_PriceNormalization(t *testing.T) {
	idx := &pricing.PriceIndex{Rows: map[int][12]float64{
		2020: {100, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 200},
	}}
	cs := []*contract.Contract{
		// 100-day span, amount 1000, index 100 -> 200 doubles it.
		{CustomerCode: "C1", Number: "A1", StartDate: date(2020, 1, 1),
			EndDate: date(2020, 4, 10), Amount: 1000},
	}
	stats := map[string]*usage.Stats{
		"A1": {ContractNumber: "A1", AssignedInterval: usage.IntervalMorning},
	}

	rows := buildRows(cs, stats, idx, nil)

	require.Len(t, rows, 1)
	assert.InDelta(t, 2000, rows[0].AdjustedAmount, 0.01)
	require.NotNil(t, rows[0].UnitPrice)
	assert.InDelta(t, 20, *rows[0].UnitPrice, 0.01, "adjusted amount over 100 days")
}

func TestRedistributeFamilyFees(t *testing.T) {
	price := 90.0
	other := 50.0
	cs := []*contract.Contract{
		{CustomerCode: "C1", Number: "F100", MembershipKind: contract.KindPrimary},
		{CustomerCode: "C2", Number: "F100-2"},
		{CustomerCode: "C3", Number: "F100-S"},
	}
	rows := []*features.Row{
		{ContractNumber: "F100", UnitPrice: &price},
		{ContractNumber: "F100-2", UnitPrice: &other},
		{ContractNumber: "F100-S", UnitPrice: nil},
	}

	redistributeFamilyFees(rows, cs)

	for _, r := range rows {
		require.NotNil(t, r.UnitPrice, r.ContractNumber)
		assert.InDelta(t, 30, *r.UnitPrice, 0.01, r.ContractNumber)
	}
}

func TestApplyRenewalHistory(t *testing.T) {
	rows := []*features.Row{
		{CustomerCode: "C1", ContractNumber: "A1", Renewed: intp(1)},
		{CustomerCode: "C1", ContractNumber: "A2", Renewed: intp(0)},
		{CustomerCode: "C1", ContractNumber: "A3"}, // pending
		{CustomerCode: "C2", ContractNumber: "B1"}, // never labeled
	}

	applyRenewalHistory(rows)

	for _, r := range rows[:3] {
		require.NotNil(t, r.RenewalPct, r.ContractNumber)
		assert.InDelta(t, 50, *r.RenewalPct, 0.01, "1 of 2 known labels renewed")
		require.NotNil(t, r.PastRenewals)
		assert.Equal(t, 1.0, *r.PastRenewals)
	}
	// A customer with no labeled contract has renewed zero times; only the
	// percentage stays unknown. Such customers are exactly the pending
	// population, so the count must land in a real bin at scoring time.
	assert.Nil(t, rows[3].RenewalPct, "no known labels keeps percentage nil")
	require.NotNil(t, rows[3].PastRenewals)
	assert.Equal(t, 0.0, *rows[3].PastRenewals)
}

func TestDeriveBins_FixedLast30Bounds(t *testing.T) {
	rows := make([]*features.Row, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, &features.Row{
			Last30Pct: float64(i * 5),
			Values:    map[string]string{},
		})
	}

	bins := deriveBins(rows)

	spec, ok := bins[features.FeatLast30PctRange]
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 30, 100}, spec.Bounds)

	// Values got labeled through the fixed breaks.
	assert.Equal(t, "[1.00-30.00)", rows[1].Values[features.FeatLast30PctRange]) // 5
	assert.Equal(t, "[30.00-100.00)", rows[10].Values[features.FeatLast30PctRange]) // 50
}

func TestToSamples_SharesValueMaps(t *testing.T) {
	row := &features.Row{
		CustomerCode: "C1",
		Renewed:      intp(1),
		Values:       map[string]string{features.FeatStatus: "Rare"},
	}

	samples := toSamples([]*features.Row{row})
	samples[0].Values[features.FeatStatus] = encoding.OthersCategory

	assert.Equal(t, encoding.OthersCategory, row.Values[features.FeatStatus],
		"consolidation rewrites propagate to the row")
}

func TestSortRows(t *testing.T) {
	rows := []*features.Row{
		{CustomerCode: "C2", ContractNumber: "B1"},
		{CustomerCode: "C1", ContractNumber: "A2"},
		{CustomerCode: "C1", ContractNumber: "A1"},
	}

	sortRows(rows)

	assert.Equal(t, "A1", rows[0].ContractNumber)
	assert.Equal(t, "A2", rows[1].ContractNumber)
	assert.Equal(t, "B1", rows[2].ContractNumber)
}

func TestSelectPending(t *testing.T) {
	cutoff := date(2021, 1, 1)
	rows := []*features.Row{
		{ContractNumber: "A1", EndDate: date(2020, 6, 30)},               // pending
		{ContractNumber: "A2", EndDate: date(2021, 1, 1)},                // on the cutoff
		{ContractNumber: "A3", EndDate: date(2021, 6, 30)},               // still running
		{ContractNumber: "A4", EndDate: date(2020, 6, 30), Renewed: intp(0)}, // labeled
		{ContractNumber: "A5"}, // no end date
	}

	pending := selectPending(rows, cutoff)

	require.Len(t, pending, 2)
	assert.Equal(t, "A1", pending[0].ContractNumber)
	assert.Equal(t, "A2", pending[1].ContractNumber)
}

func TestFeatureRecord(t *testing.T) {
	now := time.Now()
	price := 12.5
	row := &features.Row{
		CustomerCode:   "C1",
		ContractNumber: "A1",
		StartDate:      date(2020, 1, 1),
		Renewed:        intp(1),
		UnitPrice:      &price,
		Values:         map[string]string{features.FeatStatus: contract.StatusClosed},
	}

	rec := featureRecord("run-1", row, now)

	assert.Equal(t, "run-1", rec.RunID)
	require.NotNil(t, rec.StartDate)
	assert.Equal(t, date(2020, 1, 1), *rec.StartDate)
	assert.Nil(t, rec.EndDate, "zero end date stays null")
	assert.Equal(t, &price, rec.UnitPrice)
	assert.Equal(t, contract.StatusClosed, rec.Categories[features.FeatStatus])
	assert.Equal(t, now, rec.CreatedAt)
}

func TestIsRenewalType(t *testing.T) {
	assert.True(t, isRenewalType("Yenileme"))
	assert.True(t, isRenewalType(" yenileme "))
	assert.True(t, isRenewalType("Güncelleme"))
	assert.False(t, isRenewalType("Yeni Sözleşme"))
	assert.False(t, isRenewalType(""))
}
