package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testIndex() *PriceIndex {
	return &PriceIndex{Rows: map[int][12]float64{
		2019: {100, 102, 104, 106, 108, 110, 112, 114, 116, 118, 120, 122},
		// Index published through June only.
		2020: {124, 126, 128, 130, 132, 134, 0, 0, 0, 0, 0, 0},
	}}
}

func TestPriceIndex_At(t *testing.T) {
	p := testIndex()

	v, ok := p.At(2019, time.March)
	require.True(t, ok)
	assert.Equal(t, 104.0, v)

	_, ok = p.At(2020, time.August)
	assert.False(t, ok, "unpublished month")

	_, ok = p.At(2018, time.January)
	assert.False(t, ok, "year outside the table")

	var nilIdx *PriceIndex
	_, ok = nilIdx.At(2019, time.January)
	assert.False(t, ok)
}

func TestPriceIndex_Latest(t *testing.T) {
	v, ok := testIndex().Latest()
	require.True(t, ok)
	assert.Equal(t, 134.0, v, "last non-zero month of the highest year")

	_, ok = (&PriceIndex{Rows: map[int][12]float64{}}).Latest()
	assert.False(t, ok)
}

func TestAdjust(t *testing.T) {
	p := testIndex()

	// 100 index → 134 latest scales the amount by 1.34.
	got := Adjust(1000, date(2019, time.January, 15), p)
	assert.InDelta(t, 1340, got, 0.01)

	// Start month equals the latest published month: identity.
	got = Adjust(1000, date(2020, time.June, 1), p)
	assert.InDelta(t, 1000, got, 0.01)
}

func TestAdjust_BestEffortPassThrough(t *testing.T) {
	p := testIndex()

	assert.Equal(t, 0.0, Adjust(0, date(2019, time.January, 1), p), "zero amount")
	assert.Equal(t, 500.0, Adjust(500, time.Time{}, p), "missing start date")
	assert.Equal(t, 500.0, Adjust(500, date(2018, time.May, 1), p), "year outside table")
	assert.Equal(t, 500.0, Adjust(500, date(2020, time.October, 1), p), "unpublished month")
	assert.Equal(t, 500.0, Adjust(500, date(2019, time.May, 1), nil), "no index at all")
}

func TestUnitPrice(t *testing.T) {
	// 10-day calendar span.
	got := UnitPrice(1000, date(2020, time.January, 1), date(2020, time.January, 11), false)
	require.NotNil(t, got)
	assert.InDelta(t, 100, *got, 0.01)

	// Mon Jan 6 to Fri Jan 17: 10 business days inclusive.
	got = UnitPrice(1000, date(2020, time.January, 6), date(2020, time.January, 17), true)
	require.NotNil(t, got)
	assert.InDelta(t, 100, *got, 0.01)
}

func TestUnitPrice_Nil(t *testing.T) {
	assert.Nil(t, UnitPrice(0, date(2020, 1, 1), date(2020, 2, 1), false), "zero amount")
	assert.Nil(t, UnitPrice(1000, time.Time{}, date(2020, 2, 1), false), "missing start")
	assert.Nil(t, UnitPrice(1000, date(2020, 1, 1), time.Time{}, false), "missing end")
	assert.Nil(t, UnitPrice(1000, date(2020, 2, 1), date(2020, 1, 1), false), "negative span")
	assert.Nil(t, UnitPrice(1000, date(2020, 1, 1), date(2020, 1, 1), false), "zero-day span")
}

func TestRedistribute(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	members := []GroupMember{
		{PureNumber: "A1", Primary: true, UnitPrice: price(90)},
		{PureNumber: "A1", UnitPrice: price(50)},
		{PureNumber: "A1", UnitPrice: nil},
		{PureNumber: "B1", UnitPrice: price(70)}, // no primary, untouched
		{PureNumber: "C1", Primary: true, UnitPrice: price(40)},
	}

	out := Redistribute(members)

	require.Len(t, out, 5)
	// Primary's own price split across the three A1 members.
	for _, i := range []int{0, 1, 2} {
		require.NotNil(t, out[i])
		assert.InDelta(t, 30, *out[i], 0.01)
	}
	require.NotNil(t, out[3])
	assert.Equal(t, 70.0, *out[3])
	require.NotNil(t, out[4])
	assert.Equal(t, 40.0, *out[4], "single-member group keeps its price")
}

func TestRedistribute_NilPrimaryPrice(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	members := []GroupMember{
		{PureNumber: "A1", Primary: true, UnitPrice: nil},
		{PureNumber: "A1", UnitPrice: price(50)},
	}

	out := Redistribute(members)

	assert.Nil(t, out[0])
	assert.Nil(t, out[1], "primary without a price blanks the whole group")
}
