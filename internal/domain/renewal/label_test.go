package renewal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		cur  *contract.Contract
		next *contract.Contract
		want *int // nil = unknown
	}{
		{
			name: "closed_followed_by_renewal",
			cur:  &contract.Contract{Status: contract.StatusClosed},
			next: &contract.Contract{ContractType: contract.TypeRenewal},
			want: intPtr(1),
		},
		{
			name: "closed_followed_by_update",
			cur:  &contract.Contract{Status: contract.StatusClosed},
			next: &contract.Contract{ContractType: contract.TypeUpdate},
			want: intPtr(1),
		},
		{
			name: "next_not_started_yet",
			cur:  &contract.Contract{Status: contract.StatusActive},
			next: &contract.Contract{Status: contract.StatusNotStarted, ContractType: "Yeni"},
			want: intPtr(1),
		},
		{
			name: "closed_followed_by_new_contract",
			cur:  &contract.Contract{Status: contract.StatusClosed},
			next: &contract.Contract{ContractType: "Yeni"},
			want: intPtr(0),
		},
		{
			name: "active_followed_by_renewal_not_closed",
			cur:  &contract.Contract{Status: contract.StatusActive},
			next: &contract.Contract{ContractType: contract.TypeRenewal},
			want: intPtr(0),
		},
		{
			name: "sole_active_contract_is_unknown",
			cur:  &contract.Contract{Status: contract.StatusActive},
			next: nil,
			want: nil,
		},
		{
			name: "sole_closed_contract_not_renewed",
			cur:  &contract.Contract{Status: contract.StatusClosed},
			next: nil,
			want: intPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Label(tt.cur, tt.next)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestApply_CustomerSequence(t *testing.T) {
	// Three contracts of one customer: the first is closed and followed by a
	// renewal, the second is closed and followed by a plain new contract, the
	// last is still active with nothing after it.
	c1 := &contract.Contract{CustomerCode: "C1", Number: "A1",
		Status: contract.StatusClosed, StartDate: date(2018, time.January, 1)}
	c2 := &contract.Contract{CustomerCode: "C1", Number: "A2",
		Status: contract.StatusClosed, ContractType: contract.TypeRenewal,
		StartDate: date(2019, time.January, 1)}
	c3 := &contract.Contract{CustomerCode: "C1", Number: "A3",
		Status: contract.StatusActive, ContractType: "Yeni",
		StartDate: date(2020, time.January, 1)}

	Apply([]*contract.Contract{c3, c1, c2}) // shuffled on purpose

	require.NotNil(t, c1.Renewed)
	assert.Equal(t, 1, *c1.Renewed)
	require.NotNil(t, c2.Renewed)
	assert.Equal(t, 0, *c2.Renewed)
	assert.Nil(t, c3.Renewed)
}

func TestApply_OrderIndependence(t *testing.T) {
	build := func() []*contract.Contract {
		return []*contract.Contract{
			{CustomerCode: "C1", Number: "A1", Status: contract.StatusClosed,
				StartDate: date(2018, time.January, 1)},
			{CustomerCode: "C1", Number: "A2", Status: contract.StatusActive,
				ContractType: contract.TypeRenewal, StartDate: date(2019, time.January, 1)},
			{CustomerCode: "C2", Number: "B1", Status: contract.StatusClosed,
				StartDate: date(2019, time.June, 1)},
		}
	}

	forward := build()
	Apply(forward)

	reversed := build()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	Apply(reversed)

	byNumber := func(cs []*contract.Contract) map[string]*int {
		out := make(map[string]*int)
		for _, c := range cs {
			out[c.Number] = c.Renewed
		}
		return out
	}
	f, r := byNumber(forward), byNumber(reversed)
	for num, want := range f {
		got := r[num]
		if want == nil {
			assert.Nil(t, got, num)
		} else {
			require.NotNil(t, got, num)
			assert.Equal(t, *want, *got, num)
		}
	}
}

func TestApply_CustomersAreIndependent(t *testing.T) {
	// C2's renewal must not label C1's contract.
	c1 := &contract.Contract{CustomerCode: "C1", Number: "A1",
		Status: contract.StatusClosed, StartDate: date(2018, time.January, 1)}
	c2 := &contract.Contract{CustomerCode: "C2", Number: "B1",
		Status: contract.StatusClosed, ContractType: contract.TypeRenewal,
		StartDate: date(2019, time.January, 1)}

	Apply([]*contract.Contract{c1, c2})

	require.NotNil(t, c1.Renewed)
	assert.Equal(t, 0, *c1.Renewed)
}

func TestAdjustMinorAges(t *testing.T) {
	age := func(v int) *int { return &v }

	minor := &contract.Contract{MembershipKind: contract.KindIndividual, AgeYears: age(12)}
	adult := &contract.Contract{MembershipKind: contract.KindIndividual, AgeYears: age(40)}
	familyMinor := &contract.Contract{MembershipKind: "Aile Üyeliği", AgeYears: age(10)}

	AdjustMinorAges([]*contract.Contract{minor, adult, familyMinor})

	// Mean over (12, 40, 10) is 20.
	assert.Equal(t, 20, *minor.AgeYears)
	assert.Equal(t, 40, *adult.AgeYears)
	assert.Equal(t, 10, *familyMinor.AgeYears, "non-individual kinds keep their age")
}
