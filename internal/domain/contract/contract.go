// Package contract holds the membership contract model and the raw-export
// normalization that every later pipeline stage builds on.
package contract

import (
	"strings"
	"time"
)

// Wire literals as they appear in the club's exports. The exports are Turkish;
// identifiers stay English.
const (
	StatusActive     = "Aktif"
	StatusClosed     = "Kapandı"
	StatusNotStarted = "Başlamadı"

	TypeRenewal = "Yenileme"
	TypeUpdate  = "Güncelleme"

	KindPrimary    = "Asil Üyelik"
	KindIndividual = "Bireysel Üyelik"

	MaritalMarried     = "Evli"
	MaritalSingle      = "Bekar"
	MaritalUnspecified = "Belirtilmemiş"

	StaffMembershipName = "PERSONEL"
	InvalidRecordReason = "HATALI KAYIT"
)

// Contract is one membership agreement, uniquely identified by Number.
// Created by Normalize, then mutated in place by the downstream stages.
type Contract struct {
	CustomerCode   string
	Number         string
	MembershipName string // product name, e.g. "FIVE DAYS BİREYSEL"
	MembershipKind string // membership kind, e.g. "Asil Üyelik"
	ContractType   string // new / renewal / update
	Status         string
	DetailStatus   string
	CandidateType  string
	Gender         string
	MaritalStatus  string
	BirthDate      time.Time
	SaleDate       time.Time
	StartDate      time.Time
	EndDate        time.Time // extended end date, the effective close of the interval
	AgeYears       *int      // customer age at sale date, nil when underivable
	Amount         float64
	CancelReason   string

	// Renewed is the derived outcome: 1 renewed, 0 not renewed, nil unknown.
	Renewed *int
}

// PureNumber strips the family-member suffix: "A123-2" and "A123-S" both
// belong to family contract "A123".
func (c *Contract) PureNumber() string {
	if i := strings.IndexByte(c.Number, '-'); i >= 0 {
		return c.Number[:i]
	}
	return c.Number
}

// Contains reports whether ts falls inside the contract's active interval,
// end date inclusive. Zero timestamps never match.
func (c *Contract) Contains(ts time.Time) bool {
	if ts.IsZero() || c.StartDate.IsZero() || c.EndDate.IsZero() {
		return false
	}
	return !ts.Before(c.StartDate) && !ts.After(c.EndDate)
}

// Customer is one row of the demographics export.
type Customer struct {
	Code          string
	Gender        string
	MaritalStatus string
}

// Cancellation is one row of the cancellation-notice export.
type Cancellation struct {
	ContractNumber string
	Reason         string
}
