package contract

import (
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var trailingDigit = regexp.MustCompile(`-\d$`)

// Normalize joins the raw contract export with customer demographics and
// cancellation notices and derives the cleaned per-contract rows every later
// stage consumes. The contract export is the anchor of both joins.
//
// Rules, applied in order:
//   - staff rows (membership name PERSONEL) are dropped
//   - missing birth dates are imputed with the dataset mean birth date
//   - age = floor((sale date - birth date) / 365 days)
//   - marital status: empty defaults to Belirtilmemiş, then "-S" in the
//     contract number forces Evli, then primary membership kind forces Evli,
//     then a trailing "-<digit>" forces Bekar (later rules overwrite earlier)
//   - rows whose cancellation reason is HATALI KAYIT are dropped
func Normalize(rows []Contract, customers []Customer, cancels []Cancellation) []*Contract {
	custByCode := make(map[string]Customer, len(customers))
	for _, cu := range customers {
		if _, seen := custByCode[cu.Code]; !seen {
			custByCode[cu.Code] = cu
		}
	}
	reasonByNumber := make(map[string]string, len(cancels))
	for _, ca := range cancels {
		if _, seen := reasonByNumber[ca.ContractNumber]; !seen {
			reasonByNumber[ca.ContractNumber] = strings.TrimSpace(ca.Reason)
		}
	}

	out := make([]*Contract, 0, len(rows))
	for i := range rows {
		c := rows[i]
		if c.MembershipName == StaffMembershipName {
			continue
		}
		if cu, ok := custByCode[c.CustomerCode]; ok {
			if c.Gender == "" {
				c.Gender = cu.Gender
			}
			if c.MaritalStatus == "" {
				c.MaritalStatus = cu.MaritalStatus
			}
		}
		out = append(out, &c)
	}

	meanBirth := meanTime(out, func(c *Contract) time.Time { return c.BirthDate })
	imputed := 0
	for _, c := range out {
		if c.BirthDate.IsZero() && !meanBirth.IsZero() {
			c.BirthDate = meanBirth
			imputed++
		}
		c.AgeYears = ageYears(c.SaleDate, c.BirthDate)

		if c.MaritalStatus == "" {
			c.MaritalStatus = MaritalUnspecified
		}
		if strings.Contains(c.Number, "-S") {
			c.MaritalStatus = MaritalMarried
		}
		if c.MembershipKind == KindPrimary {
			c.MaritalStatus = MaritalMarried
		}
		if trailingDigit.MatchString(c.Number) {
			c.MaritalStatus = MaritalSingle
		}
	}

	kept := out[:0]
	for _, c := range out {
		c.CancelReason = reasonByNumber[c.Number]
		if c.CancelReason == InvalidRecordReason {
			continue
		}
		kept = append(kept, c)
	}

	log.Info().
		Int("rows_in", len(rows)).
		Int("rows_out", len(kept)).
		Int("birth_dates_imputed", imputed).
		Msg("contracts normalized")
	return kept
}

func ageYears(sale, birth time.Time) *int {
	if sale.IsZero() || birth.IsZero() {
		return nil
	}
	days := int(sale.Sub(birth).Hours() / 24)
	age := days / 365
	return &age
}

// meanTime averages the non-zero timestamps selected by get.
func meanTime(cs []*Contract, get func(*Contract) time.Time) time.Time {
	var sum int64
	var n int64
	for _, c := range cs {
		if t := get(c); !t.IsZero() {
			sum += t.Unix()
			n++
		}
	}
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(sum/n, 0).UTC()
}

// MeanAge is the dataset mean contract age over rows where it could be
// derived, truncated to whole years.
func MeanAge(cs []*Contract) (int, bool) {
	var sum, n int
	for _, c := range cs {
		if c.AgeYears != nil {
			sum += *c.AgeYears
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / n, true
}
