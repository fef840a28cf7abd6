package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
)

const featureDateLayout = "2006-01-02 15:04:05"

var featureHeader = append([]string{
	"customer_code", "contract_number", "start_date", "end_date", "renewed",
	features.FeatMembershipName, features.FeatMembershipKind, features.FeatContractType,
	features.FeatStatus, features.FeatDetailStatus, features.FeatCandidateType,
	features.FeatGender, features.FeatMarital, features.FeatInterval,
	"total_visits", "last30_visits", "overall_usage_pct", "last30_utilization_pct",
	"avg_visit_duration", "call_count", "amount", "adjusted_amount", "unit_price",
	"age_years", "renewal_pct", "past_renewal_count",
}, features.ContinuousFeatures...)

// WriteFeatureTable writes the assembled feature table, one row per surviving
// contract, in the canonical column order.
func WriteFeatureTable(path string, rows []*features.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(featureHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.CustomerCode, r.ContractNumber,
			formatDate(r.StartDate), formatDate(r.EndDate), formatLabel(r.Renewed),
		}
		for _, feat := range []string{
			features.FeatMembershipName, features.FeatMembershipKind, features.FeatContractType,
			features.FeatStatus, features.FeatDetailStatus, features.FeatCandidateType,
			features.FeatGender, features.FeatMarital, features.FeatInterval,
		} {
			rec = append(rec, r.Values[feat])
		}
		rec = append(rec,
			strconv.Itoa(r.TotalVisits), strconv.Itoa(r.Last30Visits),
			formatFloat(r.OverallPct), formatFloat(r.Last30Pct),
			formatFloat(r.AvgDuration), strconv.Itoa(r.CallCount),
			formatFloat(r.Amount), formatFloat(r.AdjustedAmount),
			formatFloatPtr(r.UnitPrice), formatFloatPtr(r.AgeYears),
			formatFloatPtr(r.RenewalPct), formatFloatPtr(r.PastRenewals),
		)
		for _, feat := range features.ContinuousFeatures {
			rec = append(rec, r.Values[feat])
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("feature table written")
	return nil
}

// LoadFeatureTable reads a previously written feature table back, for the
// scoring path.
func LoadFeatureTable(path string) ([]*features.Row, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("contract_number", "renewed", "end_date"); err != nil {
		return nil, err
	}

	out := make([]*features.Row, 0, len(t.rows))
	for _, rec := range t.rows {
		r := &features.Row{
			CustomerCode:   t.get(rec, "customer_code"),
			ContractNumber: t.get(rec, "contract_number"),
			StartDate:      t.getDate(rec, "start_date"),
			EndDate:        t.getDate(rec, "end_date"),
			Renewed:        parseLabel(t.get(rec, "renewed")),
			TotalVisits:    int(t.getFloat(rec, "total_visits")),
			Last30Visits:   int(t.getFloat(rec, "last30_visits")),
			OverallPct:     t.getFloat(rec, "overall_usage_pct"),
			Last30Pct:      t.getFloat(rec, "last30_utilization_pct"),
			AvgDuration:    t.getFloat(rec, "avg_visit_duration"),
			CallCount:      int(t.getFloat(rec, "call_count")),
			Amount:         t.getFloat(rec, "amount"),
			AdjustedAmount: t.getFloat(rec, "adjusted_amount"),
			UnitPrice:      parseFloatPtr(t.get(rec, "unit_price")),
			AgeYears:       parseFloatPtr(t.get(rec, "age_years")),
			RenewalPct:     parseFloatPtr(t.get(rec, "renewal_pct")),
			PastRenewals:   parseFloatPtr(t.get(rec, "past_renewal_count")),
			Values:         make(map[string]string),
		}
		for _, feat := range features.AllFeatures() {
			if v := t.get(rec, feat); v != "" {
				r.Values[feat] = v
			}
		}
		out = append(out, r)
	}
	log.Info().Str("source", path).Int("rows", len(out)).Msg("feature table loaded")
	return out, nil
}

func formatDate(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(featureDateLayout)
}

func formatLabel(l *int) string {
	if l == nil {
		return ""
	}
	return strconv.Itoa(*l)
}

func parseLabel(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
