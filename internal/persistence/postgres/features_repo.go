package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Kaanturkoglu/SIVAP/internal/persistence"
)

// featuresRepo implements FeaturesRepo for PostgreSQL.
type featuresRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFeaturesRepo creates a new PostgreSQL features repository.
func NewFeaturesRepo(db *sqlx.DB, timeout time.Duration) persistence.FeaturesRepo {
	return &featuresRepo{db: db, timeout: timeout}
}

// InsertBatch stores all feature rows of one run in a single transaction.
func (r *featuresRepo) InsertBatch(ctx context.Context, records []persistence.FeatureRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(records)/500+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contract_features (
			run_id, customer_code, contract_number, start_date, end_date, renewed,
			total_visits, last30_visits, overall_usage_pct, last30_utilization_pct,
			avg_visit_duration, call_count, amount, adjusted_amount, unit_price,
			age_years, renewal_pct, past_renewal_count, categories
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		categoriesJSON, err := json.Marshal(rec.Categories)
		if err != nil {
			return fmt.Errorf("failed to marshal categories for %s: %w", rec.ContractNumber, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, rec.CustomerCode, rec.ContractNumber, rec.StartDate, rec.EndDate, rec.Renewed,
			rec.TotalVisits, rec.Last30Visits, rec.OverallPct, rec.Last30Pct,
			rec.AvgDuration, rec.CallCount, rec.Amount, rec.AdjustedAmount, rec.UnitPrice,
			rec.AgeYears, rec.RenewalPct, rec.PastRenewals, categoriesJSON,
		); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("duplicate feature row %s in run %s: %w", rec.ContractNumber, rec.RunID, err)
			}
			return fmt.Errorf("failed to insert feature row %s: %w", rec.ContractNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feature batch: %w", err)
	}
	return nil
}

// ListByRun retrieves one run's rows ordered by contract number.
func (r *featuresRepo) ListByRun(ctx context.Context, runID string, limit int) ([]persistence.FeatureRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, run_id, customer_code, contract_number, start_date, end_date, renewed,
		       total_visits, last30_visits, overall_usage_pct, last30_utilization_pct,
		       avg_visit_duration, call_count, amount, adjusted_amount, unit_price,
		       age_years, renewal_pct, past_renewal_count, categories, created_at
		FROM contract_features
		WHERE run_id = $1
		ORDER BY contract_number
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature rows: %w", err)
	}
	defer rows.Close()

	var out []persistence.FeatureRecord
	for rows.Next() {
		var rec persistence.FeatureRecord
		var categoriesJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.CustomerCode, &rec.ContractNumber, &rec.StartDate, &rec.EndDate, &rec.Renewed,
			&rec.TotalVisits, &rec.Last30Visits, &rec.OverallPct, &rec.Last30Pct,
			&rec.AvgDuration, &rec.CallCount, &rec.Amount, &rec.AdjustedAmount, &rec.UnitPrice,
			&rec.AgeYears, &rec.RenewalPct, &rec.PastRenewals, &categoriesJSON, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		if len(categoriesJSON) > 0 {
			if err := json.Unmarshal(categoriesJSON, &rec.Categories); err != nil {
				return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the stored row count for a run.
func (r *featuresRepo) Count(ctx context.Context, runID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM contract_features WHERE run_id = $1`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count feature rows: %w", err)
	}
	return n, nil
}
