// Package postgres implements the persistence repositories on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Kaanturkoglu/SIVAP/internal/persistence"
)

// DefaultTimeout bounds individual repository calls.
const DefaultTimeout = 10 * time.Second

// Connect opens and pings a PostgreSQL connection and returns the wired
// repository set.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, *persistence.Repository, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	repo := &persistence.Repository{
		Features:  NewFeaturesRepo(db, DefaultTimeout),
		Alphabets: NewAlphabetRepo(db, DefaultTimeout),
		Scores:    NewScoresRepo(db, DefaultTimeout),
	}
	return db, repo, nil
}

// Migrate creates the output tables when they do not exist yet. The pipeline
// owns these tables; nothing else writes them.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contract_features (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			customer_code TEXT NOT NULL,
			contract_number TEXT NOT NULL,
			start_date TIMESTAMPTZ,
			end_date TIMESTAMPTZ,
			renewed SMALLINT,
			total_visits INT NOT NULL DEFAULT 0,
			last30_visits INT NOT NULL DEFAULT 0,
			overall_usage_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
			last30_utilization_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_visit_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
			call_count INT NOT NULL DEFAULT 0,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			adjusted_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			unit_price DOUBLE PRECISION,
			age_years DOUBLE PRECISION,
			renewal_pct DOUBLE PRECISION,
			past_renewal_count DOUBLE PRECISION,
			categories JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (run_id, contract_number)
		)`,
		`CREATE TABLE IF NOT EXISTS category_alphabets (
			run_id TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS contract_scores (
			run_id TEXT NOT NULL,
			contract_number TEXT NOT NULL,
			customer_code TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			probability DOUBLE PRECISION NOT NULL,
			predicted SMALLINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, contract_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contract_features_run ON contract_features (run_id)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
