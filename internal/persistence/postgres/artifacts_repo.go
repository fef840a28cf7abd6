package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Kaanturkoglu/SIVAP/internal/persistence"
)

// alphabetRepo implements AlphabetRepo for PostgreSQL.
type alphabetRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAlphabetRepo creates a new PostgreSQL alphabet repository.
func NewAlphabetRepo(db *sqlx.DB, timeout time.Duration) persistence.AlphabetRepo {
	return &alphabetRepo{db: db, timeout: timeout}
}

// Save stores one run's CategoryAlphabet.
func (r *alphabetRepo) Save(ctx context.Context, rec persistence.AlphabetRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO category_alphabets (run_id, payload) VALUES ($1, $2)`,
		rec.RunID, rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to insert alphabet for run %s: %w", rec.RunID, err)
	}
	return nil
}

// Latest returns the most recently stored alphabet, nil when none exists.
func (r *alphabetRepo) Latest(ctx context.Context) (*persistence.AlphabetRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rec persistence.AlphabetRecord
	err := r.db.QueryRowxContext(ctx, `
		SELECT run_id, payload, created_at
		FROM category_alphabets
		ORDER BY created_at DESC
		LIMIT 1`).Scan(&rec.RunID, &rec.Payload, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest alphabet: %w", err)
	}
	return &rec, nil
}

// scoresRepo implements ScoresRepo for PostgreSQL.
type scoresRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewScoresRepo creates a new PostgreSQL scores repository.
func NewScoresRepo(db *sqlx.DB, timeout time.Duration) persistence.ScoresRepo {
	return &scoresRepo{db: db, timeout: timeout}
}

// InsertBatch stores one scoring run's results in a single transaction.
func (r *scoresRepo) InsertBatch(ctx context.Context, records []persistence.ScoreRecord) error {
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
		INSERT INTO contract_scores (run_id, contract_number, customer_code, score, probability, predicted)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, rec.ContractNumber, rec.CustomerCode, rec.Score, rec.Probability, rec.Predicted,
		); err != nil {
			return fmt.Errorf("failed to insert score for %s: %w", rec.ContractNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit score batch: %w", err)
	}
	return nil
}

// ListByRun retrieves one scoring run, highest probability first.
func (r *scoresRepo) ListByRun(ctx context.Context, runID string, limit int) ([]persistence.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []persistence.ScoreRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT run_id, contract_number, customer_code, score, probability, predicted, created_at
		FROM contract_scores
		WHERE run_id = $1
		ORDER BY probability DESC
		LIMIT $2`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return out, nil
}
