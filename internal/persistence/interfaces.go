// Package persistence defines the repositories for the pipeline's durable
// outputs: feature rows, the frozen CategoryAlphabet, and the coefficient
// artifact read back from the model collaborator.
package persistence

import (
	"context"
	"time"
)

// FeatureRecord is one assembled feature row as stored.
type FeatureRecord struct {
	ID             int64      `json:"id" db:"id"`
	RunID          string     `json:"run_id" db:"run_id"`
	CustomerCode   string     `json:"customer_code" db:"customer_code"`
	ContractNumber string     `json:"contract_number" db:"contract_number"`
	StartDate      *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty" db:"end_date"`
	Renewed        *int       `json:"renewed,omitempty" db:"renewed"`
	TotalVisits    int        `json:"total_visits" db:"total_visits"`
	Last30Visits   int        `json:"last30_visits" db:"last30_visits"`
	OverallPct     float64    `json:"overall_usage_pct" db:"overall_usage_pct"`
	Last30Pct      float64    `json:"last30_utilization_pct" db:"last30_utilization_pct"`
	AvgDuration    float64    `json:"avg_visit_duration" db:"avg_visit_duration"`
	CallCount      int        `json:"call_count" db:"call_count"`
	Amount         float64    `json:"amount" db:"amount"`
	AdjustedAmount float64    `json:"adjusted_amount" db:"adjusted_amount"`
	UnitPrice      *float64   `json:"unit_price,omitempty" db:"unit_price"`
	AgeYears       *float64   `json:"age_years,omitempty" db:"age_years"`
	RenewalPct     *float64   `json:"renewal_pct,omitempty" db:"renewal_pct"`
	PastRenewals   *float64   `json:"past_renewal_count,omitempty" db:"past_renewal_count"`

	// Categories holds the categorical view (raw categories and range
	// buckets) keyed by canonical feature name, stored as JSONB.
	Categories map[string]string `json:"categories" db:"categories"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AlphabetRecord is one stored CategoryAlphabet, identified by the run that
// produced it.
type AlphabetRecord struct {
	RunID     string    `json:"run_id" db:"run_id"`
	Payload   []byte    `json:"payload" db:"payload"` // JSON-encoded encoding.Alphabet
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ScoreRecord is one scored pending contract.
type ScoreRecord struct {
	RunID          string    `json:"run_id" db:"run_id"`
	ContractNumber string    `json:"contract_number" db:"contract_number"`
	CustomerCode   string    `json:"customer_code" db:"customer_code"`
	Score          float64   `json:"score" db:"score"`
	Probability    float64   `json:"probability" db:"probability"`
	Predicted      int       `json:"predicted" db:"predicted"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// FeaturesRepo persists assembled feature rows per pipeline run.
type FeaturesRepo interface {
	// InsertBatch stores all rows of one run atomically.
	InsertBatch(ctx context.Context, records []FeatureRecord) error

	// ListByRun retrieves one run's rows, contract-number ordered.
	ListByRun(ctx context.Context, runID string, limit int) ([]FeatureRecord, error)

	// Count returns the stored row count for a run.
	Count(ctx context.Context, runID string) (int64, error)
}

// AlphabetRepo persists the frozen CategoryAlphabet.
type AlphabetRepo interface {
	// Save stores a run's alphabet.
	Save(ctx context.Context, rec AlphabetRecord) error

	// Latest returns the most recently stored alphabet.
	Latest(ctx context.Context) (*AlphabetRecord, error)
}

// ScoresRepo persists scoring results.
type ScoresRepo interface {
	// InsertBatch stores one scoring run's results.
	InsertBatch(ctx context.Context, records []ScoreRecord) error

	// ListByRun retrieves one scoring run, highest probability first.
	ListByRun(ctx context.Context, runID string, limit int) ([]ScoreRecord, error)
}

// Repository aggregates all persistence interfaces.
type Repository struct {
	Features  FeaturesRepo
	Alphabets AlphabetRepo
	Scores    ScoresRepo
}
