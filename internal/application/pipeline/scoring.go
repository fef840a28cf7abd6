package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/data"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/encoding"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
	applog "github.com/Kaanturkoglu/SIVAP/internal/log"
	"github.com/Kaanturkoglu/SIVAP/internal/persistence"
	"github.com/Kaanturkoglu/SIVAP/internal/persistence/postgres"
)

// ScoreSummary reports one scoring run.
type ScoreSummary struct {
	RunID      string
	Scored     int
	Churners   int
	OutputFile string
	Agreement  *AgreementSummary
}

// AgreementSummary compares predictions with observed recent renewals.
type AgreementSummary struct {
	Compared int
	Agreed   int
}

// Score classifies pending contracts: rows with an unknown renewal label
// whose end date falls on or before the cutoff. The stored alphabet is
// reapplied verbatim; the coefficient artifact supplies the weights.
// recentFile, when non-empty, names a newer contract export used to check
// predictions against what customers actually did.
func (r *Runner) Score(ctx context.Context, cutoff time.Time, recentFile string) (*ScoreSummary, error) {
	runID := uuid.New().String()[:8]
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Time("cutoff", cutoff).Msg("Starting scoring run")

	rows, err := data.LoadFeatureTable(filepath.Join(r.cfg.Data.OutputDir, "features.csv"))
	if err != nil {
		return nil, err
	}

	alphabet, err := r.loadAlphabet(ctx)
	if err != nil {
		return nil, err
	}

	feats := r.cfg.ScoringFeatures()
	model, err := data.LoadCoefficients(r.cfg.Scoring.CoefficientsFile, r.cfg.Scoring.Intercept, feats)
	if err != nil {
		return nil, err
	}

	pending := selectPending(rows, cutoff)
	logger.Info().Int("total", len(rows)).Int("pending", len(pending)).Msg("Pending contracts selected")

	continuous := make(map[string]bool, len(features.ContinuousFeatures))
	for _, f := range features.ContinuousFeatures {
		continuous[f] = true
	}

	now := time.Now().UTC()
	records := make([]persistence.ScoreRecord, 0, len(pending))
	churners := 0
	bar := applog.RowBar("scoring contracts", len(pending))
	for _, row := range pending {
		values := make(map[string]string, len(feats))
		for _, f := range feats {
			if continuous[f] {
				values[f] = alphabet.BinFor(f, row.Continuous(f))
			} else {
				values[f] = alphabet.CategoryFor(f, row.Values[f])
			}
		}

		score := model.Score(values, feats)
		prob := encoding.Probability(score)
		predicted := encoding.Classify(prob, r.cfg.Scoring.Threshold)
		if predicted == 0 {
			churners++
		}

		records = append(records, persistence.ScoreRecord{
			RunID:          runID,
			ContractNumber: row.ContractNumber,
			CustomerCode:   row.CustomerCode,
			Score:          score,
			Probability:    prob,
			Predicted:      predicted,
			CreatedAt:      now,
		})
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Probability > records[j].Probability
	})

	r.metrics.ScoredTotal.Add(float64(len(records)))
	r.metrics.Churners.Add(float64(churners))

	summary := &ScoreSummary{
		RunID:    runID,
		Scored:   len(records),
		Churners: churners,
	}

	if recentFile != "" {
		agreement, err := compareWithRecent(records, recentFile, cutoff)
		if err != nil {
			return nil, err
		}
		summary.Agreement = agreement
		logger.Info().Int("compared", agreement.Compared).Int("agreed", agreement.Agreed).
			Msg("Predictions compared with recent contracts")
	}

	if err := os.MkdirAll(r.cfg.Data.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	summary.OutputFile = filepath.Join(r.cfg.Data.OutputDir, "scores.csv")
	if err := data.WriteScores(summary.OutputFile, records); err != nil {
		return nil, err
	}

	if err := r.persistScores(ctx, records); err != nil {
		log.Warn().Err(err).Msg("Score persistence failed")
	}

	logger.Info().Int("scored", summary.Scored).Int("predicted_churners", churners).
		Str("output", summary.OutputFile).Msg("Scoring run completed")
	return summary, nil
}

// loadAlphabet prefers the file artifact, falling back to the latest stored
// alphabet in Postgres when DATABASE_URL is set.
func (r *Runner) loadAlphabet(ctx context.Context) (*encoding.Alphabet, error) {
	a, fileErr := data.LoadAlphabet(r.cfg.Scoring.AlphabetFile)
	if fileErr == nil {
		return a, nil
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, repo, err := postgres.Connect(ctx, dsn)
		if err == nil {
			defer db.Close()
			rec, err := repo.Alphabets.Latest(ctx)
			if err == nil && rec != nil {
				log.Info().Str("run_id", rec.RunID).Msg("Alphabet loaded from database")
				return data.UnmarshalAlphabet(rec.Payload)
			}
		}
	}

	return nil, fileErr
}

// selectPending filters rows to contracts with no derived label whose end
// date is on or before the cutoff.
func selectPending(rows []*features.Row, cutoff time.Time) []*features.Row {
	pending := make([]*features.Row, 0)
	for _, row := range rows {
		if row.Renewed != nil || row.EndDate.IsZero() {
			continue
		}
		if row.EndDate.After(cutoff) {
			continue
		}
		pending = append(pending, row)
	}
	return pending
}

// compareWithRecent checks each prediction against a newer contract export:
// a customer counts as actually renewed when their latest recent contract
// extends past the cutoff via a renewal or update.
func compareWithRecent(records []persistence.ScoreRecord, recentFile string, cutoff time.Time) (*AgreementSummary, error) {
	recent, err := data.LoadContracts(recentFile)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*contract.Contract)
	for i := range recent {
		c := &recent[i]
		prev := latest[c.CustomerCode]
		if prev == nil || c.EndDate.After(prev.EndDate) {
			latest[c.CustomerCode] = c
		}
	}

	out := &AgreementSummary{}
	for _, rec := range records {
		c := latest[rec.CustomerCode]
		if c == nil {
			continue
		}
		actual := 0
		if c.EndDate.After(cutoff) && isRenewalType(c.ContractType) {
			actual = 1
		}
		out.Compared++
		if actual == rec.Predicted {
			out.Agreed++
		}
	}
	return out, nil
}

func isRenewalType(t string) bool {
	t = strings.ToLower(strings.TrimSpace(t))
	return t == strings.ToLower(contract.TypeRenewal) || t == strings.ToLower(contract.TypeUpdate)
}

// persistScores stores the scoring run in Postgres when DATABASE_URL is set.
func (r *Runner) persistScores(ctx context.Context, records []persistence.ScoreRecord) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" || len(records) == 0 {
		return nil
	}

	db, repo, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	return repo.Scores.InsertBatch(ctx, records)
}
