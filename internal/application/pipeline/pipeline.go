// Package pipeline orchestrates the feature-and-label derivation run: source
// loading, contract normalization, renewal labeling, event matching, usage
// aggregation, price normalization, category consolidation, binning, and the
// frozen-alphabet artifact handed to the external model collaborator.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/data"
	"github.com/Kaanturkoglu/SIVAP/internal/data/cache"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/encoding"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/events"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/features"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/pricing"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/renewal"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/usage"
	"github.com/Kaanturkoglu/SIVAP/internal/infrastructure/providers"
	httpiface "github.com/Kaanturkoglu/SIVAP/internal/interfaces/http"
	applog "github.com/Kaanturkoglu/SIVAP/internal/log"
	"github.com/Kaanturkoglu/SIVAP/internal/persistence"
	"github.com/Kaanturkoglu/SIVAP/internal/persistence/postgres"
)

// Runner executes pipeline and scoring runs.
type Runner struct {
	cfg     *Config
	metrics *httpiface.MetricsRegistry
	health  *httpiface.HealthTracker
	repo    *persistence.Repository
}

// New creates a Runner. health may be nil when no observability server runs.
func New(cfg *Config, health *httpiface.HealthTracker) *Runner {
	if health == nil {
		health = httpiface.NewHealthTracker()
	}
	return &Runner{
		cfg:     cfg,
		metrics: httpiface.Metrics(),
		health:  health,
	}
}

// Result summarizes a completed pipeline run.
type Result struct {
	RunID        string
	Rows         int
	FeaturesFile string
	AlphabetFile string
}

var pipelineSteps = []string{
	"load sources",
	"normalize contracts",
	"derive renewal labels",
	"clean events",
	"match events",
	"aggregate usage",
	"normalize prices",
	"assemble features",
	"consolidate categories",
	"bin continuous features",
	"freeze alphabet",
	"write outputs",
}

// Run executes the full derivation pipeline.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()[:8]
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Msg("Starting pipeline run")

	r.metrics.ActiveRuns.Inc()
	defer r.metrics.ActiveRuns.Dec()

	steps := applog.NewStepLogger("pipeline "+runID, pipelineSteps)
	result, err := r.run(ctx, runID, steps)
	if err != nil {
		steps.Fail(err.Error())
		r.metrics.RunsTotal.WithLabelValues("failed").Inc()
		r.health.RecordRun(runID, 0, err)
		return nil, err
	}

	steps.Finish()
	r.metrics.RunsTotal.WithLabelValues("ok").Inc()
	r.health.RecordRun(runID, result.Rows, nil)
	logger.Info().Int("rows", result.Rows).Str("features", result.FeaturesFile).Msg("Pipeline run completed")
	return result, nil
}

func (r *Runner) run(ctx context.Context, runID string, steps *applog.StepLogger) (*Result, error) {
	stage := r.stageTimer()

	// load sources
	steps.StartStep("load sources")
	done := stage("load sources")
	rawContracts, err := data.LoadContracts(r.cfg.Data.ContractsFile)
	if err != nil {
		done(err)
		return nil, err
	}
	customers, err := data.LoadCustomers(r.cfg.Data.CustomersFile)
	if err != nil {
		done(err)
		return nil, err
	}
	cancels, err := data.LoadCancellations(r.cfg.Data.CancellationsFile)
	if err != nil {
		done(err)
		return nil, err
	}
	visits, err := data.LoadVisits(r.cfg.Data.VisitsDir)
	if err != nil {
		done(err)
		return nil, err
	}
	calls, err := data.LoadCalls(r.cfg.Data.CallsDir)
	if err != nil {
		done(err)
		return nil, err
	}
	done(nil)
	steps.CompleteStep()

	// normalize contracts
	steps.StartStep("normalize contracts")
	done = stage("normalize contracts")
	contracts := contract.Normalize(rawContracts, customers, cancels)
	r.metrics.StageRows.WithLabelValues("normalize contracts").Set(float64(len(contracts)))
	r.metrics.RowsDropped.WithLabelValues("normalize").Add(float64(len(rawContracts) - len(contracts)))
	done(nil)
	steps.CompleteStep()

	// derive renewal labels
	steps.StartStep("derive renewal labels")
	done = stage("derive renewal labels")
	renewal.Apply(contracts)
	renewal.AdjustMinorAges(contracts)
	done(nil)
	steps.CompleteStep()

	// clean events
	steps.StartStep("clean events")
	done = stage("clean events")
	cleaned := events.FixErroneousExits(events.CleanVisits(visits))
	r.metrics.StageRows.WithLabelValues("clean events").Set(float64(len(cleaned)))
	done(nil)
	steps.CompleteStep()

	// match events
	steps.StartStep("match events")
	done = stage("match events")
	index := events.NewIndex(contracts)
	matched := events.MatchVisits(index, cleaned)
	callCounts := events.MatchCalls(index, calls)
	r.metrics.EventsMatched.WithLabelValues("visit").Add(float64(len(matched)))
	r.metrics.EventsDiscarded.WithLabelValues("visit").Add(float64(len(cleaned) - len(matched)))
	matchedCalls := 0
	for _, n := range callCounts {
		matchedCalls += n
	}
	r.metrics.EventsMatched.WithLabelValues("call").Add(float64(matchedCalls))
	r.metrics.EventsDiscarded.WithLabelValues("call").Add(float64(len(calls) - matchedCalls))
	done(nil)
	steps.CompleteStep()

	// aggregate usage
	steps.StartStep("aggregate usage")
	done = stage("aggregate usage")
	stats := usage.Aggregate(contracts, matched, callCounts, r.cfg.FiveDayMemberships)
	done(nil)
	steps.CompleteStep()

	// normalize prices
	steps.StartStep("normalize prices")
	done = stage("normalize prices")
	idx := r.fetchPriceIndex(ctx)
	fiveDay := make(map[string]bool, len(r.cfg.FiveDayMemberships))
	for _, n := range r.cfg.FiveDayMemberships {
		fiveDay[n] = true
	}
	rows := buildRows(contracts, stats, idx, fiveDay)
	r.metrics.RowsDropped.WithLabelValues("assemble").Add(float64(len(contracts) - len(rows)))
	redistributeFamilyFees(rows, contracts)
	done(nil)
	steps.CompleteStep()

	// assemble features
	steps.StartStep("assemble features")
	done = stage("assemble features")
	applyRenewalHistory(rows)
	sortRows(rows)
	r.metrics.StageRows.WithLabelValues("assemble features").Set(float64(len(rows)))
	done(nil)
	steps.CompleteStep()

	// consolidate categories
	steps.StartStep("consolidate categories")
	done = stage("consolidate categories")
	samples := toSamples(rows)
	collapsed := encoding.Consolidate(samples, features.CategoricalFeatures)
	done(nil)
	steps.CompleteStep()

	// bin continuous features
	steps.StartStep("bin continuous features")
	done = stage("bin continuous features")
	bins := deriveBins(rows)
	done(nil)
	steps.CompleteStep()

	// freeze alphabet
	steps.StartStep("freeze alphabet")
	done = stage("freeze alphabet")
	alphabet := encoding.BuildAlphabet(samples, features.AllFeatures(), collapsed, bins)
	done(nil)
	steps.CompleteStep()

	// write outputs
	steps.StartStep("write outputs")
	done = stage("write outputs")
	result, err := r.writeOutputs(ctx, runID, rows, alphabet)
	done(err)
	if err != nil {
		return nil, err
	}
	steps.CompleteStep()

	return result, nil
}

// fetchPriceIndex resolves the price index best-effort: remote provider
// first, the configured local file second, nil (no adjustment) last.
func (r *Runner) fetchPriceIndex(ctx context.Context) *pricing.PriceIndex {
	if r.cfg.PriceIndex.URL != "" {
		provider := providers.NewPriceIndexProvider(r.cfg.PriceIndex, cache.NewAuto())
		idx, err := provider.Fetch(ctx)
		if err == nil {
			r.metrics.PriceIndexFetches.WithLabelValues("ok").Inc()
			return idx
		}
		r.metrics.PriceIndexFetches.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("Price index fetch failed, trying local file")
	}

	if r.cfg.Data.PriceIndexFile != "" {
		idx, err := data.LoadPriceIndex(r.cfg.Data.PriceIndexFile)
		if err == nil {
			return idx
		}
		log.Warn().Err(err).Str("path", r.cfg.Data.PriceIndexFile).Msg("Local price index unreadable")
	}

	log.Warn().Msg("No price index available, amounts pass through unadjusted")
	return nil
}

func (r *Runner) writeOutputs(ctx context.Context, runID string, rows []*features.Row, alphabet *encoding.Alphabet) (*Result, error) {
	outDir := r.cfg.Data.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	featuresFile := filepath.Join(outDir, "features.csv")
	if err := data.WriteFeatureTable(featuresFile, rows); err != nil {
		return nil, err
	}
	r.metrics.RowsEmitted.Add(float64(len(rows)))

	alphabetFile := filepath.Join(outDir, "alphabet.json")
	if err := data.SaveAlphabet(alphabetFile, alphabet); err != nil {
		return nil, err
	}
	if err := data.WriteBaseProfile(filepath.Join(outDir, "base_categories.csv"), alphabet); err != nil {
		return nil, err
	}

	if err := r.persist(ctx, runID, rows, alphabet); err != nil {
		// Postgres is optional alongside the CSV artifacts.
		log.Warn().Err(err).Msg("Database persistence failed")
	}

	return &Result{
		RunID:        runID,
		Rows:         len(rows),
		FeaturesFile: featuresFile,
		AlphabetFile: alphabetFile,
	}, nil
}

// persist stores the run in Postgres when DATABASE_URL is set.
func (r *Runner) persist(ctx context.Context, runID string, rows []*features.Row, alphabet *encoding.Alphabet) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil
	}

	start := time.Now()
	db, repo, err := postgres.Connect(ctx, dsn)
	r.health.RecordCheck("database", err, time.Since(start))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	r.repo = repo

	records := make([]persistence.FeatureRecord, len(rows))
	now := time.Now().UTC()
	for i, row := range rows {
		records[i] = featureRecord(runID, row, now)
	}
	if err := repo.Features.InsertBatch(ctx, records); err != nil {
		return err
	}

	payload, err := data.MarshalAlphabet(alphabet)
	if err != nil {
		return err
	}
	return repo.Alphabets.Save(ctx, persistence.AlphabetRecord{
		RunID:     runID,
		Payload:   payload,
		CreatedAt: now,
	})
}

func featureRecord(runID string, row *features.Row, now time.Time) persistence.FeatureRecord {
	rec := persistence.FeatureRecord{
		RunID:          runID,
		CustomerCode:   row.CustomerCode,
		ContractNumber: row.ContractNumber,
		Renewed:        row.Renewed,
		TotalVisits:    row.TotalVisits,
		Last30Visits:   row.Last30Visits,
		OverallPct:     row.OverallPct,
		Last30Pct:      row.Last30Pct,
		AvgDuration:    row.AvgDuration,
		CallCount:      row.CallCount,
		Amount:         row.Amount,
		AdjustedAmount: row.AdjustedAmount,
		UnitPrice:      row.UnitPrice,
		AgeYears:       row.AgeYears,
		RenewalPct:     row.RenewalPct,
		PastRenewals:   row.PastRenewals,
		Categories:     row.Values,
		CreatedAt:      now,
	}
	if !row.StartDate.IsZero() {
		start := row.StartDate
		rec.StartDate = &start
	}
	if !row.EndDate.IsZero() {
		end := row.EndDate
		rec.EndDate = &end
	}
	return rec
}

// stageTimer returns a helper recording per-stage durations: call with the
// stage name, then invoke the returned func with the stage error.
func (r *Runner) stageTimer() func(stage string) func(error) {
	return func(stage string) func(error) {
		start := time.Now()
		return func(err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			r.metrics.StageDuration.WithLabelValues(stage, result).Observe(time.Since(start).Seconds())
		}
	}
}
