package log

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// StepLogger provides step-by-step progress feedback for pipeline runs. On a
// TTY it renders a progress bar; otherwise it falls back to structured log
// lines only.
type StepLogger struct {
	steps       []string
	currentStep int
	startTime   time.Time
	stepStart   time.Time
	stepTimes   []time.Duration
	bar         *progressbar.ProgressBar
}

// NewStepLogger creates a step logger for the named pipeline run.
func NewStepLogger(name string, steps []string) *StepLogger {
	sl := &StepLogger{
		steps:       steps,
		currentStep: -1,
		startTime:   time.Now(),
		stepTimes:   make([]time.Duration, len(steps)),
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		sl.bar = progressbar.NewOptions(len(steps),
			progressbar.OptionSetDescription(name),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(20),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}

	return sl
}

// StartStep begins a new pipeline step.
func (sl *StepLogger) StartStep(stepName string) {
	stepIndex := -1
	for i, step := range sl.steps {
		if step == stepName {
			stepIndex = i
			break
		}
	}

	if stepIndex == -1 {
		log.Warn().Str("step", stepName).Msg("Unknown pipeline step")
		return
	}

	sl.currentStep = stepIndex
	sl.stepStart = time.Now()

	if sl.bar != nil {
		sl.bar.Describe(stepName)
	}

	log.Info().
		Str("step", stepName).
		Int("step_number", stepIndex+1).
		Int("total_steps", len(sl.steps)).
		Msg("Starting pipeline step")
}

// CompleteStep marks the current step as completed.
func (sl *StepLogger) CompleteStep() {
	if sl.currentStep < 0 {
		return
	}

	stepDuration := time.Since(sl.stepStart)
	sl.stepTimes[sl.currentStep] = stepDuration

	if sl.bar != nil {
		_ = sl.bar.Add(1)
	}

	log.Info().
		Str("step", sl.steps[sl.currentStep]).
		Dur("duration", stepDuration).
		Msg("Pipeline step completed")
}

// Finish completes the step logger and logs a timing summary.
func (sl *StepLogger) Finish() {
	totalDuration := time.Since(sl.startTime)

	if sl.bar != nil {
		_ = sl.bar.Finish()
	}

	log.Info().
		Dur("total_duration", totalDuration).
		Int("steps", len(sl.steps)).
		Msg("Pipeline completed")

	for i, step := range sl.steps {
		if sl.stepTimes[i] == 0 {
			continue
		}
		percentage := float64(sl.stepTimes[i]) / float64(totalDuration) * 100
		log.Debug().
			Str("step", step).
			Dur("duration", sl.stepTimes[i]).
			Float64("percentage", percentage).
			Msgf("  %d. %s", i+1, step)
	}
}

// Fail marks the step logger as failed.
func (sl *StepLogger) Fail(reason string) {
	if sl.bar != nil {
		_ = sl.bar.Exit()
		fmt.Fprintln(os.Stderr)
	}

	log.Error().
		Str("failed_step", sl.currentStepName()).
		Int("completed_steps", sl.currentStep).
		Int("total_steps", len(sl.steps)).
		Str("reason", reason).
		Msg("Pipeline failed")
}

func (sl *StepLogger) currentStepName() string {
	if sl.currentStep >= 0 && sl.currentStep < len(sl.steps) {
		return sl.steps[sl.currentStep]
	}
	return "unknown"
}

// RowBar returns a per-row progress bar for long loops, or nil when stderr is
// not a terminal. Callers must tolerate a nil return.
func RowBar(description string, total int) *progressbar.ProgressBar {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}
