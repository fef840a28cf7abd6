package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Kaanturkoglu/SIVAP/internal/application/pipeline"
	httpiface "github.com/Kaanturkoglu/SIVAP/internal/interfaces/http"
)

func runScore(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cutoffStr, _ := cmd.Flags().GetString("cutoff")
	recentFile, _ := cmd.Flags().GetString("recent")

	cutoff, err := time.Parse("2006-01-02", cutoffStr)
	if err != nil {
		return fmt.Errorf("invalid --cutoff %q, expected yyyy-mm-dd: %w", cutoffStr, err)
	}

	cfg, err := pipeline.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := httpiface.NewHealthTracker()
	health.SetVersion(version)

	runner := pipeline.New(cfg, health)
	summary, err := runner.Score(ctx, cutoff, recentFile)
	if err != nil {
		return err
	}

	ev := log.Info().
		Str("run_id", summary.RunID).
		Int("scored", summary.Scored).
		Int("predicted_churners", summary.Churners).
		Str("output", summary.OutputFile)
	if summary.Agreement != nil {
		ev = ev.Int("compared", summary.Agreement.Compared).
			Int("agreed", summary.Agreement.Agreed)
	}
	ev.Msg("Scores written")
	return nil
}
