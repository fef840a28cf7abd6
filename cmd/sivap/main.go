package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	httpiface "github.com/Kaanturkoglu/SIVAP/internal/interfaces/http"
)

const (
	appName = "sivap"
	version = "v1.2.0"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	httpiface.InitializeMetrics()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Membership renewal feature pipeline",
		Version: version,
		Long: `SIVAP derives per-contract renewal features and labels from exported
membership records: contracts, customer demographics, cancellations,
facility visits and outbound calls. It emits the feature table and the
frozen category alphabet consumed by the model collaborator, and scores
pending contracts against the returned coefficient artifact.`,
	}

	rootCmd.PersistentFlags().String("config", "config/pipeline.yaml", "Path to pipeline config")

	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the full feature derivation pipeline",
		Long:  "Load sources, derive renewal labels, match events, aggregate usage, normalize prices and emit the feature table plus category alphabet",
		RunE:  runPipeline,
	}
	pipelineCmd.Flags().Bool("serve", false, "Keep the /health and /metrics server running after the run")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score pending contracts",
		Long:  "Select contracts with an unknown renewal label ending on or before the cutoff and classify them with the coefficient artifact",
		RunE:  runScore,
	}
	scoreCmd.Flags().String("cutoff", "", "Cutoff date (yyyy-mm-dd), required")
	scoreCmd.Flags().String("recent", "", "Newer contract export to compare predictions against")
	_ = scoreCmd.MarkFlagRequired("cutoff")

	rootCmd.AddCommand(pipelineCmd, scoreCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
