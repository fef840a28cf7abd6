package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Kaanturkoglu/SIVAP/internal/application/pipeline"
	httpiface "github.com/Kaanturkoglu/SIVAP/internal/interfaces/http"
)

func runPipeline(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	serve, _ := cmd.Flags().GetBool("serve")

	cfg, err := pipeline.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := httpiface.NewHealthTracker()
	health.SetVersion(version)

	var server *httpiface.Server
	if serve || cfg.ServeObservability {
		server, err = httpiface.NewServer(cfg.Server, health)
		if err != nil {
			return err
		}
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Observability server stopped")
			}
		}()
	}

	runner := pipeline.New(cfg, health)
	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", result.RunID).
		Int("rows", result.Rows).
		Str("features", result.FeaturesFile).
		Str("alphabet", result.AlphabetFile).
		Msg("Artifacts written")

	if server != nil && serve {
		log.Info().Str("addr", server.GetAddress()).Msg("Serving /health and /metrics, Ctrl+C to stop")
		<-ctx.Done()
	}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	return nil
}
