// Command backfill embeds every blog that does not have a vector yet and exits.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/embedding"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/pkg/config"
	"github.com/anonto42/lumina/backend/pkg/logger"
)

func main() {
	errorWait := flag.Duration("error-wait", 0, "wait after a failed attempt (default 60s)")
	pause := flag.Duration("pause", 0, "pause between blogs (default 5s)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New("production")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Env).With().Str("command", "backfill").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	aiClient, err := ai.New(ctx, ai.Config{
		APIKey:         cfg.AI.APIKey,
		Model:          cfg.AI.Model,
		EmbeddingModel: cfg.AI.EmbeddingModel,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AI client")
	}
	defer aiClient.Close()
	if !aiClient.Enabled() {
		log.Fatal().Msg("GEMINI_API_KEY is required for the backfill")
	}

	backfill := embedding.NewBackfill(repositories.NewMongoBlogRepository(db.MongoDB), aiClient, log)
	if *errorWait > 0 {
		backfill.ErrorWait = *errorWait
	}
	if *pause > 0 {
		backfill.Pause = *pause
	}

	res, err := backfill.Run(ctx)
	if err != nil {
		log.Error().Err(err).Int("done", res.Done).Int("failed", res.Failed).Msg("backfill interrupted")
		return
	}
	log.Info().Int("total", res.Total).Int("done", res.Done).Int("failed", res.Failed).Msg("backfill complete")
}
