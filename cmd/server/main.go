package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/embedding"
	"github.com/anonto42/lumina/backend/internal/handlers"
	"github.com/anonto42/lumina/backend/internal/metrics"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/internal/router"
	"github.com/anonto42/lumina/backend/pkg/config"
	"github.com/anonto42/lumina/backend/pkg/firebase"
	"github.com/anonto42/lumina/backend/pkg/logger"
	"github.com/anonto42/lumina/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const janitorInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("production")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Env)

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize firebase")
	}

	aiClient, err := ai.New(ctx, ai.Config{
		APIKey:         cfg.AI.APIKey,
		Model:          cfg.AI.Model,
		EmbeddingModel: cfg.AI.EmbeddingModel,
	}, log.With().Str("component", "ai").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AI client")
	}
	defer aiClient.Close()

	app := router.NewApp(cfg, db, firebaseApp.Auth(), aiClient, log)

	// Background workers stop when ctx is cancelled
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		runWorkers(ctx, app, log)
	}()

	metricsServer := metrics.NewServer(cfg.MetricsPort, log)
	metricsServer.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)

	config.SetupMiddleware(e, log)
	router.SetupRoutes(e, app)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown")
	}

	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("background workers did not stop in time")
	}
	app.Moderator.Wait()
	log.Info().Msg("server exited")
}

func runWorkers(ctx context.Context, app *router.App, log zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runNotificationJanitor(ctx, app.Notifications, log.With().Str("component", "janitor").Logger())
	}()

	if app.AI.Enabled() {
		worker := embedding.NewWorker(app.EmbedQueue, app.Blogs, app.AI, app.Config.Queues.EmbeddingWorker,
			log.With().Str("component", "embedding").Logger())
		if err := worker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("embedding worker exited")
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, embedding worker disabled")
	}
	<-done
}

// runNotificationJanitor deletes expired notifications once an hour
func runNotificationJanitor(ctx context.Context, repo repositories.NotificationRepository, log zerolog.Logger) {
	sweep := func() {
		n, err := handlers.CleanupOldNotifications(repo, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("deleting old notifications")
			return
		}
		if n > 0 {
			log.Info().Int64("deleted", n).Msg("old notifications deleted")
		}
	}

	sweep()
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
