package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vocabflow/internal/config"
	"vocabflow/internal/database"
	"vocabflow/internal/gateway"
	"vocabflow/internal/handlers"
	"vocabflow/internal/logging"
	"vocabflow/internal/presenter"
	"vocabflow/internal/repository"
	"vocabflow/internal/security"
	"vocabflow/internal/service"
	"vocabflow/internal/session"
	"vocabflow/internal/templates"
)

const (
	cleanupInterval = 15 * time.Minute
	// live controllers idle this long are dropped; their state stays stored
	controllerIdle = time.Hour
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	skipPolicy, err := session.ParseSkipPolicy(cfg.SkipPolicy)
	if err != nil {
		return err
	}
	csrfSource, err := gateway.ParseCSRFSource(cfg.CSRFSource)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepTemplates,
		handlers.StepServices,
	)

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connection established", "type", cfg.DatabaseType)
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		return err
	}
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepTemplates)
	tmpl, err := templates.Load(cfg.TemplatesPath)
	if err != nil {
		return err
	}
	logger.Info("templates loaded")
	startup.CompleteStep(handlers.StepTemplates)

	startup.SetCurrentStep(handlers.StepServices)
	vault, err := security.NewVault(cfg.SessionSecret)
	if err != nil {
		return err
	}
	tokens, err := security.NewSessionTokens(cfg.SessionSecret)
	if err != nil {
		return err
	}
	csrf, err := security.NewCSRFGenerator(cfg.SessionSecret)
	if err != nil {
		return err
	}
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginBurst, cleanupInterval)

	backends := service.NewBackendFactory(cfg.BackendURL,
		gateway.WithTimeout(cfg.BackendTimeout),
		gateway.WithCSRF(csrfSource, cfg.CSRFToken),
		gateway.WithLogger(logger.With("component", "gateway")),
	)

	sessionRepo := repository.NewSessionRepository(db)
	stateRepo := repository.NewStudyStateRepository(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.EmailFrom, "vocabflow", cfg.BaseURL, logger)
	if err != nil {
		// digests are optional; the rest of the app works without SES
		logger.Warn("email service unavailable", "error", err)
		emailService = nil
	}
	var digest service.DigestSender
	if emailService != nil {
		digest = emailService
	}

	authService := service.NewAuthService(sessionRepo, vault, tokens, backends, cfg.SessionDuration, logger)
	studyService := service.NewStudyService(stateRepo, backends, authService, session.Options{
		SkipPolicy: skipPolicy,
		Logger:     logger.With("component", "session"),
	})
	notebookService := service.NewNotebookService()
	statsService := service.NewStatsService(digest)
	mediaURL := cfg.MediaURL
	if mediaURL == "" {
		mediaURL = cfg.BackendURL
	}
	p := presenter.New(mediaURL)

	middleware := handlers.NewMiddleware(authService, studyService, csrf, limiter, logger)
	routes := &handlers.Routes{
		Middleware: middleware,
		Auth:       handlers.NewAuthHandler(authService, middleware, tmpl),
		Study:      handlers.NewStudyHandler(studyService, p, middleware, tmpl),
		Notebook:   handlers.NewNotebookHandler(notebookService, p, middleware, tmpl),
		Dashboard:  handlers.NewDashboardHandler(statsService, studyService, digest, p, middleware, tmpl),
		Health:     handlers.Health(startup, db),
	}
	mux := http.NewServeMux()
	routes.Register(mux)
	startup.CompleteStep(handlers.StepServices)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.Logging(logger, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanup(ctx, logger, authService, studyService, limiter)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "backend", cfg.BackendURL, "skip_policy", skipPolicy)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	startup.MarkReady()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// cleanup periodically removes expired sessions, idle controllers and
// stale rate limiter entries
func cleanup(ctx context.Context, logger *slog.Logger, auth *service.AuthService, study *service.StudyService, limiter *security.RateLimiter) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := auth.CleanupExpiredSessions(ctx)
		if err != nil {
			logger.Error("error cleaning up expired sessions", "error", err)
		} else if n > 0 {
			logger.Info("expired sessions cleaned up", "count", n)
		}
		if n := study.EvictIdle(controllerIdle); n > 0 {
			logger.Debug("idle study sessions evicted", "count", n)
		}
		limiter.Cleanup()
	}
}
