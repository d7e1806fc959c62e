package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ashureev/shsh-quiz/internal/api"
	"github.com/ashureev/shsh-quiz/internal/catalog"
	"github.com/ashureev/shsh-quiz/internal/completion"
	"github.com/ashureev/shsh-quiz/internal/config"
	"github.com/ashureev/shsh-quiz/internal/identity"
	"github.com/ashureev/shsh-quiz/internal/middleware"
	"github.com/ashureev/shsh-quiz/internal/quiz"
	"github.com/ashureev/shsh-quiz/internal/store"
	"github.com/ashureev/shsh-quiz/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quiz HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func openLedger(cfg *config.Config) (store.Repository, error) {
	return store.Open(store.Options{
		Driver:         cfg.Ledger.Driver,
		Path:           cfg.Ledger.DBPath,
		DSN:            cfg.Ledger.DatabaseURL,
		MaxRetries:     cfg.Ledger.MaxRetries,
		RetryBaseDelay: cfg.Ledger.RetryBaseDelay,
	})
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	cat, err := catalog.LoadDir(ctx, cfg.QuestionsDir, slog.Default())
	if err != nil {
		return err
	}
	if cat.Empty() {
		slog.Warn("No courses available", "questions_dir", cfg.QuestionsDir)
	}

	repo, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}
	if repo != nil {
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				slog.Error("Failed to close repository", "error", closeErr)
			}
		}()
		slog.Info("Completion ledger connected", "driver", cfg.Ledger.Driver)
	} else {
		slog.Info("Completion ledger disabled")
	}

	markers, err := completion.NewFileMarkers(cfg.MarkerDir)
	if err != nil {
		return fmt.Errorf("initialize markers: %w", err)
	}

	// Initialize services.
	trackerOpts := []completion.Option{completion.WithClientID(identity.ClientIDFromContext)}
	serviceOpts := []quiz.Option{quiz.WithTrimAnswers(cfg.TrimAnswers)}
	if repo != nil {
		trackerOpts = append(trackerOpts, completion.WithLedger(repo))
		serviceOpts = append(serviceOpts, quiz.WithLedger(repo))
	}
	tracker := completion.NewTracker(markers, trackerOpts...)
	svc := quiz.NewService(cat, tracker, serviceOpts...)

	pages, err := web.LoadPages()
	if err != nil {
		return err
	}

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo, markers.Dir(), cfg.Timeout.HealthCheck)
	quizHandler := api.NewQuizHandler(svc)
	pageHandler := api.NewPageHandler(svc, pages)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	if cfg.Timeout.Request > 0 {
		r.Use(chiMiddleware.Timeout(cfg.Timeout.Request))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)
	quizHandler.RegisterRoutes(r)
	pageHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.Timeout.Read,
		WriteTimeout: cfg.Timeout.Write,
		IdleTimeout:  cfg.Timeout.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "courses", len(cat.CourseIDs()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}
