package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/nyashahama/management-diagnostic/internal/api"
	"github.com/nyashahama/management-diagnostic/internal/chart"
	"github.com/nyashahama/management-diagnostic/internal/config"
	"github.com/nyashahama/management-diagnostic/internal/db"
	"github.com/nyashahama/management-diagnostic/internal/email"
	"github.com/nyashahama/management-diagnostic/internal/lead"
	"github.com/nyashahama/management-diagnostic/internal/quiz"
	"github.com/nyashahama/management-diagnostic/internal/session"
	"github.com/nyashahama/management-diagnostic/internal/store"
	"github.com/nyashahama/management-diagnostic/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and gRPC health) until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// loadConfig reads the environment and applies the --quiz override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if src, _ := cmd.Flags().GetString("quiz"); src != "" {
		cfg.QuizSource = src
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command) error {
	logger := slog.Default()

	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port, "quiz_source", cfg.QuizSource)

	// Root context cancelled by OS signal. Every long-running part respects it.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Quiz ──────────────────────────────────────────────────────────────────
	// A failed load does not stop the process: the API reports the failed
	// state so the browser can show its error notice.
	q, loadErr := loadQuiz(ctx, cfg)
	var sessions *session.Registry
	if loadErr != nil {
		logger.Error("quiz: load failed, serving the failed state", "source", cfg.QuizSource, "error", loadErr)
	} else {
		logger.Info("quiz loaded",
			"variant", q.Variant(),
			"categories", q.CategoryCount(),
			"questions", q.TotalQuestions(),
		)
		sessions = session.NewRegistry(q, chart.ChartJSRenderer{}, cfg.SessionIdleTTL, logger)
		go sessions.Run(ctx, cfg.SessionSweepInterval)
	}

	// ── Lead sinks ────────────────────────────────────────────────────────────
	sinks, closeSinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	// ── Worker ────────────────────────────────────────────────────────────────
	runner := worker.NewRunner(sinks, worker.RunnerConfig{
		Workers:     cfg.WorkerCount,
		JobTimeout:  cfg.JobTimeout,
		MaxAttempts: cfg.MaxAttempts,
	}, logger)
	runnerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(runnerDone)
	}()

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		q,
		loadErr,
		sessions,
		runner, // *Runner satisfies worker.Enqueuer
		api.Config{Env: cfg.Env},
		logger,
	)

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var gs *grpc.Server
	if cfg.GRPCHealth {
		gs, _ = api.NewHealthServer(loadErr == nil)
	}

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if err := api.Serve(ctx, lis, srv, gs, logger); err != nil {
		return err
	}

	// runner.Start returns once its workers have drained or logged what is
	// left in the queue.
	stop()
	<-runnerDone
	logger.Info("shutdown complete")
	return nil
}

func loadQuiz(ctx context.Context, cfg *config.Config) (*quiz.Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.QuizFetchTimeout)
	defer cancel()
	return quiz.Load(ctx, cfg.QuizSource, &http.Client{Timeout: cfg.QuizFetchTimeout})
}

// buildSinks returns one sink per configured destination. The returned func
// releases whatever the sinks hold open.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]lead.Sink, func(), error) {
	var (
		sinks   []lead.Sink
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.LeadWebhookURL != "" {
		sinks = append(sinks, lead.NewWebhookSink(cfg.LeadWebhookURL, nil))
		logger.Info("leads: webhook sink enabled")
	}

	if cfg.DatabaseURL != "" {
		pool, queries, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		closers = append(closers, func() { pool.Close() })
		if err := migrateSchema(ctx, pool); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("database: migrate: %w", err)
		}
		sinks = append(sinks, lead.NewLedgerSink(store.New(pool, queries)))
		logger.Info("leads: ledger sink enabled")
	}

	if cfg.ResendAPIKey != "" {
		sinks = append(sinks, lead.NewEmailSink(email.NewResendClient(
			cfg.ResendAPIKey,
			cfg.EmailFromAddr,
			cfg.EmailFromName,
		)))
		logger.Info("leads: results email sink enabled")
	}

	if len(sinks) == 0 {
		logger.Warn("leads: no sink configured, submissions are discarded")
	}
	return sinks, closeAll, nil
}

// migrateSchema applies the lead ledger schema. Only serve calls it; read-only
// commands use the schema as they find it.
var migrateSchema = db.Migrate

// openDB opens the connection pool and verifies it. The server refuses to
// start if the database is unreachable.
func openDB(ctx context.Context, dsn string) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	// The ledger sees one insert per finished assessment.
	pool.SetMaxOpenConns(5)
	pool.SetMaxIdleConns(2)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	return pool, db.New(pool), nil
}
