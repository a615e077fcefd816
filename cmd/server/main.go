package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vetbox/vetbox/internal/api"
	"github.com/vetbox/vetbox/internal/catalog"
	"github.com/vetbox/vetbox/internal/config"
	"github.com/vetbox/vetbox/internal/domain"
	"github.com/vetbox/vetbox/internal/engine"
	"github.com/vetbox/vetbox/internal/llm"
	"github.com/vetbox/vetbox/internal/store"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Rule catalog source: Postgres or a JSON file.
	var src domain.RuleSource
	var pool *pgxpool.Pool
	switch config.RuleSource() {
	case "db":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required when RULE_SOURCE=db")
		}

		var err error
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		if err := store.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to apply catalog schema", zap.Error(err))
		}
		logger.Info("connected to database")

		src = store.NewRuleStore(pool)

	case "file":
		src = catalog.NewFileSource(config.RulesPath())

	default:
		logger.Fatal("unknown RULE_SOURCE", zap.String("value", config.RuleSource()))
	}

	rules, err := src.LoadRules(ctx)
	if err != nil {
		logger.Fatal("failed to load rule catalog", zap.Error(err))
	}
	questions, err := src.LoadQuestionTemplates(ctx)
	if err != nil {
		logger.Fatal("failed to load question templates", zap.Error(err))
	}

	repo, err := engine.NewRepository(rules)
	if err != nil {
		// A malformed catalog is fatal to startup, never recovered silently.
		logger.Fatal("invalid rule catalog", zap.Error(err))
	}
	logger.Info("rule catalog loaded",
		zap.Int("rules", repo.Len()),
		zap.Int("question_templates", len(questions)))

	extractor, err := llm.NewClient(config.ExtractorProvider(), config.ExtractorAPIKey())
	if err != nil {
		logger.Fatal("extractor client initialization failed",
			zap.String("provider", config.ExtractorProvider()), zap.Error(err))
	}
	logger.Info("extractor client initialized", zap.String("provider", config.ExtractorProvider()))

	app := api.NewApp(api.Deps{
		Repo:      repo,
		Questions: questions,
		Extractor: extractor,
		DB:        pool,
	}, logger)

	app.Janitor.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
