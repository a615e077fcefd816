package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vetbox/vetbox/internal/api/handlers"
	mw "github.com/vetbox/vetbox/internal/api/middleware"
	"github.com/vetbox/vetbox/internal/catalog"
	"github.com/vetbox/vetbox/internal/config"
	"github.com/vetbox/vetbox/internal/domain"
	"github.com/vetbox/vetbox/internal/engine"
	"github.com/vetbox/vetbox/internal/llm"
	"github.com/vetbox/vetbox/internal/service"
	"github.com/vetbox/vetbox/internal/store"
	"go.uber.org/zap"
)

// Deps holds everything the router needs. DB is nil when the rule catalog
// was loaded from a file.
type Deps struct {
	Repo      *engine.Repository
	Questions map[string]string
	Extractor domain.ExtractorClient
	DB        *pgxpool.Pool
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router  *chi.Mux
	Janitor *service.JanitorService

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(deps Deps, logger *zap.Logger) *App {
	sessions := store.NewSessionStore()

	triageSvc := service.NewTriageService(
		deps.Repo,
		sessions,
		deps.Extractor,
		deps.Questions,
		config.MaxTurns(),
		engine.Options{PreferSeverityExploration: config.PreferSeverityExploration()},
		logger,
	)
	janitorSvc := service.NewJanitorService(sessions, config.SessionTTL(), logger)

	triageHandler := handlers.NewTriageHandler(triageSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Janitor:   janitorSvc,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(deps.DB))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1/triage", func(r chi.Router) {
		r.Post("/answer", triageHandler.SubmitAnswer)
		r.Post("/clear", triageHandler.ClearSession)
		r.Get("/session", triageHandler.GetSession)
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure sources and clients satisfy interfaces at compile time.
var (
	_ domain.RuleSource      = (*store.RuleStore)(nil)
	_ domain.RuleSource      = (*catalog.FileSource)(nil)
	_ domain.ExtractorClient = (*llm.OpenAIClient)(nil)
	_ domain.ExtractorClient = (*llm.AnthropicClient)(nil)
	_ domain.ExtractorClient = (*llm.MockClient)(nil)
)
