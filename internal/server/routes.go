package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/crmlens/crmlens/internal/executor"
	"github.com/crmlens/crmlens/internal/handler"
	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/middleware"
	"github.com/crmlens/crmlens/internal/observability"
	"github.com/crmlens/crmlens/internal/schema"
	"github.com/crmlens/crmlens/internal/security"
	"github.com/crmlens/crmlens/internal/service"
)

// setupRoutes returns (router, exec) so the store pool can be closed on
// shutdown.
func (s *Server) setupRoutes() (http.Handler, executor.Executor) {
	cfg := s.cfg
	registry := schema.Default()

	// ─── Services ───────────────────────────────────────────────────────────────
	var exec executor.Executor
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := executor.NewPostgres(ctx, cfg.DatabaseURL, time.Duration(cfg.QueryTimeoutMs)*time.Millisecond)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable")
		} else {
			exec = pg
		}
	} else {
		log.Warn().Msg("CRMLENS_DATABASE_URL not set - query execution disabled")
	}

	var fallback llm.Service
	if cfg.AnthropicAPIKey != "" {
		fallback = llm.NewClient(
			cfg.AnthropicAPIKey,
			cfg.FallbackModel,
			cfg.AnthropicBaseURL,
			time.Duration(cfg.FallbackTimeoutMs)*time.Millisecond,
			registry,
		)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - LLM fallback disabled")
	}

	// Startup summary so disabled features are visible at a glance.
	log.Info().
		Bool("database_enabled", exec != nil).
		Bool("fallback_enabled", fallback != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Msg("service configuration")

	if exec == nil {
		log.Warn().Msg("WARNING: no database configured - /api/v1/query will return 503")
	}
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Security ───────────────────────────────────────────────────────────────
	var piiDetector *security.PIIDetector
	if cfg.EnablePIIDetection {
		piiDetector = security.NewPIIDetector(cfg.PIIKeywords...)
	}
	questionVal := security.NewQuestionValidator()
	sqlVal := security.NewSQLValidator()
	dataMasker := security.NewDataMasker(cfg.SensitiveColumns...)
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	// ─── Pipeline ───────────────────────────────────────────────────────────────
	svc := service.NewQueryService(
		registry,
		fallback,
		questionVal,
		piiDetector,
		sqlVal,
		auditLogger,
		time.Duration(cfg.FallbackCacheTTL)*time.Second,
	)

	// ─── Handlers ───────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(exec, fallback != nil)
	interpretH := handler.NewInterpretHandler(svc)
	translateH := handler.NewTranslateHandler(svc)
	queryH := handler.NewQueryHandler(svc, exec, dataMasker, auditLogger, cfg.EnableDataMasking)
	tablesH := handler.NewTablesHandler(registry)
	funnelH := handler.NewFunnelHandler()

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(observability.MetricsMiddleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/interpret", interpretH.Interpret)
			r.Post("/translate", translateH.Translate)
			r.Post("/query", queryH.Execute)

			r.Get("/tables", tablesH.ListTables)
			r.Get("/tables/{table_name}", tablesH.GetTable)

			r.Post("/analytics/funnel", funnelH.Funnel)
		})
	})

	return r, exec
}
