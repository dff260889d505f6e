package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crmlens/crmlens/internal/config"
	"github.com/crmlens/crmlens/internal/interpreter"
	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
	"github.com/crmlens/crmlens/internal/schema"
	"github.com/crmlens/crmlens/internal/security"
	"github.com/crmlens/crmlens/internal/server"
	"github.com/crmlens/crmlens/internal/service"
)

var (
	translateTenant string
	translateTables []string
)

var rootCmd = &cobra.Command{
	Use:     "crmlens",
	Short:   "Natural-language to SQL translation for multi-tenant CRM data",
	Version: "1.0.0",
	Long: `crmlens turns free-text CRM questions into safe, parameterized,
tenant-isolated SQL. Questions run through a deterministic pattern
pipeline with an optional LLM fallback for low-confidence reads; every
generated query is bound to the calling tenant and checked against a
curated table allow-list before it leaves the service.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		observability.SetupLogging(cfg.LogLevel, cfg.Environment)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg).Run(ctx)
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate <question>",
	Short: "Translate one question to SQL without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// Keep stdout clean for the JSON result; diagnostics go to stderr.
		observability.SetupLogging("warn", cfg.Environment)

		registry := schema.Default()

		var fallback llm.Service
		if cfg.AnthropicAPIKey != "" {
			fallback = llm.NewClient(
				cfg.AnthropicAPIKey,
				cfg.FallbackModel,
				cfg.AnthropicBaseURL,
				time.Duration(cfg.FallbackTimeoutMs)*time.Millisecond,
				registry,
			)
		}

		var piiDetector *security.PIIDetector
		if cfg.EnablePIIDetection {
			piiDetector = security.NewPIIDetector(cfg.PIIKeywords...)
		}
		svc := service.NewQueryService(
			registry,
			fallback,
			security.NewQuestionValidator(),
			piiDetector,
			security.NewSQLValidator(),
			security.NewAuditLogger(false),
			time.Duration(cfg.FallbackCacheTTL)*time.Second,
		)

		tables := translateTables
		if len(tables) == 0 {
			tables = registry.Names()
		}
		qctx := interpreter.QueryContext{
			TenantID:        translateTenant,
			AvailableTables: tables,
		}

		res, err := svc.Translate(cmd.Context(), args[0], qctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"interpretation": res.Interpretation,
			"query":          res.Query,
			"used_fallback":  res.UsedFallback,
		})
	},
}

func init() {
	translateCmd.Flags().StringVarP(&translateTenant, "tenant", "t", "", "Tenant ID bound as $1 in the generated SQL")
	translateCmd.Flags().StringSliceVar(&translateTables, "tables", nil, "Tables the caller may query (default: the full allow-list)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(translateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
