package models

import (
	"github.com/crmlens/crmlens/internal/analytics"
	"github.com/crmlens/crmlens/internal/interpreter"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// InterpretResponse is returned by POST /api/v1/interpret
type InterpretResponse struct {
	Status         string                      `json:"status"`
	Question       string                      `json:"question"`
	Interpretation *interpreter.Interpretation `json:"interpretation"`
	UsedFallback   bool                        `json:"used_fallback"`
}

// TranslateResponse is returned by POST /api/v1/translate
type TranslateResponse struct {
	Status         string                      `json:"status"`
	Question       string                      `json:"question"`
	Interpretation *interpreter.Interpretation `json:"interpretation"`
	Query          *sqlgen.SQLQuery            `json:"query"`
	UsedFallback   bool                        `json:"used_fallback"`
}

// ExecutionMetadata describes a run against the store.
type ExecutionMetadata struct {
	ExecutionTimeMs int64 `json:"execution_time_ms"`
	RowCount        int   `json:"row_count"`
}

// QueryResponse is returned by POST /api/v1/query
type QueryResponse struct {
	Status   string            `json:"status"`
	Data     []map[string]any  `json:"data"`
	Columns  []string          `json:"columns"`
	RowCount int               `json:"row_count"`
	Query    *sqlgen.SQLQuery  `json:"query"`
	Metadata ExecutionMetadata `json:"metadata"`
}

// TableSummary is one allow-list entry in GET /api/v1/tables.
type TableSummary struct {
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// TablesResponse is returned by GET /api/v1/tables
type TablesResponse struct {
	Status string         `json:"status"`
	Tables []TableSummary `json:"tables"`
}

// FunnelResponse is returned by POST /api/v1/analytics/funnel
type FunnelResponse struct {
	Status            string                    `json:"status"`
	TenantID          string                    `json:"tenant_id"`
	ExpectedCycleDays float64                   `json:"expected_cycle_days"`
	Stages            []analytics.StageEstimate `json:"stages"`
	LossBreakdown     []analytics.LossEstimate  `json:"loss_breakdown"`
}
