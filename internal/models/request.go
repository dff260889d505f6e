package models

import "github.com/crmlens/crmlens/internal/interpreter"

// TranslateRequest for POST /api/v1/translate and POST /api/v1/interpret.
type TranslateRequest struct {
	Question string                   `json:"question"`
	Context  interpreter.QueryContext `json:"context"`
}

// QueryRequest for POST /api/v1/query. Translates the question and runs
// the generated SQL against the store.
type QueryRequest struct {
	Question  string                   `json:"question"`
	Context   interpreter.QueryContext `json:"context"`
	TimeoutMs int                      `json:"timeout_ms"`
}

func (r *QueryRequest) SetDefaults() {
	if r.TimeoutMs == 0 {
		r.TimeoutMs = 30000
	}
	if r.TimeoutMs < 1000 {
		r.TimeoutMs = 1000
	}
	if r.TimeoutMs > 120000 {
		r.TimeoutMs = 120000
	}
}

// FunnelRequest for POST /api/v1/analytics/funnel.
type FunnelRequest struct {
	TenantID string   `json:"tenant_id"`
	Stages   []string `json:"stages,omitempty"`
}
