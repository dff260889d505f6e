package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crmlens/crmlens/internal/executor"
	"github.com/crmlens/crmlens/internal/models"
	"github.com/crmlens/crmlens/internal/observability"
	"github.com/crmlens/crmlens/internal/security"
	"github.com/crmlens/crmlens/internal/service"
)

// QueryHandler translates a question and executes the generated SQL.
type QueryHandler struct {
	svc         *service.QueryService
	exec        executor.Executor
	dataMasker  *security.DataMasker
	auditLogger *security.AuditLogger
	enableMask  bool
}

func NewQueryHandler(
	svc *service.QueryService,
	exec executor.Executor,
	dataMasker *security.DataMasker,
	auditLogger *security.AuditLogger,
	enableMask bool,
) *QueryHandler {
	return &QueryHandler{
		svc:         svc,
		exec:        exec,
		dataMasker:  dataMasker,
		auditLogger: auditLogger,
		enableMask:  enableMask,
	}
}

// Execute handles POST /api/v1/query
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Question == "" {
		models.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}
	if h.exec == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "query execution is not configured")
		return
	}

	res, err := h.svc.Translate(r.Context(), req.Question, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.TimeoutMs)*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := h.exec.Execute(ctx, res.Query)
	execMs := time.Since(start).Milliseconds()
	observability.ObserveExecution(err)
	if err != nil {
		h.auditLogger.LogExecution(req.Context.TenantID, res.Query.SQL, 0, execMs, false, err.Error())
		models.WriteError(w, http.StatusInternalServerError, "query execution failed: "+err.Error())
		return
	}

	data := result.Rows
	if h.enableMask && h.dataMasker != nil {
		data = h.dataMasker.MaskRows(data)
	}

	h.auditLogger.LogExecution(req.Context.TenantID, res.Query.SQL, len(data), execMs, true, "")

	models.WriteJSON(w, http.StatusOK, models.QueryResponse{
		Status:   "success",
		Data:     data,
		Columns:  result.Columns,
		RowCount: len(data),
		Query:    res.Query,
		Metadata: models.ExecutionMetadata{
			ExecutionTimeMs: execMs,
			RowCount:        len(data),
		},
	})
}
