package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmlens/crmlens/internal/analytics"
	"github.com/crmlens/crmlens/internal/models"
)

// FunnelHandler serves the illustrative pipeline-funnel estimates.
type FunnelHandler struct{}

func NewFunnelHandler() *FunnelHandler {
	return &FunnelHandler{}
}

// Funnel handles POST /api/v1/analytics/funnel
func (h *FunnelHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	var req models.FunnelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TenantID == "" {
		models.WriteError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	stages := analytics.FilterStages(analytics.DefaultStageDurations, req.Stages)
	if len(stages) == 0 {
		models.WriteError(w, http.StatusBadRequest, "no known stages requested")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.FunnelResponse{
		Status:            "success",
		TenantID:          req.TenantID,
		ExpectedCycleDays: analytics.ExpectedCycleDays(stages),
		Stages:            analytics.StageEstimates(stages),
		LossBreakdown:     analytics.LossBreakdown(analytics.DefaultLossReasonWeights),
	})
}
