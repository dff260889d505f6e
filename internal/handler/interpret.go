package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmlens/crmlens/internal/models"
	"github.com/crmlens/crmlens/internal/service"
)

// InterpretHandler handles POST /api/v1/interpret
type InterpretHandler struct {
	svc *service.QueryService
}

func NewInterpretHandler(svc *service.QueryService) *InterpretHandler {
	return &InterpretHandler{svc: svc}
}

// Interpret runs the guards and interpretation without generating SQL, so
// clients can preview how a question will be read.
func (h *InterpretHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		models.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	interp, usedFallback, err := h.svc.Interpret(r.Context(), req.Question, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	models.WriteJSON(w, http.StatusOK, models.InterpretResponse{
		Status:         "success",
		Question:       req.Question,
		Interpretation: interp,
		UsedFallback:   usedFallback,
	})
}
