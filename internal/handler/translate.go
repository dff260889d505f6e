package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmlens/crmlens/internal/models"
	"github.com/crmlens/crmlens/internal/service"
)

// TranslateHandler handles POST /api/v1/translate
type TranslateHandler struct {
	svc *service.QueryService
}

func NewTranslateHandler(svc *service.QueryService) *TranslateHandler {
	return &TranslateHandler{svc: svc}
}

// Translate runs the full pipeline and returns the SQL bundle without
// executing it.
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		models.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	res, err := h.svc.Translate(r.Context(), req.Question, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	models.WriteJSON(w, http.StatusOK, models.TranslateResponse{
		Status:         "success",
		Question:       req.Question,
		Interpretation: res.Interpretation,
		Query:          res.Query,
		UsedFallback:   res.UsedFallback,
	})
}
