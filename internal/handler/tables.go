package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crmlens/crmlens/internal/models"
	"github.com/crmlens/crmlens/internal/schema"
)

// TablesHandler serves the query allow-list. Everything comes from the
// curated registry; the live database is never introspected.
type TablesHandler struct {
	registry *schema.Registry
}

func NewTablesHandler(registry *schema.Registry) *TablesHandler {
	return &TablesHandler{registry: registry}
}

// ListTables handles GET /api/v1/tables
func (h *TablesHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.registry.Tables()
	summaries := make([]models.TableSummary, len(tables))
	for i, t := range tables {
		cols := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			cols[j] = c.Name
		}
		summaries[i] = models.TableSummary{
			Name:     t.Name,
			Columns:  cols,
			Synonyms: t.Synonyms,
		}
	}
	models.WriteJSON(w, http.StatusOK, models.TablesResponse{
		Status: "success",
		Tables: summaries,
	})
}

// GetTable handles GET /api/v1/tables/{table_name}
func (h *TablesHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table_name")
	t, ok := h.registry.Lookup(name)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "table not in the allow-list: "+name)
		return
	}

	cols := make([]map[string]any, len(t.Columns))
	for i, c := range t.Columns {
		physical := c.Physical
		if physical == "" {
			physical = c.Name
		}
		cols[i] = map[string]any{
			"name":     c.Name,
			"physical": physical,
		}
	}

	resp := map[string]any{
		"status":   "success",
		"table":    t.Name,
		"columns":  cols,
		"synonyms": t.Synonyms,
	}
	if dateCol, ok := h.registry.DateColumn(t.Name); ok {
		resp["date_column"] = dateCol
	}
	models.WriteJSON(w, http.StatusOK, resp)
}
