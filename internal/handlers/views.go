package handlers

import (
	"net/http"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/models"
	"github.com/gorilla/mux"
)

// ViewHandler serves filter criteria, statistics and the combined view
type ViewHandler struct {
	coord *app.Coordinator
}

// NewViewHandler creates a new view handler
func NewViewHandler(coord *app.Coordinator) *ViewHandler {
	return &ViewHandler{coord: coord}
}

// RegisterRoutes registers view routes on the /api/v1 router
func (h *ViewHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/filters", h.GetFilters).Methods("GET")
	r.HandleFunc("/filters", h.UpdateFilters).Methods("PATCH")
	r.HandleFunc("/filters", h.ResetFilters).Methods("DELETE")
	r.HandleFunc("/statistics", h.GetStatistics).Methods("GET")
	r.HandleFunc("/view", h.GetView).Methods("GET")
}

// GetFilters returns the current criteria
func (h *ViewHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.Filters())
}

// UpdateFilters merges the supplied fields onto the current criteria
func (h *ViewHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var patch models.FilterPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	respondJSON(w, http.StatusOK, h.coord.UpdateFilters(patch))
}

// ResetFilters restores the match-everything criteria
func (h *ViewHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.ResetFilters())
}

// GetStatistics returns statistics over every task
func (h *ViewHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.Statistics())
}

// GetView returns filtered tasks, statistics, categories and criteria together
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.View())
}
