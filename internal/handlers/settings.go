package handlers

import (
	"net/http"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SettingsHandler handles the sync flag, theme and reload requests
type SettingsHandler struct {
	coord  *app.Coordinator
	logger *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(coord *app.Coordinator, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{coord: coord, logger: logger}
}

// RegisterRoutes registers settings routes on the /api/v1 router
func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/settings/sync", h.GetSync).Methods("GET")
	r.HandleFunc("/settings/sync", h.SetSync).Methods("PUT")
	r.HandleFunc("/settings/theme", h.GetTheme).Methods("GET")
	r.HandleFunc("/settings/theme", h.SetTheme).Methods("PUT")
	r.HandleFunc("/sync/reload", h.Reload).Methods("POST")
}

// SetSyncRequest toggles remote synchronization
type SetSyncRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ThemeRequest sets the theme
type ThemeRequest struct {
	Theme models.Theme `json:"theme" validate:"required,theme"`
}

// ThemeResponse reports the theme
type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}

// ReloadResponse reports what was loaded
type ReloadResponse struct {
	Tasks      int `json:"tasks"`
	Categories int `json:"categories"`
}

// GetSync reports whether sync is on and whether a remote exists
func (h *SettingsHandler) GetSync(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.SyncSettings(r.Context()))
}

// SetSync persists the sync flag. Enabling it reloads from the remote.
func (h *SettingsHandler) SetSync(w http.ResponseWriter, r *http.Request) {
	var req SetSyncRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	settings, err := h.coord.SetSyncEnabled(r.Context(), *req.Enabled)
	if err != nil {
		respondError(w, err, "Setting not found")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// GetTheme returns the theme
func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ThemeResponse{Theme: h.coord.Theme(r.Context())})
}

// SetTheme persists the theme
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.coord.SetTheme(r.Context(), req.Theme); err != nil {
		respondError(w, err, "Setting not found")
		return
	}
	respondJSON(w, http.StatusOK, ThemeResponse{Theme: req.Theme})
}

// Reload re-reads tasks and categories from storage
func (h *SettingsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Load(r.Context()); err != nil {
		h.logger.Warn("reload_failed", zap.Error(err))
		respondError(w, err, "Nothing to reload")
		return
	}
	respondJSON(w, http.StatusOK, ReloadResponse{
		Tasks:      len(h.coord.CurrentTasks()),
		Categories: len(h.coord.Categories()),
	})
}
