package handlers

import (
	"net/http"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/validation"
	"github.com/gorilla/mux"
)

// CategoryHandler handles category requests
type CategoryHandler struct {
	coord *app.Coordinator
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(coord *app.Coordinator) *CategoryHandler {
	return &CategoryHandler{coord: coord}
}

// RegisterRoutes registers category routes on a router already prefixed with /categories
func (h *CategoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCategories).Methods("GET")
	r.HandleFunc("", h.CreateCategory).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateCategory).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteCategory).Methods("DELETE")
}

// ListCategories returns every category
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.Categories())
}

// CreateCategory adds a category. A missing color gets the default.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input models.CategoryInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	input.Name = validation.SanitizeText(input.Name)
	if input.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	category, err := h.coord.AddCategory(r.Context(), input)
	if err != nil {
		respondError(w, err, "Category not found")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory renames or recolors a category
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch models.CategoryPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	if patch.Name != nil {
		name := validation.SanitizeText(*patch.Name)
		if name == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		patch.Name = &name
	}

	category, err := h.coord.UpdateCategory(r.Context(), pathVar(r, "id"), patch)
	if err != nil {
		respondError(w, err, "Category not found")
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory removes a category and clears it from the tasks that used it
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteCategory(r.Context(), pathVar(r, "id")); err != nil {
		respondError(w, err, "Category not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
