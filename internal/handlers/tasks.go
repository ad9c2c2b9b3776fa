package handlers

import (
	"net/http"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/validation"
	"github.com/gorilla/mux"
)

// TaskHandler handles task and subtask requests
type TaskHandler struct {
	coord *app.Coordinator
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(coord *app.Coordinator) *TaskHandler {
	return &TaskHandler{coord: coord}
}

// RegisterRoutes registers task routes on a router already prefixed with /tasks
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/batch-delete", h.BatchDelete).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/status", h.SetStatus).Methods("PUT")
	r.HandleFunc("/{id}/subtasks", h.AddSubtask).Methods("POST")
	r.HandleFunc("/{id}/subtasks/{subtaskId}", h.UpdateSubtask).Methods("PATCH")
	r.HandleFunc("/{id}/subtasks/{subtaskId}", h.DeleteSubtask).Methods("DELETE")
	r.HandleFunc("/{id}/subtasks/{subtaskId}/status", h.SetSubtaskStatus).Methods("PUT")
}

// SetStatusRequest changes a task's status
type SetStatusRequest struct {
	Status models.TaskStatus `json:"status" validate:"required,task_status"`
}

// SetSubtaskStatusRequest changes a subtask's status
type SetSubtaskStatusRequest struct {
	Status models.SubtaskStatus `json:"status" validate:"required,subtask_status"`
}

// BatchDeleteRequest lists the tasks to remove
type BatchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
}

// BatchDeleteResponse reports how many tasks were removed
type BatchDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// AddSubtaskRequest carries the new subtask title
type AddSubtaskRequest struct {
	Title string `json:"title" validate:"required,min=1,max=500"`
}

// ListTasks returns the tasks matching the current filter criteria.
// ?scope=all bypasses the filter.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("scope") == "all" {
		respondJSON(w, http.StatusOK, h.coord.CurrentTasks())
		return
	}
	respondJSON(w, http.StatusOK, h.coord.FilteredTasks())
}

// CreateTask adds a task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var input models.TaskInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	input.Title = validation.SanitizeText(input.Title)
	if input.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	input.Description = validation.SanitizeText(input.Description)
	input.Tags = validation.SanitizeTags(input.Tags)
	for i := range input.Subtasks {
		input.Subtasks[i].Title = validation.SanitizeText(input.Subtasks[i].Title)
		if input.Subtasks[i].Title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Subtask title cannot be empty after sanitization")
			return
		}
	}

	task, err := h.coord.AddTask(r.Context(), input)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// GetTask returns one task
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.coord.Task(pathVar(r, "id"))
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask merges the supplied fields onto a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}

	if patch.Title != nil {
		title := validation.SanitizeText(*patch.Title)
		if title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := validation.SanitizeText(*patch.Description)
		patch.Description = &description
	}
	if patch.Tags != nil {
		tags := validation.SanitizeTags(*patch.Tags)
		patch.Tags = &tags
	}

	task, err := h.coord.UpdateTask(r.Context(), pathVar(r, "id"), patch)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteTask(r.Context(), pathVar(r, "id")); err != nil {
		respondError(w, err, "Task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchDelete removes several tasks. Unknown ids are ignored.
func (h *TaskHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deleted, err := h.coord.BatchDelete(r.Context(), req.IDs)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, BatchDeleteResponse{Deleted: deleted})
}

// SetStatus changes a task's status
func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.coord.SetTaskStatus(r.Context(), pathVar(r, "id"), req.Status)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// AddSubtask appends a subtask and returns the parent task
func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	var req AddSubtaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	task, err := h.coord.AddSubtask(r.Context(), pathVar(r, "id"), title)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// UpdateSubtask merges the supplied fields onto a subtask
func (h *TaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var patch models.SubtaskPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	if patch.Title != nil {
		title := validation.SanitizeText(*patch.Title)
		if title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		patch.Title = &title
	}

	task, err := h.coord.UpdateSubtask(r.Context(), pathVar(r, "id"), pathVar(r, "subtaskId"), patch)
	if err != nil {
		respondError(w, err, "Task or subtask not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteSubtask removes a subtask and returns the parent task
func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	task, err := h.coord.DeleteSubtask(r.Context(), pathVar(r, "id"), pathVar(r, "subtaskId"))
	if err != nil {
		respondError(w, err, "Task or subtask not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// SetSubtaskStatus changes a subtask's status
func (h *TaskHandler) SetSubtaskStatus(w http.ResponseWriter, r *http.Request) {
	var req SetSubtaskStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.coord.SetSubtaskStatus(r.Context(), pathVar(r, "id"), pathVar(r, "subtaskId"), req.Status)
	if err != nil {
		respondError(w, err, "Task or subtask not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}
