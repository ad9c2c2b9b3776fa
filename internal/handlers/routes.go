package handlers

import (
	"github.com/benvon/smart-tasks/internal/app"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterAPIRoutes mounts every task, category, view and settings route on a router
// already prefixed with /api/v1
func RegisterAPIRoutes(api *mux.Router, coord *app.Coordinator, logger *zap.Logger) {
	NewTaskHandler(coord).RegisterRoutes(api.PathPrefix("/tasks").Subrouter())
	NewCategoryHandler(coord).RegisterRoutes(api.PathPrefix("/categories").Subrouter())
	NewViewHandler(coord).RegisterRoutes(api)
	NewSettingsHandler(coord, logger).RegisterRoutes(api)
}
