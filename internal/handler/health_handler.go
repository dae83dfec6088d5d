package handler

import (
	"context"
	"net/http"
	"time"

	"menu-auth/internal/container"
	"menu-auth/pkg/database"
	"menu-auth/pkg/logger"
)

const serviceVersion = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	db     database.Handle
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		db:     container.DB,
		logger: container.GetLogger(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// Check handles GET / and GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested")

	status := http.StatusOK
	response := HealthResponse{
		Success:   true,
		Message:   "menu-auth API is running",
		Version:   serviceVersion,
		Database:  "ok",
		Timestamp: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Health(ctx); err != nil {
		h.logger.WithError(err).Warn("Database health check failed")
		status = http.StatusServiceUnavailable
		response.Success = false
		response.Database = "unavailable"
	}

	writeJSON(w, status, response, h.logger)
}
