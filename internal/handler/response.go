package handler

import (
	"encoding/json"
	"net/http"

	"menu-auth/pkg/errors"
	"menu-auth/pkg/logger"
)

// writeJSON writes a success payload
func writeJSON(w http.ResponseWriter, status int, payload interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	log := logger.WithError(appErr)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request error")
	} else {
		log.Debug("Request error")
	}

	if err := errors.WriteJSON(w, appErr); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}

// NotFound answers unknown routes
func NotFound(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "route not found",
			"path":    r.URL.Path,
		}, logger)
	}
}
