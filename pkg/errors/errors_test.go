package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		errType    ErrorType
		statusCode int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"authentication", NewAuthenticationError("no"), ErrorTypeAuthentication, http.StatusUnauthorized},
		{"not found", NewNotFoundError("gone"), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
		{"external", NewExternalError("upstream", nil), ErrorTypeExternal, http.StatusBadGateway},
		{"rate limit", NewRateLimitError("slow down"), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"configuration", NewConfigurationError("unset"), ErrorTypeConfiguration, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewInternalError("store unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal: store unavailable (connection refused)", err.Error())
	assert.Equal(t, "authentication: no", NewAuthenticationError("no").Error())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, NewAuthenticationError("Session expired").WithCode(CodeInvalidSession))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])

	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "authentication", errBody["type"])
	assert.Equal(t, "invalid_session", errBody["code"])
	assert.Equal(t, "Session expired", errBody["message"])
	_, hasDetails := errBody["details"]
	assert.False(t, hasDetails)
}
