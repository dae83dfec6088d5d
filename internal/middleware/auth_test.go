package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-auth/internal/domain"
	"menu-auth/internal/service/token"
	"menu-auth/pkg/logger"
)

var guardStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signedCookie(t *testing.T, codec *token.Codec, claims domain.SessionClaims, ttl time.Duration) *http.Cookie {
	t.Helper()
	signed, err := codec.SignSession(claims, ttl)
	require.NoError(t, err)
	return &http.Cookie{Name: "auth", Value: signed}
}

// echoHandler reports whether claims reached the handler
func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := SessionFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"anonymous": true})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"userId": claims.UserID})
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequireSession(t *testing.T) {
	now := guardStart
	codec := token.NewCodec("secret", token.WithClock(func() time.Time { return now }))
	guard := RequireSession(codec, logger.NewNop())(echoHandler())

	valid := signedCookie(t, codec, domain.SessionClaims{UserID: "u1", Email: "a@x.com"}, time.Hour)
	expired := signedCookie(t, codec, domain.SessionClaims{UserID: "u1", Email: "a@x.com"}, -time.Minute)
	foreign := signedCookie(t, token.NewCodec("other"), domain.SessionClaims{UserID: "u1", Email: "a@x.com"}, time.Hour)
	noEmail := signedCookie(t, codec, domain.SessionClaims{UserID: "u1"}, time.Hour)

	tests := []struct {
		name         string
		cookie       *http.Cookie
		expectedCode int
		errorCode    string
	}{
		{name: "valid session", cookie: valid, expectedCode: http.StatusOK},
		{name: "no cookie", cookie: nil, expectedCode: http.StatusUnauthorized, errorCode: "unauthenticated"},
		{name: "empty cookie", cookie: &http.Cookie{Name: "auth", Value: ""}, expectedCode: http.StatusUnauthorized, errorCode: "unauthenticated"},
		{name: "garbage", cookie: &http.Cookie{Name: "auth", Value: "garbage"}, expectedCode: http.StatusUnauthorized, errorCode: "invalid_session"},
		{name: "expired", cookie: expired, expectedCode: http.StatusUnauthorized, errorCode: "invalid_session"},
		{name: "wrong secret", cookie: foreign, expectedCode: http.StatusUnauthorized, errorCode: "invalid_session"},
		{name: "missing claims", cookie: noEmail, expectedCode: http.StatusUnauthorized, errorCode: "invalid_session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			guard.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			body := decode(t, rec)
			if tt.errorCode == "" {
				assert.Equal(t, "u1", body["userId"])
				return
			}
			assert.Equal(t, false, body["success"])
			errBody := body["error"].(map[string]interface{})
			assert.Equal(t, "authentication", errBody["type"])
			assert.Equal(t, tt.errorCode, errBody["code"])
		})
	}
}

func TestRequireSession_ExpiresOverTime(t *testing.T) {
	now := guardStart
	codec := token.NewCodec("secret", token.WithClock(func() time.Time { return now }))
	guard := RequireSession(codec, logger.NewNop())(echoHandler())
	cookie := signedCookie(t, codec, domain.SessionClaims{UserID: "u1", Email: "a@x.com"}, time.Hour)

	serve := func() int {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve())
	now = guardStart.Add(time.Hour)
	assert.Equal(t, http.StatusUnauthorized, serve())
}

func TestOptionalSession(t *testing.T) {
	codec := token.NewCodec("secret")
	guard := OptionalSession(codec, logger.NewNop())(echoHandler())
	valid := signedCookie(t, codec, domain.SessionClaims{UserID: "u1", Email: "a@x.com"}, time.Hour)

	tests := []struct {
		name      string
		cookie    *http.Cookie
		anonymous bool
	}{
		{name: "valid", cookie: valid},
		{name: "absent", anonymous: true},
		{name: "garbage", cookie: &http.Cookie{Name: "auth", Value: "garbage"}, anonymous: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			guard.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			if tt.anonymous {
				assert.Equal(t, true, body["anonymous"])
			} else {
				assert.Equal(t, "u1", body["userId"])
			}
		})
	}
}

func TestSessionFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims, ok := SessionFromContext(req.Context())
	assert.False(t, ok)
	assert.Nil(t, claims)
}
