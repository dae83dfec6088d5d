package middleware

import (
	"context"
	"errors"
	"net/http"

	"menu-auth/internal/domain"
	"menu-auth/internal/metrics"
	"menu-auth/internal/service"
	"menu-auth/internal/service/session"
	"menu-auth/internal/service/token"
	apperrors "menu-auth/pkg/errors"
	"menu-auth/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// SessionContextKey is the key for the verified session claims in context
	SessionContextKey ContextKey = "session"
)

// SessionFromContext returns the claims set by RequireSession or OptionalSession
func SessionFromContext(ctx context.Context) (*domain.SessionClaims, bool) {
	claims, ok := ctx.Value(SessionContextKey).(*domain.SessionClaims)
	return claims, ok && claims != nil
}

// WithSession stores claims in the context
func WithSession(ctx context.Context, claims *domain.SessionClaims) context.Context {
	return context.WithValue(ctx, SessionContextKey, claims)
}

// readSession extracts and verifies the session cookie. It returns the
// error code to report when the session is unusable.
func readSession(r *http.Request, verifier service.SessionVerifier) (*domain.SessionClaims, string, error) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		metrics.SessionCheck("missing")
		return nil, apperrors.CodeUnauthenticated, http.ErrNoCookie
	}

	claims, err := verifier.VerifySession(cookie.Value)
	if err != nil {
		metrics.SessionCheck("invalid")
		return nil, apperrors.CodeInvalidSession, err
	}

	metrics.SessionCheck("valid")
	return claims, "", nil
}

// RequireSession rejects requests without a valid session cookie
func RequireSession(verifier service.SessionVerifier, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, code, err := readSession(r, verifier)
			if err != nil {
				log := logger.WithRequestID(RequestIDFromContext(r.Context())).WithField("path", r.URL.Path)

				var appErr *apperrors.AppError
				switch {
				case code == apperrors.CodeUnauthenticated:
					appErr = apperrors.NewAuthenticationError("Authentication required")
				case errors.Is(err, token.ErrExpired):
					appErr = apperrors.NewAuthenticationError("Session expired")
				default:
					appErr = apperrors.NewAuthenticationError("Invalid session")
				}
				appErr = appErr.WithCode(code)

				log.WithError(err).Debug("Session rejected")
				if werr := apperrors.WriteJSON(w, appErr); werr != nil {
					log.WithError(werr).Error("Failed to encode error response")
				}
				return
			}

			logger.WithField("user_id", claims.UserID).Debug("Session verified")
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}

// OptionalSession attaches the session when present and valid, otherwise
// continues anonymously
func OptionalSession(verifier service.SessionVerifier, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _, err := readSession(r, verifier)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					logger.WithError(err).Debug("Ignoring unusable session cookie")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}
