package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"menu-auth/internal/container"
	"menu-auth/internal/domain"
	"menu-auth/internal/metrics"
	"menu-auth/internal/middleware"
	"menu-auth/internal/service"
	"menu-auth/internal/service/session"
	apperrors "menu-auth/pkg/errors"
	"menu-auth/pkg/logger"
)

// Login error codes carried back to the front-end as ?error=
const (
	LoginErrorDenied          = "google_auth_denied"
	LoginErrorNoCode          = "no_code"
	LoginErrorExchangeFailed  = "token_exchange_failed"
	LoginErrorProfileFailed   = "profile_fetch_failed"
	LoginErrorEmailUnverified = "email_not_verified"
	LoginErrorInvalidState    = "invalid_state"
	LoginErrorUnknown         = "unknown"
)

const callbackPath = "/auth/google/callback"

// AuthHandler drives the OAuth login flow and the session endpoints
type AuthHandler struct {
	cfgFrontend string
	cfgAdmin    string
	redirectURL string
	trustProxy  bool
	origins     map[string]bool

	provider service.IdentityProvider
	state    service.StateCodec
	issuer   service.SessionIssuer
	binder   service.StateBinder
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	cfg := container.GetConfig()

	origins := make(map[string]bool)
	for _, o := range cfg.FrontendOrigins() {
		origins[o] = true
	}

	return &AuthHandler{
		cfgFrontend: cfg.FrontendURL,
		cfgAdmin:    cfg.AdminURL,
		redirectURL: cfg.OAuthRedirectURL,
		trustProxy:  cfg.TrustProxy,
		origins:     origins,
		provider:    container.Services.Provider,
		state:       container.Services.State,
		issuer:      container.Services.Issuer,
		binder:      container.Services.Binder,
		logger:      container.GetLogger().WithField("component", "auth"),
	}
}

// SessionResponse is the body of GET /auth/session
type SessionResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.SessionUser `json:"user,omitempty"`
}

// Initiate handles GET /auth/google
func (h *AuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	if !h.provider.Configured() {
		writeErrorResponse(w, apperrors.NewConfigurationError("Google OAuth is not configured"), log)
		return
	}

	target := h.cfgFrontend
	if r.URL.Query().Get("app") == "admin" && h.cfgAdmin != "" {
		target = h.cfgAdmin
	}

	secure := h.isSecure(r)
	nonce := uuid.NewString()
	blob, err := h.state.EncodeStateWithNonce(target, nonce)
	if err != nil {
		writeErrorResponse(w, apperrors.NewInternalError("Failed to start login", err), log)
		return
	}

	if err := h.binder.Bind(r.Context(), w, nonce, secure); err != nil {
		writeErrorResponse(w, apperrors.NewInternalError("Failed to start login", err), log)
		return
	}

	log.WithField("target", target).Debug("Redirecting to Google")
	http.Redirect(w, r, h.provider.AuthCodeURL(blob, h.callbackURL(r)), http.StatusFound)
}

// Callback handles GET /auth/google/callback. Every branch ends in a
// redirect; the session cookie is only set once all steps succeeded.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	secure := h.isSecure(r)

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", fmt.Sprint(rec)).Error("Login callback panicked")
			h.fail(w, r, h.cfgFrontend, LoginErrorUnknown)
		}
	}()

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		log.WithField("provider_error", providerErr).Info("User denied Google authorization")
		h.binder.Clear(w, secure)
		h.fail(w, r, h.cfgFrontend, LoginErrorDenied)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.binder.Clear(w, secure)
		h.fail(w, r, h.cfgFrontend, LoginErrorNoCode)
		return
	}

	target, nonce := h.recoverTarget(q.Get("state"), log)

	if err := h.binder.Verify(r.Context(), w, r, nonce, secure); err != nil {
		log.WithError(err).Warn("State binding check failed")
		h.fail(w, r, h.cfgFrontend, LoginErrorInvalidState)
		return
	}

	user, outcome := h.completeLogin(r.Context(), code, h.callbackURL(r), log)
	if outcome != "" {
		base := target
		if outcome == LoginErrorUnknown {
			base = h.cfgFrontend
		}
		h.fail(w, r, base, outcome)
		return
	}

	cookie, err := h.issuer.IssueSessionCookie(user, secure)
	if err != nil {
		log.WithError(err).Error("Failed to sign session")
		h.fail(w, r, h.cfgFrontend, LoginErrorUnknown)
		return
	}

	http.SetCookie(w, cookie)
	metrics.LoginOutcome("success")
	log.WithField("user_id", user.ID).Info("User logged in")

	http.Redirect(w, r, target+"/dashboard", http.StatusFound)
}

// completeLogin runs exchange, profile fetch and user resolution. A non
// empty outcome is the login error code.
func (h *AuthHandler) completeLogin(ctx context.Context, code, redirectURI string, log *logger.Logger) (*domain.User, string) {
	tok, err := h.provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, LoginErrorExchangeFailed
	}

	identity, err := h.provider.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, LoginErrorProfileFailed
	}

	if !identity.EmailVerified {
		log.WithField("external_id", identity.ExternalID).Info("Rejected login with unverified email")
		return nil, LoginErrorEmailUnverified
	}

	user, err := h.issuer.ResolveOrCreateUser(ctx, identity)
	if err != nil {
		log.WithError(err).Error("Failed to resolve user")
		return nil, LoginErrorUnknown
	}

	return user, ""
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, session.ClearSessionCookie(h.isSecure(r)))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	}, h.logger)
}

// Me handles GET /auth/me behind RequireSession
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, apperrors.NewAuthenticationError("Authentication required").
			WithCode(apperrors.CodeUnauthenticated), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    claims.User(),
	}, h.logger)
}

// Session handles GET /auth/session behind OptionalSession. It never fails.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{}
	if claims, ok := middleware.SessionFromContext(r.Context()); ok {
		user := claims.User()
		resp.Authenticated = true
		resp.User = &user
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    resp,
	}, h.logger)
}

// Protected handles GET /api/protected, an example route behind RequireSession
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, apperrors.NewAuthenticationError("Authentication required").
			WithCode(apperrors.CodeUnauthenticated), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "This is a protected route",
		"user":    claims.User(),
	}, h.logger)
}

// recoverTarget decodes the state best effort. Undecodable state or a
// redirect outside the known front-ends falls back to the default.
func (h *AuthHandler) recoverTarget(blob string, log *logger.Logger) (string, string) {
	st, err := h.state.DecodeState(blob)
	if err != nil {
		log.WithError(err).Debug("Falling back to default redirect")
		return h.cfgFrontend, ""
	}

	target := strings.TrimRight(st.Redirect, "/")
	if target == "" || !h.origins[target] {
		if target != "" {
			log.WithField("redirect", target).Warn("Ignoring redirect outside allowed origins")
		}
		return h.cfgFrontend, st.Nonce
	}

	return target, st.Nonce
}

// callbackURL is the redirect_uri registered with the provider. Initiate
// and Callback must produce the same value.
func (h *AuthHandler) callbackURL(r *http.Request) string {
	if h.redirectURL != "" {
		return h.redirectURL
	}
	scheme := "http"
	if h.isSecure(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host + callbackPath
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, base, code string) {
	metrics.LoginOutcome(code)
	http.Redirect(w, r, base+"/login?error="+url.QueryEscape(code), http.StatusFound)
}

func (h *AuthHandler) requestLogger(r *http.Request) *logger.Logger {
	return h.logger.WithRequestID(middleware.RequestIDFromContext(r.Context()))
}

// isSecure reports whether the client reached us over TLS. X-Forwarded-Proto
// counts only when the proxy is trusted.
func (h *AuthHandler) isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.trustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
