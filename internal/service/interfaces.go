package service

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"menu-auth/internal/domain"
)

// IdentityProvider defines the outbound OAuth operations
type IdentityProvider interface {
	// Configured reports whether client credentials are set
	Configured() bool

	// AuthCodeURL builds the provider authorization URL
	AuthCodeURL(state, redirectURI string) string

	// ExchangeCode trades an authorization code for tokens
	ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)

	// FetchProfile reads the identity behind an access token
	FetchProfile(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error)
}

// StateCodec encodes and decodes the OAuth state parameter
type StateCodec interface {
	EncodeStateWithNonce(redirect, nonce string) (string, error)
	DecodeState(blob string) (*domain.CSRFState, error)
}

// SessionVerifier validates session tokens
type SessionVerifier interface {
	VerifySession(token string) (*domain.SessionClaims, error)
}

// SessionIssuer resolves users and mints session cookies
type SessionIssuer interface {
	ResolveOrCreateUser(ctx context.Context, identity *domain.ExternalIdentity) (*domain.User, error)
	IssueSessionCookie(user *domain.User, secure bool) (*http.Cookie, error)
}

// StateBinder ties the state nonce to the initiating browser
type StateBinder interface {
	Bind(ctx context.Context, w http.ResponseWriter, nonce string, secure bool) error
	Verify(ctx context.Context, w http.ResponseWriter, r *http.Request, nonce string, secure bool) error
	Clear(w http.ResponseWriter, secure bool)
}

// Services aggregates all service interfaces
type Services struct {
	Provider IdentityProvider
	State    StateCodec
	Sessions SessionVerifier
	Issuer   SessionIssuer
	Binder   StateBinder
}
