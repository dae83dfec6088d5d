// Package session turns a verified identity into a local user and a signed
// session cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"menu-auth/internal/domain"
	"menu-auth/internal/repository"
	"menu-auth/pkg/logger"
)

const (
	// CookieName is the session cookie carrying the signed token
	CookieName = "auth"
	// TTL is the lifetime of both the token and the cookie
	TTL = 7 * 24 * time.Hour
)

// ErrStore wraps any user store failure during resolution
var ErrStore = errors.New("user store failure")

// Signer mints session tokens
type Signer interface {
	SignSession(claims domain.SessionClaims, ttl time.Duration) (string, error)
}

// Issuer resolves users and issues session cookies
type Issuer struct {
	users  repository.UserRepository
	signer Signer
	logger *logger.Logger
}

// NewIssuer creates a session issuer
func NewIssuer(users repository.UserRepository, signer Signer, logger *logger.Logger) *Issuer {
	return &Issuer{
		users:  users,
		signer: signer,
		logger: logger,
	}
}

// ResolveOrCreateUser maps an identity to a local user. New identities are
// created; for known ones only a changed name or picture is written.
func (i *Issuer) ResolveOrCreateUser(ctx context.Context, identity *domain.ExternalIdentity) (*domain.User, error) {
	log := i.logger.WithField("external_id", identity.ExternalID)

	user, err := i.users.FindByExternalID(ctx, identity.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if user == nil {
		user = &domain.User{
			Email:      identity.Email,
			Name:       optional(identity.DisplayName),
			PictureURL: optional(identity.PictureURL),
			ExternalID: identity.ExternalID,
		}

		err := i.users.Create(ctx, user)
		if err == nil {
			log.WithField("user_id", user.ID).Info("Created user on first login")
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicateUser) {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}

		// A concurrent first login for the same identity won the insert
		log.Debug("User created concurrently, re-reading")
		user, err = i.users.FindByExternalID(ctx, identity.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		if user == nil {
			return nil, fmt.Errorf("%w: user vanished after duplicate insert", ErrStore)
		}
	}

	change, changed := profileChange(user, identity)
	if !changed {
		return user, nil
	}

	updated, err := i.users.Update(ctx, user.ID, change)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	log.WithField("user_id", updated.ID).Debug("Refreshed user profile")

	return updated, nil
}

// IssueSessionCookie signs a session for the user and wraps it in the auth cookie
func (i *Issuer) IssueSessionCookie(user *domain.User, secure bool) (*http.Cookie, error) {
	signed, err := i.signer.SignSession(domain.SessionClaims{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.PictureURL,
	}, TTL)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearSessionCookie returns a cookie that removes the session
func ClearSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Max-Age=0 on the wire
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// profileChange compares the provider-owned fields
func profileChange(user *domain.User, identity *domain.ExternalIdentity) (domain.UserProfileChange, bool) {
	change := domain.UserProfileChange{
		Name:       user.Name,
		PictureURL: user.PictureURL,
	}
	changed := false

	if user.DisplayName() != identity.DisplayName {
		change.Name = optional(identity.DisplayName)
		changed = true
	}
	if user.Picture() != identity.PictureURL {
		change.PictureURL = optional(identity.PictureURL)
		changed = true
	}

	return change, changed
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
