// Package state ties the OAuth state nonce to the browser that started the
// login. The default mode keeps the flow stateless.
package state

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"menu-auth/pkg/logger"
	"menu-auth/pkg/redis"
)

// Mode selects how the nonce is bound
type Mode string

const (
	ModeNone   Mode = "none"
	ModeCookie Mode = "cookie"
	ModeRedis  Mode = "redis"
)

const (
	// CookieName holds the pending nonce between initiate and callback
	CookieName = "auth_state"
	// TTL bounds how long a login may stay pending
	TTL = redis.TTLOAuthState
)

var (
	// ErrMismatch is returned when the callback nonce is not the one issued to this browser
	ErrMismatch = errors.New("state nonce mismatch")
	// ErrReplayed is returned when a nonce was already consumed or never recorded
	ErrReplayed = errors.New("state nonce not pending")
)

// NonceStore records pending nonces for single use
type NonceStore interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	GetDel(ctx context.Context, key string) (string, error)
}

// ParseMode validates a STATE_BINDING value; empty means none
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeCookie:
		return ModeCookie, nil
	case ModeRedis:
		return ModeRedis, nil
	default:
		return "", fmt.Errorf("unknown state binding %q", s)
	}
}

// Binder binds and checks nonces according to its mode
type Binder struct {
	mode   Mode
	store  NonceStore
	keyFor func(nonce string) string
	logger *logger.Logger
}

// NewBinder creates a binder. Redis mode needs a store and key builder.
func NewBinder(mode Mode, store NonceStore, keys *redis.KeyBuilder, logger *logger.Logger) (*Binder, error) {
	b := &Binder{mode: mode, logger: logger}
	if mode == ModeRedis {
		if store == nil || keys == nil {
			return nil, fmt.Errorf("state binding %q requires a Redis client", mode)
		}
		b.store = store
		b.keyFor = keys.KeyOAuthState
	}
	return b, nil
}

// Mode returns the active binding mode
func (b *Binder) Mode() Mode {
	return b.mode
}

// Bind records the nonce for the browser about to leave for the provider
func (b *Binder) Bind(ctx context.Context, w http.ResponseWriter, nonce string, secure bool) error {
	if b.mode == ModeNone {
		return nil
	}

	if b.mode == ModeRedis {
		ok, err := b.store.SetNX(ctx, b.keyFor(nonce), "1", TTL)
		if err != nil {
			return fmt.Errorf("failed to record state nonce: %w", err)
		}
		if !ok {
			return fmt.Errorf("state nonce collision")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    nonce,
		Path:     "/auth/google",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Verify checks the nonce decoded from the callback state. The pending
// cookie is cleared whatever the outcome.
func (b *Binder) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request, nonce string, secure bool) error {
	if b.mode == ModeNone {
		return nil
	}

	b.Clear(w, secure)

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" || nonce == "" ||
		subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(nonce)) != 1 {
		return ErrMismatch
	}

	if b.mode == ModeRedis {
		if _, err := b.store.GetDel(ctx, b.keyFor(nonce)); err != nil {
			if errors.Is(err, redis.ErrNotFound) {
				b.logger.Warn("State nonce replayed or expired")
				return ErrReplayed
			}
			return fmt.Errorf("failed to consume state nonce: %w", err)
		}
	}

	return nil
}

// Clear removes the pending state cookie
func (b *Binder) Clear(w http.ResponseWriter, secure bool) {
	if b.mode == ModeNone {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
