// Package token encodes the OAuth state parameter and signs and verifies
// session tokens.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"menu-auth/internal/domain"
)

var (
	// ErrMalformedState is returned when the state blob cannot be decoded
	ErrMalformedState = errors.New("malformed state")
	// ErrInvalidSignature is returned for tokens that fail signature checks or cannot be parsed
	ErrInvalidSignature = errors.New("invalid session signature")
	// ErrExpired is returned once the token reached its expiry
	ErrExpired = errors.New("session expired")
	// ErrMalformedClaims is returned when required claims are missing
	ErrMalformedClaims = errors.New("malformed session claims")
	// ErrNoSecret is returned when signing without a configured secret
	ErrNoSecret = errors.New("session secret not configured")
)

// iat and exp carry microseconds so a session stays valid for its full ttl.
func init() {
	jwt.TimePrecision = time.Microsecond
}

// Codec signs session tokens with HS256 and handles the state parameter
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithClock overrides the clock used for issued-at and expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec bound to the session signing secret
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionClaims struct {
	UserID  string  `json:"userId"`
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
	jwt.RegisteredClaims
}

// EncodeState builds the base64url state blob with a fresh random nonce
func (c *Codec) EncodeState(redirect string) (string, error) {
	return c.EncodeStateWithNonce(redirect, uuid.NewString())
}

// EncodeStateWithNonce builds the state blob around a caller supplied nonce
func (c *Codec) EncodeStateWithNonce(redirect, nonce string) (string, error) {
	raw, err := json.Marshal(domain.CSRFState{Redirect: redirect, Nonce: nonce})
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeState parses a state blob. The blob carries no signature, so a
// successful decode says nothing about who produced it.
func (c *Codec) DecodeState(blob string) (*domain.CSRFState, error) {
	blob = strings.TrimRight(strings.TrimSpace(blob), "=")
	if blob == "" {
		return nil, ErrMalformedState
	}

	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	var state domain.CSRFState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	return &state, nil
}

// SignSession signs the claim set and stamps issued-at and expires-at
func (c *Codec) SignSession(claims domain.SessionClaims, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSecret
	}

	now := c.now().Truncate(jwt.TimePrecision)
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tk.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// VerifySession checks signature and expiry and returns the claims
func (c *Codec) VerifySession(tokenString string) (*domain.SessionClaims, error) {
	if len(c.secret) == 0 {
		return nil, ErrNoSecret
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if parsed.UserID == "" || parsed.Email == "" {
		return nil, ErrMalformedClaims
	}

	claims := &domain.SessionClaims{
		UserID:  parsed.UserID,
		Email:   parsed.Email,
		Name:    parsed.Name,
		Picture: parsed.Picture,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}
