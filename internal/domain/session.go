package domain

import "time"

// SessionClaims is the claim set carried by the session cookie
type SessionClaims struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Picture   *string   `json:"picture"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// SessionUser is the public view of a session returned by the API
type SessionUser struct {
	UserID  string  `json:"userId"`
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

// User returns the public view of the claims
func (c *SessionClaims) User() SessionUser {
	return SessionUser{
		UserID:  c.UserID,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}
}

// CSRFState is the opaque value round-tripped through the identity provider
type CSRFState struct {
	Redirect string `json:"redirect"`
	Nonce    string `json:"nonce"`
}
