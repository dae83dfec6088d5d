package domain

import "time"

// User is the local account record. ExternalID is the only key back to the
// identity provider; Email is informational.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       *string   `json:"name"`
	PictureURL *string   `json:"picture"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName returns the name or an empty string when unset
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// Picture returns the picture URL or an empty string when unset
func (u *User) Picture() string {
	if u.PictureURL == nil {
		return ""
	}
	return *u.PictureURL
}

// ExternalIdentity represents the profile asserted by the identity provider
// during a single callback.
type ExternalIdentity struct {
	ExternalID    string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"name"`
	PictureURL    string `json:"picture"`
}

// UserProfileChange holds the provider-owned fields that may be refreshed on login
type UserProfileChange struct {
	Name       *string
	PictureURL *string
}
