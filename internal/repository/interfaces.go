package repository

import (
	"context"
	"errors"

	"menu-auth/internal/domain"
)

// ErrDuplicateUser is returned when a user with the same external id already exists
var ErrDuplicateUser = errors.New("user already exists")

// UserRepository defines the user store used by the login flow.
// Lookups return nil, nil when no row matches.
type UserRepository interface {
	// FindByExternalID retrieves a user by the identity provider subject
	FindByExternalID(ctx context.Context, externalID string) (*domain.User, error)

	// FindByEmail retrieves a user by email
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create inserts a new user, assigning ID and timestamps
	Create(ctx context.Context, user *domain.User) error

	// Update applies the provider-owned profile fields and returns the stored row
	Update(ctx context.Context, id string, change domain.UserProfileChange) (*domain.User, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	User UserRepository
}
