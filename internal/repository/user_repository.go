package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"menu-auth/internal/domain"
	"menu-auth/pkg/database"
)

const postgresUserSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		email       TEXT NOT NULL,
		name        TEXT,
		picture     TEXT,
		google_id   TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);
`

// userRepository stores users in PostgreSQL
type userRepository struct {
	db  *database.PostgresDB
	now func() time.Time
}

// NewUserRepository creates a PostgreSQL backed user repository
func NewUserRepository(db *database.PostgresDB) UserRepository {
	return &userRepository{
		db:  db,
		now: time.Now,
	}
}

// EnsurePostgresSchema creates the users table when missing
func EnsurePostgresSchema(ctx context.Context, db *database.PostgresDB) error {
	if _, err := db.Pool.Exec(ctx, postgresUserSchema); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

const userColumns = `id, email, name, picture, google_id, created_at, updated_at`

func (r *userRepository) findOne(ctx context.Context, where string, arg string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`

	user := &domain.User{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PictureURL,
		&user.ExternalID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// FindByExternalID retrieves a user by Google subject
func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	user, err := r.findOne(ctx, "google_id = $1", externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.findOne(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PictureURL,
		user.ExternalID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateUser, pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update refreshes name and picture
func (r *userRepository) Update(ctx context.Context, id string, change domain.UserProfileChange) (*domain.User, error) {
	query := `
		UPDATE users SET name = $1, picture = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + userColumns

	user := &domain.User{}
	err := r.db.Pool.QueryRow(ctx, query, change.Name, change.PictureURL, r.now().UTC(), id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PictureURL,
		&user.ExternalID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to update user %s: not found", id)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
