package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"menu-auth/internal/domain"
	"menu-auth/pkg/database"
)

const sqliteUserSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		email       TEXT NOT NULL,
		name        TEXT,
		picture     TEXT,
		google_id   TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);
`

// sqliteUserRepository stores users in SQLite
type sqliteUserRepository struct {
	db  *database.SQLiteDB
	now func() time.Time
}

// NewSQLiteUserRepository creates a SQLite backed user repository
func NewSQLiteUserRepository(db *database.SQLiteDB) UserRepository {
	return &sqliteUserRepository{
		db:  db,
		now: time.Now,
	}
}

// EnsureSQLiteSchema creates the users table when missing
func EnsureSQLiteSchema(ctx context.Context, db *database.SQLiteDB) error {
	if _, err := db.DB.ExecContext(ctx, sqliteUserSchema); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (*domain.User, error) {
	var (
		user    domain.User
		name    sql.NullString
		picture sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&picture,
		&user.ExternalID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if name.Valid {
		user.Name = &name.String
	}
	if picture.Valid {
		user.PictureURL = &picture.String
	}
	return &user, nil
}

func (r *sqliteUserRepository) findOne(ctx context.Context, where string, arg string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`

	user, err := scanSQLiteUser(r.db.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// FindByExternalID retrieves a user by Google subject
func (r *sqliteUserRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	user, err := r.findOne(ctx, "google_id = ?", externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *sqliteUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.findOne(ctx, "email = ?", email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// Create inserts a new user
func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullString(user.Name),
		nullString(user.PictureURL),
		user.ExternalID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var sqlErr *msqlite.Error
		if errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			return fmt.Errorf("%w: %v", ErrDuplicateUser, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update refreshes name and picture
func (r *sqliteUserRepository) Update(ctx context.Context, id string, change domain.UserProfileChange) (*domain.User, error) {
	query := `
		UPDATE users SET name = ?, picture = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + userColumns

	user, err := scanSQLiteUser(r.db.DB.QueryRowContext(ctx, query,
		nullString(change.Name), nullString(change.PictureURL), r.now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to update user %s: not found", id)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
