// Package database opens the user store backends: PostgreSQL through pgx and
// SQLite through modernc.org/sqlite.
package database

import (
	"context"
	"strings"
)

// Driver identifies the backend selected by a connection URL
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverUnknown  Driver = ""
)

// Handle is an opened database with an explicit lifetime
type Handle interface {
	Health(ctx context.Context) error
	Close() error
}

// DriverFor picks the backend from the URL scheme
func DriverFor(databaseURL string) Driver {
	u := strings.ToLower(strings.TrimSpace(databaseURL))
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(u, "sqlite:"), strings.HasPrefix(u, "file:"):
		return DriverSQLite
	default:
		return DriverUnknown
	}
}

// SQLitePath strips the scheme from a sqlite or file URL
func SQLitePath(databaseURL string) string {
	p := strings.TrimSpace(databaseURL)
	for _, prefix := range []string{"sqlite://", "sqlite:", "file://"} {
		if strings.HasPrefix(strings.ToLower(p), prefix) {
			return p[len(prefix):]
		}
	}
	// file: URIs are understood by the driver as is
	return p
}
