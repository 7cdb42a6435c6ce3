// Package store persists user credentials.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockdash/internal/models"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUserNotFound      = errors.New("user not found")
)

// Store is the credential store. Username uniqueness is enforced here,
// not by callers.
type Store interface {
	Create(ctx context.Context, u *models.User) (int64, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from the URL scheme and runs migrations.
//
//	postgres://... | postgresql://...   -> PostgreSQL (lib/pq)
//	sqlite://path | sqlite::memory: | file:... -> SQLite (modernc)
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStore(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "sqlite:"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(url, "sqlite:"))
	case strings.HasPrefix(url, "file:"):
		return NewSQLiteStore(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported database url %q", redact(url))
	}
}

// redact keeps the scheme and drops anything that may carry credentials.
func redact(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i+3] + "..."
	}
	return "..."
}
