// Package store persists completed searches. Two backends: Postgres for
// deployments, SQLite for local development.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/hireloop/talent-search/internal/model"
)

// ErrNotFound is returned when a search ID does not exist.
var ErrNotFound = eris.New("store: search not found")

// ErrPersistence wraps write failures. The pipeline has already produced
// the full in-memory result by the time a save runs, so callers may still
// deliver results without an ID.
var ErrPersistence = eris.New("store: persistence failure")

// SearchFilter specifies criteria for listing saved searches.
type SearchFilter struct {
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the saved-search persistence interface.
type Store interface {
	// SaveSearch inserts a completed search under a fresh UUID and returns
	// the stored record with ID and CreatedAt set.
	SaveSearch(ctx context.Context, rec *model.SearchRecord) (*model.SearchRecord, error)

	// GetSearch returns a persisted search or ErrNotFound. Profile-picture
	// URLs are re-derived on read.
	GetSearch(ctx context.Context, id string) (*model.SearchRecord, error)

	// ListSearches returns saved searches, newest first, without their
	// result payloads.
	ListSearches(ctx context.Context, filter SearchFilter) ([]model.SearchRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres backend uses. Satisfied
// by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}
