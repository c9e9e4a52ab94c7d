package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hireloop/talent-search/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool       Pool
	bucketBase string
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS saved_searches (
	id              UUID PRIMARY KEY,
	query           TEXT NOT NULL,
	connected_to    TEXT[] NOT NULL DEFAULT '{}',
	sql_query       TEXT NOT NULL,
	results         JSONB NOT NULL,
	total_results   INTEGER NOT NULL,
	total_cost      DOUBLE PRECISION NOT NULL,
	logs            TEXT NOT NULL DEFAULT '',
	total_time      DOUBLE PRECISION NOT NULL,
	ranking_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_saved_searches_created_at ON saved_searches(created_at DESC);
`

// NewPostgres creates a PostgresStore with a connection pool. bucketBase is
// the public base URL used to re-derive profile pictures on read.
func NewPostgres(ctx context.Context, connString, bucketBase string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool, bucketBase: bucketBase}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSearch(ctx context.Context, rec *model.SearchRecord) (*model.SearchRecord, error) {
	saved := *rec
	saved.ID = uuid.New().String()
	saved.CreatedAt = time.Now().UTC()
	saved.TotalResults = len(saved.Results)

	resultsJSON, err := json.Marshal(saved.Results)
	if err != nil {
		return nil, eris.Wrap(ErrPersistence, "postgres: marshal results: "+err.Error())
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO saved_searches
			(id, query, connected_to, sql_query, results, total_results, total_cost, logs, total_time, ranking_enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		saved.ID, saved.Query, saved.ConnectedTo, saved.SQLQuery, resultsJSON,
		saved.TotalResults, saved.TotalCost, saved.Logs, saved.TotalTime,
		saved.RankingEnabled, saved.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(ErrPersistence, err.Error())
	}

	return &saved, nil
}

func (s *PostgresStore) GetSearch(ctx context.Context, id string) (*model.SearchRecord, error) {
	var rec model.SearchRecord
	var resultsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, query, connected_to, sql_query, results, total_results, total_cost, logs, total_time, ranking_enabled, created_at
		FROM saved_searches WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Query, &rec.ConnectedTo, &rec.SQLQuery, &resultsJSON,
		&rec.TotalResults, &rec.TotalCost, &rec.Logs, &rec.TotalTime,
		&rec.RankingEnabled, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get search %s", id)
	}

	if err := json.Unmarshal(resultsJSON, &rec.Results); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode results %s", id)
	}
	refreshProfilePics(rec.Results, s.bucketBase)

	return &rec, nil
}

func (s *PostgresStore) ListSearches(ctx context.Context, filter SearchFilter) ([]model.SearchRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, query, connected_to, sql_query, total_results, total_cost, total_time, ranking_enabled, created_at
		FROM saved_searches
		WHERE ($1 = '' OR query ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		filter.Query, limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list searches")
	}
	defer rows.Close()

	var out []model.SearchRecord
	for rows.Next() {
		var rec model.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.ConnectedTo, &rec.SQLQuery,
			&rec.TotalResults, &rec.TotalCost, &rec.TotalTime,
			&rec.RankingEnabled, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list searches")
}

// refreshProfilePics re-derives every candidate's profile picture so bucket
// renames never require a data migration.
func refreshProfilePics(results []model.RankedCandidate, bucketBase string) {
	for i := range results {
		results[i].ProfilePic = model.DeriveProfilePic(results[i].LinkedInURL, bucketBase)
	}
}
