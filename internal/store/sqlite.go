package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hireloop/talent-search/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Local development
// backend; no server required.
type SQLiteStore struct {
	db         *sql.DB
	bucketBase string
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn, bucketBase string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, bucketBase: bucketBase}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS saved_searches (
	id              TEXT PRIMARY KEY,
	query           TEXT NOT NULL,
	connected_to    TEXT NOT NULL DEFAULT '[]',
	sql_query       TEXT NOT NULL,
	results         TEXT NOT NULL,
	total_results   INTEGER NOT NULL,
	total_cost      REAL NOT NULL,
	logs            TEXT NOT NULL DEFAULT '',
	total_time      REAL NOT NULL,
	ranking_enabled INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_saved_searches_created_at ON saved_searches(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSearch(ctx context.Context, rec *model.SearchRecord) (*model.SearchRecord, error) {
	saved := *rec
	saved.ID = uuid.New().String()
	saved.CreatedAt = time.Now().UTC()
	saved.TotalResults = len(saved.Results)

	resultsJSON, err := json.Marshal(saved.Results)
	if err != nil {
		return nil, eris.Wrap(ErrPersistence, "sqlite: marshal results: "+err.Error())
	}
	connectedJSON, err := json.Marshal(saved.ConnectedTo)
	if err != nil {
		return nil, eris.Wrap(ErrPersistence, "sqlite: marshal connected_to: "+err.Error())
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_searches
			(id, query, connected_to, sql_query, results, total_results, total_cost, logs, total_time, ranking_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		saved.ID, saved.Query, string(connectedJSON), saved.SQLQuery, string(resultsJSON),
		saved.TotalResults, saved.TotalCost, saved.Logs, saved.TotalTime,
		boolToInt(saved.RankingEnabled), saved.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(ErrPersistence, err.Error())
	}

	return &saved, nil
}

func (s *SQLiteStore) GetSearch(ctx context.Context, id string) (*model.SearchRecord, error) {
	var rec model.SearchRecord
	var connectedJSON, resultsJSON string
	var ranking int

	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, connected_to, sql_query, results, total_results, total_cost, logs, total_time, ranking_enabled, created_at
		FROM saved_searches WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Query, &connectedJSON, &rec.SQLQuery, &resultsJSON,
		&rec.TotalResults, &rec.TotalCost, &rec.Logs, &rec.TotalTime,
		&ranking, &rec.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get search %s", id)
	}
	rec.RankingEnabled = ranking != 0

	if err := json.Unmarshal([]byte(connectedJSON), &rec.ConnectedTo); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode connected_to %s", id)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &rec.Results); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode results %s", id)
	}
	refreshProfilePics(rec.Results, s.bucketBase)

	return &rec, nil
}

func (s *SQLiteStore) ListSearches(ctx context.Context, filter SearchFilter) ([]model.SearchRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		where string
		args  []any
	)
	if filter.Query != "" {
		where = "WHERE query LIKE ?"
		args = append(args, "%"+filter.Query+"%")
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, strings.TrimSpace(`
		SELECT id, query, connected_to, sql_query, total_results, total_cost, total_time, ranking_enabled, created_at
		FROM saved_searches `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list searches")
	}
	defer rows.Close()

	var out []model.SearchRecord
	for rows.Next() {
		var rec model.SearchRecord
		var connectedJSON string
		var ranking int
		if err := rows.Scan(&rec.ID, &rec.Query, &connectedJSON, &rec.SQLQuery,
			&rec.TotalResults, &rec.TotalCost, &rec.TotalTime,
			&ranking, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search")
		}
		rec.RankingEnabled = ranking != 0
		if err := json.Unmarshal([]byte(connectedJSON), &rec.ConnectedTo); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode connected_to")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list searches")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
