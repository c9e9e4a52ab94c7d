package candidates

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/logging"
	"github.com/hireloop/talent-search/internal/model"
)

// Executor runs validated SELECT statements against the candidate store.
// Each call opens its own connection and releases it on return; results are
// exclusively owned by the caller.
type Executor struct {
	connString string
	bucketBase string

	// connect allows test injection.
	connect func(ctx context.Context, connString string) (conn, error)
}

type conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// NewExecutor creates an Executor. bucketBase is the public base URL for
// profile pictures.
func NewExecutor(connString, bucketBase string) *Executor {
	return &Executor{
		connString: connString,
		bucketBase: bucketBase,
		connect: func(ctx context.Context, cs string) (conn, error) {
			return pgx.Connect(ctx, cs)
		},
	}
}

// Execute validates sql through the safety gate, runs it, and maps each row
// to a Candidate. Profile pictures are derived from the LinkedIn URL, never
// read from the stored column.
func (e *Executor) Execute(ctx context.Context, sql string) ([]model.Candidate, error) {
	if !IsSafeQuery(sql) {
		return nil, eris.Wrap(ErrUnsafeQuery, sql)
	}

	c, err := e.connect(ctx, e.connString)
	if err != nil {
		return nil, eris.Wrap(err, "candidates: connect")
	}
	defer c.Close(context.WithoutCancel(ctx))

	rows, err := c.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "candidates: query")
	}
	defer rows.Close()

	log := logging.FromContext(ctx)
	fields := rows.FieldDescriptions()

	var out []model.Candidate
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "candidates: read row")
		}

		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				row[fd.Name] = values[i]
			}
		}

		cand, err := toCandidate(row)
		if err != nil {
			log.Warn("skipping malformed candidate row", zap.Error(err))
			continue
		}
		cand.ProfilePic = model.DeriveProfilePic(cand.LinkedInURL, e.bucketBase)
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "candidates: iterate rows")
	}

	log.Info("executed candidate search",
		zap.Int("rows", len(out)),
	)

	return out, nil
}

// toCandidate decodes a generic row mapping into a Candidate. Round-tripping
// through JSON handles the mix of scalar, array and JSON document columns
// uniformly; numeric types arrive as whatever the driver chose.
func toCandidate(row map[string]any) (model.Candidate, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return model.Candidate{}, eris.Wrap(err, "candidates: marshal row")
	}

	var cand model.Candidate
	if err := json.Unmarshal(raw, &cand); err != nil {
		return model.Candidate{}, eris.Wrap(err, "candidates: decode row")
	}
	if cand.LinkedInURL == "" {
		return model.Candidate{}, eris.New("candidates: row missing linkedin_url")
	}
	return cand, nil
}
