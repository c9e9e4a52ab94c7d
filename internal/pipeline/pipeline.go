// Package pipeline composes the search stages: translation, execution,
// classification, ranking, persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/cost"
	"github.com/hireloop/talent-search/internal/logging"
	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/internal/store"
)

// Translator produces SQL from natural language.
type Translator interface {
	Translate(ctx context.Context, query string, connectedTo []string) (string, cost.Record, error)
	Relax(ctx context.Context, query, originalSQL string, connectedTo []string) (string, cost.Record, error)
}

// Searcher executes validated SQL against the candidate store.
type Searcher interface {
	Execute(ctx context.Context, sql string) ([]model.Candidate, error)
}

// Classifier buckets candidates by match strength.
type Classifier interface {
	Classify(ctx context.Context, query string, cands []model.Candidate) (model.Stage1Buckets, cost.Record, error)
}

// Ranker orders classified candidates.
type Ranker interface {
	Rank(ctx context.Context, query string, buckets model.Stage1Buckets) ([]model.RankedCandidate, cost.Record, error)
}

// Saver persists completed searches.
type Saver interface {
	SaveSearch(ctx context.Context, rec *model.SearchRecord) (*model.SearchRecord, error)
}

// Options are the per-request pipeline inputs.
type Options struct {
	Query          string
	ConnectedTo    []string
	RankingEnabled bool
}

// EmitFunc receives progress events as the pipeline advances. Called from
// the request goroutine only.
type EmitFunc func(model.ProgressEvent)

// Pipeline runs the full search-and-rank flow.
type Pipeline struct {
	translator Translator
	searcher   Searcher
	classifier Classifier
	ranker     Ranker
	saver      Saver

	// minResults triggers the relaxation pass when the first execution
	// returns fewer rows.
	minResults int
}

// New creates a Pipeline.
func New(translator Translator, searcher Searcher, classifier Classifier, ranker Ranker, saver Saver, minResults int) *Pipeline {
	if minResults <= 0 {
		minResults = 10
	}
	return &Pipeline{
		translator: translator,
		searcher:   searcher,
		classifier: classifier,
		ranker:     ranker,
		saver:      saver,
		minResults: minResults,
	}
}

// Run executes one search. Progress events are emitted in stage order with
// exactly one terminal event: complete (carrying the record) or error.
// On persistence failure the in-memory record is still completed and
// returned without an ID, alongside the wrapped store error.
func (p *Pipeline) Run(ctx context.Context, opts Options, emit EmitFunc) (*model.SearchRecord, error) {
	capture := NewLogCapture()
	log := capture.Logger()
	ctx = logging.NewContext(ctx, log)

	start := time.Now()
	var totalCost cost.Record

	fail := func(err error, msg string) (*model.SearchRecord, error) {
		log.Error(msg, zap.Error(err))
		emit(model.ProgressEvent{Step: model.StepError, Message: msg})
		return nil, err
	}

	// Stage 0: natural language to SQL.
	emit(model.ProgressEvent{Step: model.StepGeneratingQuery, Message: "Translating query to SQL"})
	sql, rec, err := p.translator.Translate(ctx, opts.Query, opts.ConnectedTo)
	if err != nil {
		return fail(err, "Failed to translate the query")
	}
	totalCost.Add(rec)

	// Search, with one relaxation pass for thin result sets.
	emit(model.ProgressEvent{Step: model.StepSearching, Message: "Searching candidates"})
	cands, err := p.searcher.Execute(ctx, sql)
	if err != nil {
		return fail(err, "Candidate search failed")
	}
	if len(cands) < p.minResults {
		sql, cands = p.relax(ctx, opts, sql, cands, &totalCost)
	}

	// Stage 1: per-candidate classification.
	emit(model.ProgressEvent{
		Step:    model.StepClassifying,
		Message: fmt.Sprintf("Classifying %d candidates", len(cands)),
	})
	buckets, rec, err := p.classifier.Classify(ctx, opts.Query, cands)
	if err != nil {
		return fail(err, "Classification failed")
	}
	totalCost.Add(rec)

	// Stage 2: ranking, or a plain flatten when disabled.
	var results []model.RankedCandidate
	if opts.RankingEnabled {
		emit(model.ProgressEvent{
			Step:    model.StepRanking,
			Message: fmt.Sprintf("Ranking %d strong matches", len(buckets.Strong)),
		})
		results, rec, err = p.ranker.Rank(ctx, opts.Query, buckets)
		if err != nil {
			return fail(err, "Ranking failed")
		}
		totalCost.Add(rec)
	} else {
		results = FlattenWithoutRanking(buckets)
	}

	record := &model.SearchRecord{
		Query:          opts.Query,
		ConnectedTo:    opts.ConnectedTo,
		SQLQuery:       sql,
		Results:        results,
		TotalResults:   len(results),
		TotalCost:      totalCost.TotalCost,
		Logs:           capture.Logs(),
		TotalTime:      time.Since(start).Seconds(),
		RankingEnabled: opts.RankingEnabled,
	}

	if ctx.Err() != nil {
		return fail(ctx.Err(), "Search cancelled")
	}

	saved, err := p.saver.SaveSearch(ctx, record)
	if err != nil {
		// The full result exists in memory; deliver it without an ID.
		log.Error("failed to persist search", zap.Error(err))
		emit(model.ProgressEvent{
			Step:    model.StepComplete,
			Message: "Search complete (not saved)",
			Data:    record,
		})
		return record, eris.Wrap(store.ErrPersistence, err.Error())
	}

	emit(model.ProgressEvent{Step: model.StepComplete, Message: "Search complete", Data: saved})
	return saved, nil
}

// relax asks the translator for a broadened query and keeps whichever
// result set is larger. Relaxation failures are warnings, never fatal.
func (p *Pipeline) relax(ctx context.Context, opts Options, sql string, cands []model.Candidate, totalCost *cost.Record) (string, []model.Candidate) {
	log := logging.FromContext(ctx)
	log.Info("thin result set, attempting relaxation",
		zap.Int("results", len(cands)),
		zap.Int("min_results", p.minResults),
	)

	relaxedSQL, rec, err := p.translator.Relax(ctx, opts.Query, sql, opts.ConnectedTo)
	if err != nil {
		log.Warn("relaxation skipped: translation failed", zap.Error(err))
		return sql, cands
	}
	totalCost.Add(rec)

	relaxed, err := p.searcher.Execute(ctx, relaxedSQL)
	if err != nil {
		log.Warn("relaxation skipped: execution failed", zap.Error(err))
		return sql, cands
	}

	if len(relaxed) > len(cands) {
		log.Info("using relaxed query",
			zap.Int("original_results", len(cands)),
			zap.Int("relaxed_results", len(relaxed)),
		)
		return relaxedSQL, relaxed
	}
	return sql, cands
}
