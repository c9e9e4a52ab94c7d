package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hireloop/talent-search/internal/candidates"
	"github.com/hireloop/talent-search/internal/config"
	"github.com/hireloop/talent-search/internal/cost"
	"github.com/hireloop/talent-search/internal/pipeline"
	"github.com/hireloop/talent-search/internal/store"
	"github.com/hireloop/talent-search/internal/translate"
	"github.com/hireloop/talent-search/pkg/gemini"
	"github.com/hireloop/talent-search/pkg/openai"
)

// app bundles the wired pipeline and store for the commands.
type app struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

// Close releases the store; LLM clients are scoped per batch and need no
// teardown here.
func (a *app) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// newStore opens the configured saved-search backend.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	bucketBase := cfg.Supabase.ProfileBucketBase()

	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath, bucketBase)
	case "postgres", "":
		connString := cfg.Store.DatabaseURL
		if connString == "" {
			cs, err := candidates.BuildConnString(cfg.Supabase)
			if err != nil {
				return nil, err
			}
			connString = cs
		}
		return store.NewPostgres(ctx, connString, bucketBase)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initApp wires the full pipeline from configuration.
func initApp(ctx context.Context) (*app, error) {
	if cfg.OpenAI.Key == "" {
		return nil, eris.New("OPENAI_API_KEY is required")
	}
	if cfg.Gemini.Key == "" {
		return nil, eris.New("GOOGLE_API_KEY is required")
	}

	calc := cost.NewCalculator(cfg.Pricing)

	expansions, err := translate.LoadExpansions()
	if err != nil {
		return nil, err
	}
	translatorClient := openai.NewClient(cfg.OpenAI.Key,
		openai.WithMaxRetries(cfg.OpenAI.MaxRetries),
		openai.WithTimeout(time.Duration(cfg.OpenAI.TimeoutSecs)*time.Second),
	)
	translator := translate.NewTranslator(translatorClient, cfg.OpenAI.Model, expansions, calc)

	connString, err := candidates.BuildConnString(cfg.Supabase)
	if err != nil {
		return nil, err
	}
	searcher := candidates.NewExecutor(connString, cfg.Supabase.ProfileBucketBase())

	classifier := pipeline.NewLLMClassifier(
		pipeline.BatchClientFactory(cfg.OpenAI.Key, cfg.OpenAI.MaxRetries,
			time.Duration(cfg.OpenAI.TimeoutSecs)*time.Second),
		cfg.OpenAI.Model,
		cfg.Search.BatchSize,
		time.Duration(cfg.Search.RequestIntervalMS)*time.Millisecond,
		calc,
	)

	ranker := pipeline.NewLLMRanker(
		gemini.NewClient(cfg.Gemini.Key,
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithMaxRetries(cfg.Gemini.MaxRetries),
		),
		cfg.Gemini.Model,
		calc,
	)

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		Pipeline: pipeline.New(translator, searcher, classifier, ranker, st, cfg.Search.MinResults),
		Store:    st,
	}, nil
}
