package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/talent-search/internal/cost"
	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/pkg/gemini"
)

type fakeGemini struct {
	lastReq gemini.GenerateRequest
	text    string
	err     error
}

func (f *fakeGemini) GenerateContent(_ context.Context, req gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &gemini.GenerateResponse{
		Text:  f.text,
		Usage: gemini.Usage{PromptTokens: 1000, CandidatesTokens: 50},
	}, nil
}

func stage1(index int, mt model.MatchType, name, analysis string, confidence int) model.Stage1Result {
	return model.Stage1Result{
		Index:      index,
		MatchType:  mt,
		Analysis:   analysis,
		Confidence: confidence,
		Candidate:  model.Candidate{LinkedInURL: "https://linkedin.com/in/" + name, Name: name},
	}
}

func testBuckets() model.Stage1Buckets {
	return model.Stage1Buckets{
		Strong: []model.Stage1Result{
			stage1(0, model.MatchStrong, "alice", "Deep Python experience.", 95),
			stage1(1, model.MatchStrong, "bob", "Led platform teams.", 90),
		},
		Partial: []model.Stage1Result{
			stage1(2, model.MatchPartial, "carol", "Missing healthcare experience.", 60),
		},
		NoMatch: []model.Stage1Result{
			stage1(3, model.MatchNone, "dave", "", 80),
		},
	}
}

func TestRankOrdering(t *testing.T) {
	llm := &fakeGemini{text: `{"rankings":[{"index":1,"relevance_score":97},{"index":0,"relevance_score":88}]}`}
	r := NewLLMRanker(llm, "gemini-2.5-pro", cost.NewCalculator(cost.DefaultRates()))

	out, rec, err := r.Rank(context.Background(), "python leads", testBuckets())
	require.NoError(t, err)
	require.Len(t, out, 4)

	// Strong sorted by model score desc, then partial, then no-match.
	assert.Equal(t, "bob", out[0].Name)
	assert.InDelta(t, 97, out[0].Score, 1e-9)
	assert.Equal(t, "alice", out[1].Name)
	assert.Equal(t, "carol", out[2].Name)
	assert.Equal(t, model.MatchPartial, out[2].Match)
	assert.Equal(t, "dave", out[3].Name)
	assert.InDelta(t, 0, out[3].Score, 1e-9)
	assert.Empty(t, out[3].FitDescription)

	assert.Greater(t, rec.TotalCost, 0.0)
}

func TestRankMissingIndexGetsPenalty(t *testing.T) {
	// Model forgot index 1.
	llm := &fakeGemini{text: `{"rankings":[{"index":0,"relevance_score":95}]}`}
	r := NewLLMRanker(llm, "gemini-2.5-pro", cost.NewCalculator(cost.DefaultRates()))

	out, _, err := r.Rank(context.Background(), "python leads", testBuckets())
	require.NoError(t, err)

	assert.Equal(t, "alice", out[0].Name)
	assert.Equal(t, "bob", out[1].Name)
	assert.InDelta(t, 80, out[1].Score, 1e-9)
}

func TestRankIgnoresBogusIndices(t *testing.T) {
	llm := &fakeGemini{text: `{"rankings":[
		{"index":9,"relevance_score":99},
		{"index":-1,"relevance_score":99},
		{"index":0,"relevance_score":91},
		{"index":0,"relevance_score":12},
		{"index":1,"relevance_score":85}
	]}`}
	r := NewLLMRanker(llm, "gemini-2.5-pro", cost.NewCalculator(cost.DefaultRates()))

	out, _, err := r.Rank(context.Background(), "python leads", testBuckets())
	require.NoError(t, err)

	assert.Equal(t, "alice", out[0].Name)
	assert.InDelta(t, 91, out[0].Score, 1e-9)
	assert.Equal(t, "bob", out[1].Name)
	assert.InDelta(t, 85, out[1].Score, 1e-9)
}

func TestRankClampsOutOfBoundsScores(t *testing.T) {
	llm := &fakeGemini{text: `{"rankings":[{"index":0,"relevance_score":150},{"index":1,"relevance_score":-20}]}`}
	r := NewLLMRanker(llm, "gemini-2.5-pro", cost.NewCalculator(cost.DefaultRates()))

	out, _, err := r.Rank(context.Background(), "python leads", testBuckets())
	require.NoError(t, err)

	assert.Equal(t, "alice", out[0].Name)
	assert.InDelta(t, 100, out[0].Score, 1e-9)
	require.NotNil(t, out[0].RelevanceScore)
	assert.InDelta(t, 100, *out[0].RelevanceScore, 1e-9)
	assert.Equal(t, "bob", out[1].Name)
	assert.InDelta(t, 0, out[1].Score, 1e-9)
}

func TestRankFallbackOnModelFailure(t *testing.T) {
	llm := &fakeGemini{err: eris.New("model overloaded")}
	r := NewLLMRanker(llm, "gemini-2.5-pro", cost.NewCalculator(cost.DefaultRates()))

	out, _, err := r.Rank(context.Background(), "python leads", testBuckets())
	require.NoError(t, err)

	// Strong matches keep their tier with a flat fallback score.
	assert.Equal(t, "alice", out[0].Name)
	assert.InDelta(t, 50, out[0].Score, 1e-9)
	assert.Equal(t, "Rule-based scoring (partial match)", out[0].FitDescription)
	assert.Equal(t, "bob", out[1].Name)
	assert.InDelta(t, 50, out[1].Score, 1e-9)
}

func TestRankPartialsSortedByRuleScore(t *testing.T) {
	buckets := model.Stage1Buckets{
		Partial: []model.Stage1Result{
			stage1(0, model.MatchPartial, "junior", "Gap.", 50),
			stage1(1, model.MatchPartial, "exec", "Gap.", 50),
		},
	}
	buckets.Partial[1].Candidate.Seniority = model.SeniorityCLevel

	r := NewLLMRanker(&fakeGemini{}, "gemini-2.5-pro", cost.NewCalculator(cost.DefaultRates()))

	out, _, err := r.Rank(context.Background(), "executives", buckets)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "exec", out[0].Name)
	require.NotNil(t, out[0].RelevanceScore)
	assert.InDelta(t, out[0].Score, *out[0].RelevanceScore, 1e-9)
}

func TestFlattenWithoutRanking(t *testing.T) {
	out := FlattenWithoutRanking(testBuckets())
	require.Len(t, out, 4)

	assert.Equal(t, []string{"alice", "bob", "carol", "dave"},
		[]string{out[0].Name, out[1].Name, out[2].Name, out[3].Name})

	for _, rc := range out {
		assert.Nil(t, rc.RelevanceScore)
	}
	// Sortable score falls back to Stage-1 confidence.
	assert.InDelta(t, 95, out[0].Score, 1e-9)
	assert.InDelta(t, 60, out[2].Score, 1e-9)
}
