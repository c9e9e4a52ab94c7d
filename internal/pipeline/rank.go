package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/cost"
	"github.com/hireloop/talent-search/internal/logging"
	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/pkg/gemini"
)

const rankSystemPrompt = `You are a recruiting analyst ranking pre-screened candidates against a
search query. You receive a list of candidates, each with an index, a name
and an analysis of why they match. Return a JSON object with a "rankings"
array containing every input index exactly once, ordered best first, with a
relevance_score between 0 and 100 for each.`

// rankingSchema constrains the ranking response.
var rankingSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"rankings": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"index": {"type": "integer"},
					"relevance_score": {"type": "number", "minimum": 0, "maximum": 100}
				},
				"required": ["index", "relevance_score"]
			}
		}
	},
	"required": ["rankings"]
}`)

type rankingResponse struct {
	Rankings []rankingEntry `json:"rankings"`
}

type rankingEntry struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// compressedCandidate is the token-saving projection sent to the ranking
// model: index, name and the Stage-1 "why strong" text only.
type compressedCandidate struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Analysis string `json:"analysis"`
}

// missingIndexScore is assigned to strong candidates the model omitted.
// Deliberately below any model-chosen score so omissions sink.
const missingIndexScore = 80.0

// fallbackStrongScore is assigned to all strong candidates when the ranking
// call itself fails.
const fallbackStrongScore = 50.0

// fallbackFitDescription replaces the fit text when rule-based fallback
// scoring is in effect.
const fallbackFitDescription = "Rule-based scoring (partial match)"

// LLMRanker orders Stage-1 buckets into the final candidate list.
type LLMRanker struct {
	client gemini.Client
	model  string
	calc   *cost.Calculator
}

// NewLLMRanker creates an LLMRanker.
func NewLLMRanker(client gemini.Client, llmModel string, calc *cost.Calculator) *LLMRanker {
	return &LLMRanker{client: client, model: llmModel, calc: calc}
}

// Rank produces the final ordering: strong matches by model score
// descending, then partial matches by rule score descending, then no-match
// candidates in Stage-1 order. A ranking-model failure degrades to rule
// scores for the strong bucket; it never fails the request.
func (r *LLMRanker) Rank(ctx context.Context, query string, buckets model.Stage1Buckets) ([]model.RankedCandidate, cost.Record, error) {
	strong, rec := r.rankStrong(ctx, query, buckets.Strong)

	partial := make([]model.RankedCandidate, 0, len(buckets.Partial))
	for _, s := range buckets.Partial {
		score := RuleScore(query, s.Candidate)
		partial = append(partial, rankedFromStage1(s, score, ptr(score)))
	}
	sort.SliceStable(partial, func(i, j int) bool {
		return partial[i].Score > partial[j].Score
	})

	out := append(strong, partial...)
	for _, s := range buckets.NoMatch {
		out = append(out, rankedFromStage1(s, 0, ptr(0.0)))
	}

	return out, rec, nil
}

// rankStrong performs the single large-context ranking call over the
// compressed strong bucket.
func (r *LLMRanker) rankStrong(ctx context.Context, query string, strong []model.Stage1Result) ([]model.RankedCandidate, cost.Record) {
	if len(strong) == 0 {
		return nil, cost.Record{}
	}
	log := logging.FromContext(ctx)

	compressed := make([]compressedCandidate, len(strong))
	for i, s := range strong {
		compressed[i] = compressedCandidate{Index: i, Name: s.Candidate.Name, Analysis: s.Analysis}
	}
	payload, err := json.Marshal(compressed)
	if err != nil {
		return r.fallbackStrong(strong), cost.Record{}
	}

	resp, err := r.client.GenerateContent(ctx, gemini.GenerateRequest{
		Model:          r.model,
		System:         rankSystemPrompt,
		User:           "Search query: " + query + "\n\nCandidates:\n" + string(payload),
		ResponseSchema: rankingSchema,
	})
	if err != nil {
		log.Warn("ranking call failed, falling back to rule scores",
			zap.Error(err),
		)
		return r.fallbackStrong(strong), cost.Record{}
	}

	rec := r.calc.Gemini(r.model, resp.Usage.PromptTokens, resp.Usage.CandidatesTokens)

	var parsed rankingResponse
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &parsed); err != nil {
		log.Warn("ranking response unparsable, falling back to rule scores",
			zap.Error(err),
		)
		return r.fallbackStrong(strong), rec
	}

	// Validate defensively: out-of-range and duplicate indices are ignored,
	// omitted indices are appended with a penalty score.
	seen := make(map[int]bool, len(strong))
	ranked := make([]model.RankedCandidate, 0, len(strong))
	for _, entry := range parsed.Rankings {
		if entry.Index < 0 || entry.Index >= len(strong) || seen[entry.Index] {
			continue
		}
		seen[entry.Index] = true
		// The schema bounds the score, but the model is not trusted to
		// honor it.
		score := math.Min(100, math.Max(0, entry.RelevanceScore))
		ranked = append(ranked, rankedFromStage1(strong[entry.Index], score, ptr(score)))
	}
	for i, s := range strong {
		if seen[i] {
			continue
		}
		log.Warn("ranking response missing index, assigning penalty score",
			zap.Int("index", i),
			zap.String("candidate", s.Candidate.Name),
		)
		ranked = append(ranked, rankedFromStage1(s, missingIndexScore, ptr(missingIndexScore)))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, rec
}

// fallbackStrong gives every strong candidate a flat score with a stock
// rationale, keeping the bucket ahead of partials without model input.
func (r *LLMRanker) fallbackStrong(strong []model.Stage1Result) []model.RankedCandidate {
	out := make([]model.RankedCandidate, len(strong))
	for i, s := range strong {
		rc := rankedFromStage1(s, fallbackStrongScore, ptr(fallbackStrongScore))
		rc.FitDescription = fallbackFitDescription
		out[i] = rc
	}
	return out
}

// FlattenWithoutRanking maps Stage-1 buckets straight to the output order
// strong, partial, no-match. No relevance score is assigned; the sortable
// score is the Stage-1 confidence.
func FlattenWithoutRanking(buckets model.Stage1Buckets) []model.RankedCandidate {
	out := make([]model.RankedCandidate, 0, buckets.Total())
	for _, group := range [][]model.Stage1Result{buckets.Strong, buckets.Partial, buckets.NoMatch} {
		for _, s := range group {
			out = append(out, rankedFromStage1(s, float64(s.Confidence), nil))
		}
	}
	return out
}

func rankedFromStage1(s model.Stage1Result, score float64, relevance *float64) model.RankedCandidate {
	return model.RankedCandidate{
		Candidate:        s.Candidate,
		Match:            s.MatchType,
		FitDescription:   s.Analysis,
		Stage1Confidence: s.Confidence,
		RelevanceScore:   relevance,
		Score:            score,
	}
}

func ptr(f float64) *float64 {
	return &f
}

// cleanJSON strips a Markdown code fence, if present, from a model response.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
