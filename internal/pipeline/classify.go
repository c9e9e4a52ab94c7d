package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hireloop/talent-search/internal/cost"
	"github.com/hireloop/talent-search/internal/logging"
	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/pkg/openai"
)

const classifySystemPrompt = `You are a recruiting analyst. Given a recruiter's search query and one
candidate profile, classify how well the candidate matches.

match_type rules:
- "strong": clearly satisfies the query. analysis must be 2-3 sentences
  explaining why (experience, skills, seniority fit, notable companies or
  education).
- "partial": satisfies some of the query. analysis must be 1-2 sentences
  naming the gap, e.g. "Missing healthcare industry experience".
- "no_match": does not satisfy the query. analysis must be an empty string.

confidence is your certainty in the classification, 0 to 100.`

// classificationSchema constrains the per-candidate response shape.
var classificationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"match_type": {"type": "string", "enum": ["strong", "partial", "no_match"]},
		"analysis": {"type": "string"},
		"confidence": {"type": "number"}
	},
	"required": ["match_type", "analysis", "confidence"],
	"additionalProperties": false
}`)

type classification struct {
	MatchType  model.MatchType `json:"match_type"`
	Analysis   string          `json:"analysis"`
	Confidence float64         `json:"confidence"`
}

// classifyProfile is the candidate projection sent to the model. Only the
// fields that can influence classification ride along.
type classifyProfile struct {
	Name            string             `json:"name"`
	Headline        string             `json:"headline"`
	Seniority       model.Seniority    `json:"seniority"`
	Location        string             `json:"location"`
	Skills          []string           `json:"skills"`
	YearsExperience float64            `json:"years_experience"`
	WorkedAtStartup bool               `json:"worked_at_startup"`
	Experiences     []model.Experience `json:"experiences"`
	Education       []model.Education  `json:"education"`
}

// ClientFactory builds a fresh LLM client. The classifier acquires one per
// batch and releases its connections at the batch boundary.
type ClientFactory func() openai.Client

// BatchClientFactory returns a factory producing clients with connection
// pools sized for a 250-way fan-out.
func BatchClientFactory(apiKey string, maxRetries int, timeout time.Duration) ClientFactory {
	return func() openai.Client {
		hc := &http.Client{
			Transport: &http.Transport{
				MaxConnsPerHost:     500,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		}
		return openai.NewClient(apiKey,
			openai.WithHTTPClient(hc),
			openai.WithMaxRetries(maxRetries),
			openai.WithTimeout(timeout),
		)
	}
}

// LLMClassifier buckets candidates into strong, partial and no-match via
// per-candidate LLM calls.
type LLMClassifier struct {
	factory   ClientFactory
	model     string
	batchSize int
	interval  time.Duration
	calc      *cost.Calculator
}

// NewLLMClassifier creates an LLMClassifier. batchSize bounds concurrent fan-out;
// interval paces request submission within a batch.
func NewLLMClassifier(factory ClientFactory, llmModel string, batchSize int, interval time.Duration, calc *cost.Calculator) *LLMClassifier {
	if batchSize <= 0 {
		batchSize = 250
	}
	return &LLMClassifier{
		factory:   factory,
		model:     llmModel,
		batchSize: batchSize,
		interval:  interval,
		calc:      calc,
	}
}

// Classify processes candidates in batches. Candidate order from the search
// is preserved as Stage1Result.Index regardless of completion order.
// Individual failures never fail the whole call: after one retry pass a
// failed candidate becomes a partial match with zero confidence.
func (c *LLMClassifier) Classify(ctx context.Context, query string, cands []model.Candidate) (model.Stage1Buckets, cost.Record, error) {
	results := make([]model.Stage1Result, len(cands))
	costs := make([]cost.Record, len(cands))

	for start := 0; start < len(cands); start += c.batchSize {
		if ctx.Err() != nil {
			return model.Stage1Buckets{}, cost.Record{}, eris.Wrap(ctx.Err(), "pipeline: classify cancelled")
		}

		end := start + c.batchSize
		if end > len(cands) {
			end = len(cands)
		}
		c.classifyBatch(ctx, query, cands, start, end, results, costs)
	}

	var total cost.Record
	for _, rec := range costs {
		total.Add(rec)
	}

	var buckets model.Stage1Buckets
	for _, r := range results {
		switch r.MatchType {
		case model.MatchStrong:
			buckets.Strong = append(buckets.Strong, r)
		case model.MatchNone:
			buckets.NoMatch = append(buckets.NoMatch, r)
		default:
			buckets.Partial = append(buckets.Partial, r)
		}
	}

	logging.FromContext(ctx).Info("classification complete",
		zap.Int("candidates", len(cands)),
		zap.Int("strong", len(buckets.Strong)),
		zap.Int("partial", len(buckets.Partial)),
		zap.Int("no_match", len(buckets.NoMatch)),
		zap.Float64("cost_usd", total.TotalCost),
	)

	return buckets, total, nil
}

// classifyBatch fans out one batch over a fresh client and runs a second
// pass for any candidate that failed its first call.
func (c *LLMClassifier) classifyBatch(ctx context.Context, query string, cands []model.Candidate, start, end int, results []model.Stage1Result, costs []cost.Record) {
	client := c.factory()
	defer client.CloseIdleConnections()

	limiter := rate.NewLimiter(rate.Every(c.interval), 1)

	failed := c.runPass(ctx, client, limiter, query, cands, indexRange(start, end), results, costs)
	if len(failed) > 0 {
		logging.FromContext(ctx).Warn("retrying failed classifications",
			zap.Int("count", len(failed)),
		)
		failed = c.runPass(ctx, client, limiter, query, cands, failed, results, costs)
	}

	// Both passes failed: fold into partials so one bad candidate never
	// fails the request.
	for _, i := range failed {
		results[i] = model.Stage1Result{
			Index:      i,
			MatchType:  model.MatchPartial,
			Analysis:   "Classification error occurred",
			Confidence: 0,
			Candidate:  cands[i],
		}
	}
}

// runPass submits one paced fan-out over the given candidate indices and
// returns the indices that failed.
func (c *LLMClassifier) runPass(ctx context.Context, client openai.Client, limiter *rate.Limiter, query string, cands []model.Candidate, indices []int, results []model.Stage1Result, costs []cost.Record) []int {
	var failed []int
	failedCh := make(chan int, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	for _, i := range indices {
		i := i
		// Pace submissions; responses arrive out of order.
		if err := limiter.Wait(gctx); err != nil {
			failedCh <- i
			continue
		}

		g.Go(func() error {
			res, rec, err := c.classifyOne(gctx, client, query, i, cands[i])
			if err != nil {
				logging.FromContext(gctx).Warn("classification call failed",
					zap.Int("index", i),
					zap.Error(err),
				)
				failedCh <- i
				return nil
			}
			results[i] = res
			costs[i].Add(rec)
			return nil
		})
	}
	_ = g.Wait()

	close(failedCh)
	for i := range failedCh {
		failed = append(failed, i)
	}
	return failed
}

func (c *LLMClassifier) classifyOne(ctx context.Context, client openai.Client, query string, index int, cand model.Candidate) (model.Stage1Result, cost.Record, error) {
	profile := classifyProfile{
		Name:            cand.Name,
		Headline:        cand.Headline,
		Seniority:       cand.Seniority,
		Location:        cand.Location,
		Skills:          cand.Skills,
		YearsExperience: cand.YearsExperience,
		WorkedAtStartup: cand.WorkedAtStartup,
		Experiences:     cand.Experiences,
		Education:       cand.Education,
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return model.Stage1Result{}, cost.Record{}, eris.Wrap(err, "pipeline: marshal profile")
	}

	resp, err := client.Generate(ctx, openai.Request{
		Model:  c.model,
		System: classifySystemPrompt,
		User:   "Search query: " + query + "\n\nCandidate profile:\n" + string(profileJSON),
		Schema: &openai.ResponseSchema{
			Name:   "candidate_classification",
			Schema: classificationSchema,
		},
	})
	if err != nil {
		return model.Stage1Result{}, cost.Record{}, err
	}

	var cls classification
	if err := json.Unmarshal([]byte(resp.Text), &cls); err != nil {
		return model.Stage1Result{}, cost.Record{}, eris.Wrap(err, "pipeline: decode classification")
	}
	if !cls.MatchType.Valid() {
		return model.Stage1Result{}, cost.Record{}, eris.Errorf("pipeline: invalid match_type %q", cls.MatchType)
	}
	// A strong or partial verdict without reasoning is unusable downstream;
	// treat it as a failed call so the retry pass picks it up.
	if cls.MatchType != model.MatchNone && cls.Analysis == "" {
		return model.Stage1Result{}, cost.Record{}, eris.New("pipeline: empty analysis")
	}
	if cls.MatchType == model.MatchNone {
		cls.Analysis = ""
	}

	rec := c.calc.OpenAI(c.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return model.Stage1Result{
		Index:      index,
		MatchType:  cls.MatchType,
		Analysis:   cls.Analysis,
		Confidence: int(math.Round(cls.Confidence)),
		Candidate:  cand,
	}, rec, nil
}

func indexRange(start, end int) []int {
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}
