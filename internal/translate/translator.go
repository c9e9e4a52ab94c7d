package translate

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/cost"
	"github.com/hireloop/talent-search/internal/logging"
	"github.com/hireloop/talent-search/internal/schema"
	"github.com/hireloop/talent-search/pkg/openai"
)

// ErrTranslationFailure means the LLM could not produce SQL. Not retried
// here; the caller aborts the request.
var ErrTranslationFailure = eris.New("translate: translation failure")

// FilterAll is the connection-filter sentinel meaning no filtering.
const FilterAll = "all"

// Translator converts natural-language queries into SQL.
type Translator struct {
	client     openai.Client
	model      string
	expansions *Expansions
	calc       *cost.Calculator
}

// NewTranslator creates a Translator.
func NewTranslator(client openai.Client, model string, expansions *Expansions, calc *cost.Calculator) *Translator {
	return &Translator{
		client:     client,
		model:      model,
		expansions: expansions,
		calc:       calc,
	}
}

// Translate produces a single SELECT statement for the query. The returned
// SQL has not been safety-checked; every caller must gate it before
// execution.
func (t *Translator) Translate(ctx context.Context, query string, connectedTo []string) (string, cost.Record, error) {
	expanded := t.expansions.Expand(query)

	user := "Query: " + expanded
	if instr := connectionInstruction(connectedTo); instr != "" {
		user += "\n\n" + instr
	}

	return t.generate(ctx, user)
}

// Relax produces a broadened variant of a previously generated query. Skill
// and keyword matching is widened with OR across synonyms and across the
// title/summary/headline/skills fields; seniority, years-of-experience and
// location constraints stay strict.
func (t *Translator) Relax(ctx context.Context, query, originalSQL string, connectedTo []string) (string, cost.Record, error) {
	expanded := t.expansions.Expand(query)

	var b strings.Builder
	b.WriteString("The following SQL returned too few results:\n\n")
	b.WriteString(originalSQL)
	b.WriteString("\n\nOriginal query: ")
	b.WriteString(expanded)
	b.WriteString("\n\nRewrite the SQL to broaden keyword and skill matching:\n")
	b.WriteString("- OR each keyword with close synonyms.\n")
	b.WriteString("- OR each keyword match across experiences (title and summary), headline, and skills.\n")
	b.WriteString("- Keep seniority, years_experience and location constraints exactly as they are.\n")
	if instr := connectionInstruction(connectedTo); instr != "" {
		b.WriteString(instr)
		b.WriteString("\n")
	}

	return t.generate(ctx, b.String())
}

func (t *Translator) generate(ctx context.Context, user string) (string, cost.Record, error) {
	resp, err := t.client.Generate(ctx, openai.Request{
		Model:  t.model,
		System: schema.Context,
		User:   user,
	})
	if err != nil {
		return "", cost.Record{}, eris.Wrap(ErrTranslationFailure, err.Error())
	}

	rec := t.calc.OpenAI(t.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	sql := stripCodeFence(resp.Text)
	if sql == "" {
		return "", rec, eris.Wrap(ErrTranslationFailure, "empty SQL")
	}

	logging.FromContext(ctx).Debug("translated query",
		zap.String("model", t.model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	return sql, rec, nil
}

// connectionInstruction builds the predicate instruction for a connection
// filter. Empty filters and the "all" sentinel mean no filtering.
func connectionInstruction(connectedTo []string) string {
	var names []string
	for _, c := range connectedTo {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, FilterAll) {
			continue
		}
		names = append(names, c)
	}
	if len(names) == 0 {
		return ""
	}

	preds := make([]string, len(names))
	for i, n := range names {
		preds[i] = `connected_to::text ~* '\m` + n + `\M'`
	}

	return "Only include candidates connected to the requesting users. Add exactly this predicate to the WHERE clause: (" +
		strings.Join(preds, " OR ") + ")"
}

// stripCodeFence removes a Markdown code fence wrapper, if present, and
// trims whitespace and a trailing semicolon.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}
