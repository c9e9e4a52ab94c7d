// Package translate turns natural-language recruiter queries into SQL via
// an LLM, with deterministic preprocessing so the model only ever sees
// concrete terms.
package translate

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed expansions.yaml
var expansionsYAML []byte

// Expansions holds the query preprocessing catalogue.
type Expansions struct {
	// Abbreviations maps an abbreviation to its full form. Matches are
	// annotated in place: "ML engineers" -> "ML (machine learning) engineers".
	Abbreviations map[string]string `yaml:"abbreviations"`
	// Regions maps a regional location term to the cities it covers.
	Regions map[string][]string `yaml:"regions"`

	abbrevPatterns map[string]*regexp.Regexp
	regionPatterns map[string]*regexp.Regexp
}

// LoadExpansions parses the embedded catalogue and precompiles the
// word-bounded match patterns.
func LoadExpansions() (*Expansions, error) {
	var e Expansions
	if err := yaml.Unmarshal(expansionsYAML, &e); err != nil {
		return nil, eris.Wrap(err, "translate: parse expansions")
	}

	e.abbrevPatterns = make(map[string]*regexp.Regexp, len(e.Abbreviations))
	for abbr := range e.Abbreviations {
		e.abbrevPatterns[abbr] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(abbr) + `\b`)
	}
	e.regionPatterns = make(map[string]*regexp.Regexp, len(e.Regions))
	for region := range e.Regions {
		e.regionPatterns[region] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(region) + `\b`)
	}

	return &e, nil
}

// Expand preprocesses a query: regional terms become enumerated city lists
// and abbreviations are annotated with their full form. Pure text
// substitution, no LLM involvement.
func (e *Expansions) Expand(query string) string {
	out := query

	for region, pat := range e.regionPatterns {
		if !pat.MatchString(out) {
			continue
		}
		cities := strings.Join(e.Regions[region], ", ")
		out = pat.ReplaceAllString(out, cities)
	}

	for abbr, pat := range e.abbrevPatterns {
		full := e.Abbreviations[abbr]
		out = pat.ReplaceAllStringFunc(out, func(match string) string {
			// Already annotated, or the match is the full form itself.
			if strings.EqualFold(match, full) {
				return match
			}
			return match + " (" + full + ")"
		})
	}

	return out
}
