package model

import "time"

// MatchType is the Stage-1 classification tag. It determines both the
// ordering tier of the final result list and which scoring sub-pipeline
// the candidate flows through in Stage 2.
type MatchType string

const (
	MatchStrong  MatchType = "strong"
	MatchPartial MatchType = "partial"
	MatchNone    MatchType = "no_match"
)

// Valid reports whether m is a known match type.
func (m MatchType) Valid() bool {
	switch m {
	case MatchStrong, MatchPartial, MatchNone:
		return true
	}
	return false
}

// Stage1Result is the per-candidate outcome of Stage-1 classification.
// Index is the candidate's position in the SQL result order and is
// preserved through both stages. Analysis is non-empty exactly when
// MatchType is not no_match.
type Stage1Result struct {
	Index      int       `json:"index"`
	MatchType  MatchType `json:"match_type"`
	Analysis   string    `json:"analysis"`
	Confidence int       `json:"confidence"`
	Candidate  Candidate `json:"candidate"`
}

// Stage1Buckets groups Stage-1 results by match type, each bucket in
// original candidate order.
type Stage1Buckets struct {
	Strong  []Stage1Result `json:"strong_matches"`
	Partial []Stage1Result `json:"partial_matches"`
	NoMatch []Stage1Result `json:"no_matches"`
}

// Total returns the number of classified candidates across all buckets.
func (b Stage1Buckets) Total() int {
	return len(b.Strong) + len(b.Partial) + len(b.NoMatch)
}

// RankedCandidate is a candidate decorated with its final ranking data.
// RelevanceScore is nil when ranking was disabled for the search; Score is
// always populated and is the field callers should sort and display by
// within a tier.
type RankedCandidate struct {
	Candidate

	Match            MatchType `json:"match"`
	FitDescription   string    `json:"fit_description"`
	Stage1Confidence int       `json:"stage_1_confidence"`
	RelevanceScore   *float64  `json:"relevance_score"`
	Score            float64   `json:"score"`
}

// SearchRecord is one completed search as persisted by the saved-search
// store. Created exactly once per completed pipeline run; never mutated.
type SearchRecord struct {
	ID             string            `json:"id"`
	Query          string            `json:"query"`
	ConnectedTo    []string          `json:"connected_to,omitempty"`
	SQLQuery       string            `json:"sql_query"`
	Results        []RankedCandidate `json:"results"`
	TotalResults   int               `json:"total_results"`
	TotalCost      float64           `json:"total_cost"`
	Logs           string            `json:"logs,omitempty"`
	TotalTime      float64           `json:"total_time"`
	RankingEnabled bool              `json:"ranking_enabled"`
	CreatedAt      time.Time         `json:"created_at"`
}
