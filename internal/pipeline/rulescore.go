package pipeline

import (
	"math"
	"strings"

	"github.com/hireloop/talent-search/internal/model"
)

// seniorityPoints is the fixed 0-10 seniority contribution to the rule score.
var seniorityPoints = map[model.Seniority]float64{
	model.SeniorityCLevel:   10,
	model.SeniorityVP:       9,
	model.SeniorityDirector: 8,
	model.SeniorityManager:  7,
	model.SeniorityLead:     6,
	model.SenioritySenior:   5,
	model.SeniorityMid:      4,
	model.SeniorityJunior:   3,
	model.SeniorityEntry:    2,
	model.SeniorityIntern:   1,
}

// metroKeywords are the location terms the rule score recognizes. A point
// is awarded only when the query and the candidate location mention the
// same term.
var metroKeywords = []string{
	"san francisco", "sf", "bay area", "new york", "nyc",
	"seattle", "austin", "boston", "remote",
}

// RuleScore computes the deterministic 0-60 score for partial matches:
// up to 25 for skill overlap (5 per matched skill), up to 15 for years of
// experience, up to 10 for seniority, 5 for startup fit, 5 for location
// fit. Rounded to one decimal.
func RuleScore(query string, cand model.Candidate) float64 {
	q := strings.ToLower(query)

	var score float64

	var skillPts float64
	for _, skill := range cand.Skills {
		s := strings.ToLower(strings.TrimSpace(skill))
		if s != "" && strings.Contains(q, s) {
			skillPts += 5
		}
	}
	score += math.Min(25, skillPts)

	score += math.Min(15, cand.YearsExperience/1.5)

	score += seniorityPoints[cand.Seniority]

	if strings.Contains(q, "startup") && cand.WorkedAtStartup {
		score += 5
	}

	loc := strings.ToLower(cand.Location)
	for _, metro := range metroKeywords {
		if strings.Contains(q, metro) && strings.Contains(loc, metro) {
			score += 5
			break
		}
	}

	return math.Round(score*10) / 10
}
