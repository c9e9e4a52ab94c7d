package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hireloop/talent-search/internal/model"
)

func TestRuleScoreComponents(t *testing.T) {
	cand := model.Candidate{
		Skills:          []string{"Python", "Django", "Kubernetes"},
		YearsExperience: 6,
		Seniority:       model.SenioritySenior,
		WorkedAtStartup: true,
		Location:        "San Francisco, CA",
	}

	// Skills: python + django matched = 10. Experience: 6/1.5 = 4.
	// Seniority Senior = 5. Startup mentioned + true = 5. SF mentioned
	// in both = 5. Total 29.
	score := RuleScore("python and django engineers at a startup in san francisco", cand)
	assert.InDelta(t, 29.0, score, 1e-9)
}

func TestRuleScoreSkillCap(t *testing.T) {
	cand := model.Candidate{
		Skills: []string{"go", "python", "java", "rust", "ruby", "php"},
	}

	// Six matches would be 30; capped at 25.
	score := RuleScore("go python java rust ruby php", cand)
	assert.InDelta(t, 25.0, score, 1e-9)
}

func TestRuleScoreExperienceCap(t *testing.T) {
	cand := model.Candidate{YearsExperience: 40}
	assert.InDelta(t, 15.0, RuleScore("anyone", cand), 1e-9)
}

func TestRuleScoreSeniorityLadder(t *testing.T) {
	want := map[model.Seniority]float64{
		model.SeniorityCLevel: 10,
		model.SeniorityVP:     9,
		model.SeniorityIntern: 1,
		"":                    0,
	}
	for seniority, points := range want {
		score := RuleScore("anyone", model.Candidate{Seniority: seniority})
		assert.InDelta(t, points, score, 1e-9, "seniority %q", seniority)
	}
}

func TestRuleScoreLocationNeedsBothSides(t *testing.T) {
	cand := model.Candidate{Location: "Seattle, WA"}

	assert.InDelta(t, 5.0, RuleScore("engineers in seattle", cand), 1e-9)
	// Query mentions a metro the candidate is not in.
	assert.InDelta(t, 0.0, RuleScore("engineers in boston", cand), 1e-9)
	// Candidate is in a metro the query never mentions.
	assert.InDelta(t, 0.0, RuleScore("engineers", cand), 1e-9)
}

func TestRuleScoreStartupRequiresQueryMention(t *testing.T) {
	cand := model.Candidate{WorkedAtStartup: true}

	assert.InDelta(t, 5.0, RuleScore("startup engineers", cand), 1e-9)
	assert.InDelta(t, 0.0, RuleScore("engineers", cand), 1e-9)
}

func TestRuleScoreRounding(t *testing.T) {
	// 5/1.5 = 3.333... rounds to 3.3.
	cand := model.Candidate{YearsExperience: 5}
	assert.InDelta(t, 3.3, RuleScore("anyone", cand), 1e-9)
}
