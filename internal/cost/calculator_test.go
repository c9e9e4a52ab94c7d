package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculator_OpenAI(t *testing.T) {
	c := NewCalculator(DefaultRates())

	rec := c.OpenAI("gpt-4o-mini", 1_000_000, 500_000)
	assert.Equal(t, 1_000_000, rec.InputTokens)
	assert.Equal(t, 500_000, rec.OutputTokens)
	assert.Equal(t, 1_500_000, rec.TotalTokens)
	assert.InDelta(t, 0.15, rec.CostInput, 1e-9)
	assert.InDelta(t, 0.30, rec.CostOutput, 1e-9)
	assert.InDelta(t, 0.45, rec.TotalCost, 1e-9)
}

func TestCalculator_Gemini(t *testing.T) {
	c := NewCalculator(DefaultRates())

	rec := c.Gemini("gemini-2.5-pro", 2_000_000, 100_000)
	assert.InDelta(t, 2.50, rec.CostInput, 1e-9)
	assert.InDelta(t, 1.00, rec.CostOutput, 1e-9)
	assert.InDelta(t, 3.50, rec.TotalCost, 1e-9)
}

func TestCalculator_UnknownModel(t *testing.T) {
	c := NewCalculator(DefaultRates())

	rec := c.OpenAI("some-future-model", 1000, 1000)
	assert.Equal(t, 2000, rec.TotalTokens)
	assert.Zero(t, rec.TotalCost)
}

func TestRecord_Add(t *testing.T) {
	var total Record
	total.Add(Record{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, CostInput: 0.1, CostOutput: 0.2, TotalCost: 0.3})
	total.Add(Record{InputTokens: 20, OutputTokens: 10, TotalTokens: 30, CostInput: 0.3, CostOutput: 0.1, TotalCost: 0.4})

	assert.Equal(t, 30, total.InputTokens)
	assert.Equal(t, 15, total.OutputTokens)
	assert.Equal(t, 45, total.TotalTokens)
	assert.InDelta(t, 0.7, total.TotalCost, 1e-9)
}
