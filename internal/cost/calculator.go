package cost

// Record aggregates LLM token usage and USD cost for one pipeline stage.
// The pipeline total is the sum of the per-stage records.
type Record struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostInput    float64 `json:"cost_input"`
	CostOutput   float64 `json:"cost_output"`
	TotalCost    float64 `json:"total_cost"`
}

// Add accumulates another record into r.
func (r *Record) Add(other Record) {
	r.InputTokens += other.InputTokens
	r.OutputTokens += other.OutputTokens
	r.TotalTokens += other.TotalTokens
	r.CostInput += other.CostInput
	r.CostOutput += other.CostOutput
	r.TotalCost += other.TotalCost
}

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds per-provider pricing configuration.
type Rates struct {
	OpenAI map[string]ModelRate `yaml:"openai" mapstructure:"openai"`
	Gemini map[string]ModelRate `yaml:"gemini" mapstructure:"gemini"`
}

// Calculator computes costs for LLM API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// OpenAI builds a cost record for one OpenAI call. Unknown models yield a
// zero-cost record with the token counts preserved.
func (c *Calculator) OpenAI(model string, input, output int) Record {
	return record(c.rates.OpenAI[model], input, output)
}

// Gemini builds a cost record for one Gemini call.
func (c *Calculator) Gemini(model string, input, output int) Record {
	return record(c.rates.Gemini[model], input, output)
}

func record(rate ModelRate, input, output int) Record {
	in := (float64(input) / 1e6) * rate.Input
	out := (float64(output) / 1e6) * rate.Output
	return Record{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		CostInput:    in,
		CostOutput:   out,
		TotalCost:    in + out,
	}
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		OpenAI: map[string]ModelRate{
			"gpt-4o-mini": {Input: 0.15, Output: 0.60},
			"gpt-4o":      {Input: 2.50, Output: 10.00},
		},
		Gemini: map[string]ModelRate{
			"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
			"gemini-2.0-flash": {Input: 0.10, Output: 0.40},
		},
	}
}
