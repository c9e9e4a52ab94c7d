package model

// Step identifies a progress stage of the search-and-rank pipeline.
type Step string

const (
	StepGeneratingQuery Step = "generating_query"
	StepSearching       Step = "searching"
	StepClassifying     Step = "classifying"
	StepRanking         Step = "ranking"
	StepComplete        Step = "complete"
	StepError           Step = "error"
)

// ProgressEvent is one frame of the streaming search response. Exactly one
// terminal event (complete or error) is emitted per request.
type ProgressEvent struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
