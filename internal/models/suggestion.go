package models

// SuggestionCategory groups proactive suggestions.
type SuggestionCategory string

const (
	CategoryImprovement   SuggestionCategory = "improvement"
	CategoryConsistency   SuggestionCategory = "consistency"
	CategoryAccessibility SuggestionCategory = "accessibility"
	CategoryPerformance   SuggestionCategory = "performance"
	CategoryBestPractice  SuggestionCategory = "best-practice"
)

// Priority orders suggestions; higher is more important.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// LocalizedText carries a message in both supported languages.
type LocalizedText struct {
	EN string `json:"en"`
	PT string `json:"pt"`
}

// Suggestion is an optional follow-up improvement. It is never applied
// without a separate confirmation.
type Suggestion struct {
	ID             string             `json:"id"`
	Category       SuggestionCategory `json:"category"`
	Message        LocalizedText      `json:"message"`
	Priority       Priority           `json:"priority"`
	AutoApplicable bool               `json:"autoApplicable"`
	Modification   *Modification      `json:"modification,omitempty"`
}
