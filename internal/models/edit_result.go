package models

// TokenUsage carries the counters reported by the generative model.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// AnalysisSummary is the caller-facing digest of the intent analysis.
type AnalysisSummary struct {
	Complexity string   `json:"complexity"`
	Score      int      `json:"score"`
	Confidence float64  `json:"confidence"`
	Intent     string   `json:"intent"`
	Patterns   []string `json:"patterns,omitempty"`
}

// AffectedFile describes what happened to one file.
type AffectedFile struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// EditResult is the payload of the terminal complete event.
type EditResult struct {
	Success       bool              `json:"success"`
	Intent        string            `json:"intent,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Message       string            `json:"message"`
	Modifications []Modification    `json:"modifications"`
	UpdatedFiles  map[string]string `json:"updatedFiles"`
	AffectedFiles []AffectedFile    `json:"affectedFiles"`
	Errors        []string          `json:"errors,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	Previews      []FilePreview     `json:"previews,omitempty"`
	Suggestions   []Suggestion      `json:"suggestions,omitempty"`
	Tokens        TokenUsage        `json:"tokens"`
	DurationMs    int64             `json:"durationMs"`
	Analysis      AnalysisSummary   `json:"analysis"`
	Cached        bool              `json:"cached,omitempty"`
}
