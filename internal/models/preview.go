package models

// DiffLineType tags one record of a file diff.
type DiffLineType string

const (
	DiffAdded     DiffLineType = "added"
	DiffRemoved   DiffLineType = "removed"
	DiffUnchanged DiffLineType = "unchanged"
	DiffContext   DiffLineType = "context"
)

// DiffLine is a single line record. OldLine/NewLine are 1-based and zero when
// the line does not exist on that side.
type DiffLine struct {
	Type    DiffLineType `json:"type"`
	Content string       `json:"content"`
	OldLine int          `json:"oldLine,omitempty"`
	NewLine int          `json:"newLine,omitempty"`
}

// FileDiff is the collapsed line diff of one file.
type FileDiff struct {
	Path      string     `json:"path"`
	Lines     []DiffLine `json:"lines"`
	Added     int        `json:"added"`
	Removed   int        `json:"removed"`
	Unchanged int        `json:"unchanged"`
}

// Changed returns the number of added and removed lines.
func (d FileDiff) Changed() int {
	return d.Added + d.Removed
}

// FilePreview pairs a file's diff with its approval classification.
type FilePreview struct {
	Path           string   `json:"path"`
	Diff           FileDiff `json:"diff"`
	Patch          string   `json:"patch,omitempty"`
	AutoApprovable bool     `json:"autoApprovable"`
	Modifications  int      `json:"modifications"`
}
