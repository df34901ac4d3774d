package models

import "time"

// SessionMemory is the persisted digest of past edits for one session. The
// list-valued fields are stored as JSON text columns.
type SessionMemory struct {
	ID                uint   `gorm:"primaryKey"`
	SessionID         string `gorm:"size:255;not null;uniqueIndex"`
	ArchitectureNotes string `gorm:"type:text"`
	RecentChangesJSON string `gorm:"type:text"`
	KnownIssuesJSON   string `gorm:"type:text"`
	PreferencesJSON   string `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RecentChange is one entry of the rolling recent-changes log.
type RecentChange struct {
	File        string    `json:"file"`
	Description string    `json:"description"`
	Request     string    `json:"request,omitempty"`
	Complexity  string    `json:"complexity,omitempty"`
	Revision    string    `json:"revision,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// MemorySnapshot is the decoded form of SessionMemory handed to the pipeline.
type MemorySnapshot struct {
	ArchitectureNotes string            `json:"architectureNotes,omitempty"`
	RecentChanges     []RecentChange    `json:"recentChanges,omitempty"`
	KnownIssues       []string          `json:"knownIssues,omitempty"`
	Preferences       map[string]string `json:"preferences,omitempty"`
}

// IsEmpty reports whether the snapshot carries nothing worth prompting with.
func (m *MemorySnapshot) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.ArchitectureNotes == "" && len(m.RecentChanges) == 0 && len(m.KnownIssues) == 0 && len(m.Preferences) == 0
}
