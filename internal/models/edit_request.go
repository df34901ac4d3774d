package models

// EditRequest is the inbound change request.
type EditRequest struct {
	Message             string             `json:"message"`
	ProjectFiles        map[string]string  `json:"projectFiles"`
	SessionID           string             `json:"sessionId"`
	Memory              *MemorySnapshot    `json:"memory,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversationHistory,omitempty"`
	// FocusFiles are paths ranked as if the request named them.
	FocusFiles []string `json:"focusFiles,omitempty"`
	// Revision is the commit the project files were read at, if known.
	Revision string `json:"revision,omitempty"`
}

// ConversationTurn represents a previous user/assistant exchange.
type ConversationTurn struct {
	Role     string        `json:"role"`
	Content  string        `json:"content"`
	Metadata *TurnMetadata `json:"metadata,omitempty"`
}

// TurnMetadata records what a previous turn touched.
type TurnMetadata struct {
	Files         []string `json:"files,omitempty"`
	Modifications int      `json:"modifications,omitempty"`
}

// Modification is the wire form of an edit directive, as produced by the model
// and returned to callers.
type Modification struct {
	Type      string         `json:"type"`
	File      string         `json:"file"`
	Target    string         `json:"target"`
	Property  string         `json:"property,omitempty"`
	Attribute string         `json:"attribute,omitempty"`
	Value     string         `json:"value,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
}
