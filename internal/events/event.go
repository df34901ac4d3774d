package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"quickedit/internal/models"
)

// Name is the event name seen by stream consumers.
type Name string

const (
	GenerationEvent Name = "generation_event"
	MessageEvent    Name = "message"
	TokensEvent     Name = "tokens"
	ErrorEvent      Name = "error"
	CompleteEvent   Name = "complete"
)

// Status of a pipeline phase.
type Status string

const (
	StatusStarting Status = "starting"
	StatusComplete Status = "complete"
)

// Pipeline phases, in execution order.
const (
	PhaseAnalysis    = "analysis"
	PhaseContext     = "context"
	PhaseGeneration  = "generation"
	PhaseValidation  = "validation"
	PhaseApplication = "application"
	PhasePreview     = "preview"
	PhaseSuggestions = "suggestions"
)

// Message kinds carried by MessageEvent.
const (
	MessageIntentPreview = "intent_preview"
	MessageIntent        = "intent"
	MessageCompletion    = "completion"
)

// Event is one item of the outbound stream.
type Event struct {
	ID         string    `json:"id"`
	Name       Name      `json:"event"`
	SessionKey string    `json:"sessionKey,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Data       any       `json:"data"`
}

// PhaseData is the payload of a generation_event.
type PhaseData struct {
	Phase   string `json:"phase"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MessageData is the payload of a message event.
type MessageData struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// ErrorData is the payload of an error event.
type ErrorData struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func newEvent(name Name, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewPhase creates a generation_event for a phase transition.
func NewPhase(phase string, status Status, message string, data any) Event {
	return newEvent(GenerationEvent, PhaseData{Phase: phase, Status: status, Message: message, Data: data})
}

// NewMessage creates a message event.
func NewMessage(kind, content string) Event {
	return newEvent(MessageEvent, MessageData{Kind: kind, Content: content})
}

// NewTokens creates a tokens event.
func NewTokens(usage models.TokenUsage) Event {
	return newEvent(TokensEvent, usage)
}

// NewError creates an error event.
func NewError(message, detail string) Event {
	return newEvent(ErrorEvent, ErrorData{Message: message, Detail: detail})
}

// NewComplete creates the terminal complete event.
func NewComplete(result *models.EditResult) Event {
	return newEvent(CompleteEvent, result)
}

type contextKey string

const sessionContextKey contextKey = "quickedit/events/session"

// WithSession returns a derived context annotated with the given session key
// so event emitters can automatically scope payloads.
func WithSession(ctx context.Context, sessionKey string) context.Context {
	if strings.TrimSpace(sessionKey) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey, sessionKey)
}

// SessionFromContext extracts the session key associated with ctx.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(sessionContextKey).(string); ok {
		return v
	}
	return ""
}
