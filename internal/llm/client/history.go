package client

import (
	"strings"

	"quickedit/internal/models"
)

// MaxHistoryTurns bounds how much conversation is summarized into the prompt.
const MaxHistoryTurns = 10

const maxTurnChars = 300

// normalizeConversationHistory drops empty turns and unknown roles, merges
// consecutive turns from the same role and removes leading assistant turns so
// the summary always starts with a user request.
func normalizeConversationHistory(history []models.ConversationTurn) []models.ConversationTurn {
	out := make([]models.ConversationTurn, 0, len(history))
	for _, turn := range history {
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		content := strings.TrimSpace(turn.Content)
		if content == "" || (role != "user" && role != "assistant") {
			continue
		}
		if len(out) == 0 && role == "assistant" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			prev := &out[n-1]
			prev.Content += "\n" + content
			prev.Metadata = mergeMetadata(prev.Metadata, turn.Metadata)
			continue
		}
		out = append(out, models.ConversationTurn{Role: role, Content: content, Metadata: turn.Metadata})
	}
	return out
}

func mergeMetadata(a, b *models.TurnMetadata) *models.TurnMetadata {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := &models.TurnMetadata{Modifications: a.Modifications + b.Modifications}
	seen := map[string]bool{}
	for _, f := range append(append([]string{}, a.Files...), b.Files...) {
		if !seen[f] {
			seen[f] = true
			merged.Files = append(merged.Files, f)
		}
	}
	return merged
}

// SummarizeHistory returns the last max normalized turns, each trimmed and
// annotated with the files it touched.
func SummarizeHistory(history []models.ConversationTurn, max int) []PromptTurn {
	turns := normalizeConversationHistory(history)
	if max > 0 && len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	if len(turns) == 0 {
		return nil
	}
	out := make([]PromptTurn, 0, len(turns))
	for _, t := range turns {
		pt := PromptTurn{Role: t.Role, Content: shorten(t.Content, maxTurnChars)}
		if t.Metadata != nil {
			pt.Files = t.Metadata.Files
		}
		out = append(out, pt)
	}
	return out
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
