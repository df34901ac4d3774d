package client

import (
	"strings"
	"testing"

	"quickedit/internal/models"
)

func TestNormalizeConversationHistoryDropsLeadingAssistant(t *testing.T) {
	history := []models.ConversationTurn{
		{Role: "assistant", Content: "Hello! What should I change?"},
		{Role: "user", Content: "Make the title bigger"},
		{Role: "assistant", Content: "Done."},
	}

	got := normalizeConversationHistory(history)
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
	if got[0].Role != "user" {
		t.Fatalf("expected first turn to be user, got %s", got[0].Role)
	}
}

func TestNormalizeConversationHistoryMergesConsecutiveRoles(t *testing.T) {
	history := []models.ConversationTurn{
		{Role: "user", Content: "first", Metadata: &models.TurnMetadata{Files: []string{"a.css"}}},
		{Role: "USER", Content: "second", Metadata: &models.TurnMetadata{Files: []string{"a.css", "b.tsx"}}},
		{Role: "system", Content: "ignored"},
		{Role: "assistant", Content: "   "},
	}

	got := normalizeConversationHistory(history)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged turn, got %d", len(got))
	}
	if got[0].Content != "first\nsecond" {
		t.Fatalf("unexpected merged content %q", got[0].Content)
	}
	if files := got[0].Metadata.Files; len(files) != 2 || files[0] != "a.css" || files[1] != "b.tsx" {
		t.Fatalf("unexpected merged files %v", files)
	}
}

func TestSummarizeHistoryKeepsLastTurns(t *testing.T) {
	var history []models.ConversationTurn
	for i := 0; i < 30; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, models.ConversationTurn{Role: role, Content: strings.Repeat("x", 400)})
	}

	got := SummarizeHistory(history, MaxHistoryTurns)
	if len(got) != MaxHistoryTurns {
		t.Fatalf("expected %d turns, got %d", MaxHistoryTurns, len(got))
	}
	if n := len([]rune(got[0].Content)); n != maxTurnChars+3 {
		t.Fatalf("expected content shortened to %d runes, got %d", maxTurnChars+3, n)
	}
	if SummarizeHistory(nil, MaxHistoryTurns) != nil {
		t.Fatalf("expected nil summary for empty history")
	}
}
