package client

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"quickedit/internal/analysis"
	"quickedit/internal/models"
)

const systemPromptPath = "prompts/system.txt"

var systemTemplate = template.Must(
	template.New("system.txt").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(embeddedPrompts, systemPromptPath),
)

var tierGuidance = map[analysis.Complexity]string{
	analysis.Trivial:  "This is a trivial change: produce 1 to 3 modifications and touch nothing else.",
	analysis.Simple:   "This is a simple change: produce roughly 3 to 6 modifications.",
	analysis.Moderate: "This is a moderate change: produce roughly 6 to 15 modifications, keeping related files consistent.",
	analysis.Complex:  "This is a complex change: produce as many modifications as needed (15 or more is expected) and keep every affected file consistent.",
}

// PromptFile is one file rendered into the prompt.
type PromptFile struct {
	Path    string
	Content string
}

// PromptTurn is one summarized conversation turn.
type PromptTurn struct {
	Role    string
	Content string
	Files   []string
}

type promptData struct {
	Tier        analysis.Complexity
	Guidance    string
	Memory      *models.MemorySnapshot
	Preferences []string
	History     []PromptTurn
	Files       []PromptFile
}

// PromptInput collects everything the system instruction is built from.
type PromptInput struct {
	Tier    analysis.Complexity
	Files   map[string]string
	Memory  *models.MemorySnapshot
	History []models.ConversationTurn
}

// BuildSystemPrompt renders the system instruction. Files are emitted in
// path order so identical inputs produce identical prompts.
func BuildSystemPrompt(in PromptInput) (string, error) {
	data := promptData{
		Tier:     in.Tier,
		Guidance: tierGuidance[in.Tier],
		History:  SummarizeHistory(in.History, MaxHistoryTurns),
	}
	if !in.Memory.IsEmpty() {
		data.Memory = in.Memory
		data.Preferences = preferenceLines(in.Memory.Preferences)
	}

	paths := make([]string, 0, len(in.Files))
	for p := range in.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		data.Files = append(data.Files, PromptFile{Path: p, Content: strings.TrimRight(in.Files[p], "\n")})
	}

	var b strings.Builder
	if err := systemTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return b.String(), nil
}

func preferenceLines(prefs map[string]string) []string {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+": "+prefs[k])
	}
	return out
}
