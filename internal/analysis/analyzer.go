package analysis

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"quickedit/internal/models"
)

// Result is the outcome of analysing one request. It is immutable once built.
type Result struct {
	Complexity    Complexity
	Score         int
	Confidence    float64
	Intent        IntentType
	Patterns      []string
	MentionedFile []string
}

// Summary converts the result to its caller-facing form.
func (r Result) Summary() models.AnalysisSummary {
	return models.AnalysisSummary{
		Complexity: string(r.Complexity),
		Score:      r.Score,
		Confidence: r.Confidence,
		Intent:     string(r.Intent),
		Patterns:   append([]string(nil), r.Patterns...),
	}
}

type compiledPattern struct {
	name string
	re   *regexp.Regexp
}

// Analyzer classifies requests from lexical patterns alone. It performs no I/O
// and is safe for concurrent use.
type Analyzer struct {
	h       Heuristics
	simple  []compiledPattern
	complex []compiledPattern
}

var defaultAnalyzer = MustNewAnalyzer(DefaultHeuristics())

// NewAnalyzer compiles the patterns of h.
func NewAnalyzer(h Heuristics) (*Analyzer, error) {
	if h.MaxScore <= 0 {
		return nil, fmt.Errorf("max score must be positive, got %d", h.MaxScore)
	}
	simple, err := compilePatterns(h.SimplePatterns)
	if err != nil {
		return nil, err
	}
	hard, err := compilePatterns(h.ComplexPatterns)
	if err != nil {
		return nil, err
	}
	return &Analyzer{h: h, simple: simple, complex: hard}, nil
}

// MustNewAnalyzer is NewAnalyzer that panics on invalid patterns.
func MustNewAnalyzer(h Heuristics) *Analyzer {
	a, err := NewAnalyzer(h)
	if err != nil {
		panic(err)
	}
	return a
}

func compilePatterns(in []Pattern) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(in))
	for _, p := range in {
		re, err := regexp.Compile(`(?i)` + p.Expr)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.Name, err)
		}
		out = append(out, compiledPattern{name: p.Name, re: re})
	}
	return out, nil
}

// Analyze classifies message using the default heuristics.
func Analyze(message string, files map[string]string, history []models.ConversationTurn) Result {
	return defaultAnalyzer.Analyze(message, files, history)
}

// Heuristics returns the tuning the analyzer was built with.
func (a *Analyzer) Heuristics() Heuristics {
	return a.h
}

// Analyze classifies message. The result depends only on its arguments.
func (a *Analyzer) Analyze(message string, files map[string]string, history []models.ConversationTurn) Result {
	h := a.h
	score := h.BaseScore
	var patterns []string

	for _, p := range a.simple {
		if p.re.MatchString(message) {
			score += h.SimpleIncrement
			patterns = append(patterns, "simple:"+p.name)
		}
	}
	for _, p := range a.complex {
		if p.re.MatchString(message) {
			score -= h.ComplexDecrement
			patterns = append(patterns, "complex:"+p.name)
		}
	}

	mentioned := MentionedFiles(message, files)
	switch {
	case len(mentioned) > h.ManyFilesCount:
		score -= h.ManyFilesPenalty
		patterns = append(patterns, fmt.Sprintf("files:%d", len(mentioned)))
	case len(mentioned) > h.SomeFilesCount:
		score -= h.SomeFilesPenalty
		patterns = append(patterns, fmt.Sprintf("files:%d", len(mentioned)))
	}

	length := len([]rune(strings.TrimSpace(message)))
	switch {
	case length > h.LongRequestChars:
		score -= h.LongRequestDelta
		patterns = append(patterns, "length:long")
	case length > h.MediumRequestChars:
		score -= h.MediumRequestDelta
		patterns = append(patterns, "length:medium")
	case length < h.ShortRequestChars:
		score += h.ShortRequestBonus
		patterns = append(patterns, "length:short")
	}

	if touchedRecently(history, h.HistoryTurns) {
		patterns = append(patterns, "followup")
	}

	if score > h.MaxScore {
		score = h.MaxScore
	}
	if score < -h.MaxScore {
		score = -h.MaxScore
	}
	// Past ManyFilesCount the tier is capped no matter how many simple
	// patterns matched.
	if len(mentioned) > h.ManyFilesCount {
		if ceiling, ok := h.Ceiling(h.ManyFilesMaxTier); ok && score > ceiling {
			score = ceiling
		}
	}

	tier := h.Tier(score)
	abs := score
	if abs < 0 {
		abs = -abs
	}
	intent := FullGeneration
	if tier.IsQuick() {
		intent = QuickModification
	}

	return Result{
		Complexity:    tier,
		Score:         score,
		Confidence:    float64(abs) / float64(h.MaxScore),
		Intent:        intent,
		Patterns:      patterns,
		MentionedFile: mentioned,
	}
}

// MentionedFiles returns the sorted project paths whose full path or base
// name appears in message.
func MentionedFiles(message string, files map[string]string) []string {
	lower := strings.ToLower(message)
	var out []string
	for p := range files {
		lp := strings.ToLower(p)
		base := path.Base(lp)
		if strings.Contains(lower, lp) || (strings.Contains(base, ".") && containsWord(lower, base)) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// containsWord reports whether needle occurs in s bounded by characters that
// cannot be part of a file name.
func containsWord(s, needle string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		if (start == 0 || !isNameByte(s[start-1])) && isNameEnd(s, end) {
			return true
		}
		from = start + 1
	}
}

// isNameEnd accepts a trailing sentence period after a file name.
func isNameEnd(s string, end int) bool {
	if end == len(s) || !isNameByte(s[end]) {
		return true
	}
	return s[end] == '.' && (end+1 == len(s) || !isNameByte(s[end+1]))
}

func isNameByte(b byte) bool {
	return b == '_' || b == '-' || b == '.' || b == '/' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func touchedRecently(history []models.ConversationTurn, turns int) bool {
	start := len(history) - turns
	if start < 0 {
		start = 0
	}
	for _, t := range history[start:] {
		if t.Metadata != nil && len(t.Metadata.Files) > 0 {
			return true
		}
	}
	return false
}
