package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pattern is a named lexical pattern matched case-insensitively against a
// request.
type Pattern struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// Thresholds maps a clamped score onto the complexity tiers. A score at or
// above Trivial is trivial, at or above Simple is simple, at or above
// Moderate is moderate, anything lower is complex.
type Thresholds struct {
	Trivial  int `yaml:"trivial"`
	Simple   int `yaml:"simple"`
	Moderate int `yaml:"moderate"`
}

// Heuristics holds every weight the analyzer uses, so tuning never touches
// control flow.
type Heuristics struct {
	BaseScore          int        `yaml:"base_score"`
	MaxScore           int        `yaml:"max_score"`
	SimpleIncrement    int        `yaml:"simple_increment"`
	ComplexDecrement   int        `yaml:"complex_decrement"`
	ManyFilesPenalty   int        `yaml:"many_files_penalty"`
	ManyFilesCount     int        `yaml:"many_files_count"`
	ManyFilesMaxTier   Complexity `yaml:"many_files_max_tier"`
	SomeFilesPenalty   int        `yaml:"some_files_penalty"`
	SomeFilesCount     int        `yaml:"some_files_count"`
	LongRequestChars   int        `yaml:"long_request_chars"`
	LongRequestDelta   int        `yaml:"long_request_delta"`
	MediumRequestChars int        `yaml:"medium_request_chars"`
	MediumRequestDelta int        `yaml:"medium_request_delta"`
	ShortRequestChars  int        `yaml:"short_request_chars"`
	ShortRequestBonus  int        `yaml:"short_request_bonus"`
	HistoryTurns       int        `yaml:"history_turns"`
	Thresholds         Thresholds `yaml:"thresholds"`
	SimplePatterns     []Pattern  `yaml:"simple_patterns"`
	ComplexPatterns    []Pattern  `yaml:"complex_patterns"`
}

// DefaultHeuristics returns the built-in tuning. Patterns cover English and
// Portuguese requests.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		BaseScore:          0,
		MaxScore:           10,
		SimpleIncrement:    3,
		ComplexDecrement:   3,
		ManyFilesPenalty:   6,
		ManyFilesCount:     10,
		ManyFilesMaxTier:   Moderate,
		SomeFilesPenalty:   3,
		SomeFilesCount:     5,
		LongRequestChars:   200,
		LongRequestDelta:   2,
		MediumRequestChars: 100,
		MediumRequestDelta: 1,
		ShortRequestChars:  40,
		ShortRequestBonus:  2,
		HistoryTurns:       10,
		Thresholds: Thresholds{
			Trivial:  5,
			Simple:   1,
			Moderate: -4,
		},
		SimplePatterns: []Pattern{
			{Name: "color", Expr: `\b(colou?rs?|cor|cores)\b`},
			{Name: "background", Expr: `\b(background|fundo)\b`},
			{Name: "font", Expr: `\b(fonts?|fontes?|typography|tipografia)\b`},
			{Name: "text", Expr: `\b(text|texto|title|t[ií]tulo|heading|label|wording|caption|legenda)\b`},
			{Name: "spacing", Expr: `\b(padding|margin|margem|spacing|espa[çc]amento|gap)\b`},
			{Name: "size", Expr: `\b(size|tamanho|bigger|smaller|maior|menor|width|height|largura|altura)\b`},
			{Name: "border", Expr: `\b(border|borda|radius|rounded|arredondad[oa]s?|shadow|sombra)\b`},
			{Name: "typo", Expr: `\b(typo|spelling|ortografia|digita[çc][ãa]o)\b`},
			{Name: "alignment", Expr: `\b(align|alinhar|alinhamento|center|centralizar)\b`},
			{Name: "visibility", Expr: `\b(opacity|opacidade|hide|esconder|show|mostrar)\b`},
		},
		ComplexPatterns: []Pattern{
			{Name: "architecture", Expr: `\b(architecture|arquitetura|refactor|refatorar|refatora[çc][ãa]o|restructure|reestruturar)\b`},
			{Name: "new_feature", Expr: `\b(new (feature|page|section)|nova (funcionalidade|p[áa]gina|se[çc][ãa]o)|implement|implementar)\b`},
			{Name: "persistence", Expr: `\b(database|banco de dados|persist|persist[êe]ncia|storage|armazenamento)\b`},
			{Name: "auth", Expr: `\b(auth|authentication|autentica[çc][ãa]o|login|signup|cadastro|password|senha)\b`},
			{Name: "routing", Expr: `\b(routing|router|routes|rotas?)\b`},
			{Name: "state", Expr: `\b(state management|gerenciamento de estado|redux|zustand|global state|estado global)\b`},
			{Name: "integration", Expr: `\b(integrate|integration|integra[çc][ãa]o|payments?|pagamentos?|checkout|webhooks?)\b`},
		},
	}
}

// LoadHeuristics reads a YAML file and overlays it on DefaultHeuristics.
// Fields absent from the file keep their default values.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	data, err := os.ReadFile(path)
	if err != nil {
		return h, fmt.Errorf("read heuristics: %w", err)
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("parse heuristics %s: %w", path, err)
	}
	return h, nil
}

// Tier maps a clamped score to a complexity.
func (h Heuristics) Tier(score int) Complexity {
	switch {
	case score >= h.Thresholds.Trivial:
		return Trivial
	case score >= h.Thresholds.Simple:
		return Simple
	case score >= h.Thresholds.Moderate:
		return Moderate
	default:
		return Complex
	}
}

// Ceiling returns the highest score that still maps to c. Trivial has no
// ceiling.
func (h Heuristics) Ceiling(c Complexity) (int, bool) {
	switch c {
	case Simple:
		return h.Thresholds.Trivial - 1, true
	case Moderate:
		return h.Thresholds.Simple - 1, true
	case Complex:
		return h.Thresholds.Moderate - 1, true
	}
	return 0, false
}
