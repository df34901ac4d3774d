// Package suggest proposes small follow-up improvements after an edit batch
// has been applied. Suggestions are never applied automatically.
package suggest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"quickedit/internal/apply"
	"quickedit/internal/directives"
	"quickedit/internal/models"
)

const (
	// MaxSuggestions caps the list returned to the caller.
	MaxSuggestions = 5
	// DarkenPercent is how much darker a suggested hover colour is.
	DarkenPercent = 15

	focusOutline     = "2px solid currentColor"
	transitionTiming = "0.2s ease-in-out"
)

var (
	colorProperties      = map[string]bool{"color": true, "background": true, "background-color": true}
	animatableProperties = map[string]bool{
		"color": true, "background": true, "background-color": true, "border-color": true,
		"opacity": true, "transform": true, "box-shadow": true,
	}
	interactiveRe = regexp.MustCompile(`(?i)(button|btn|cta|link|\ba\b|input|select|textarea|nav|menu|tab)`)
	buttonRe      = regexp.MustCompile(`(?i)button|btn`)
	imageRe       = regexp.MustCompile(`(?i)^(img|image|picture|avatar|logo)$`)
)

// Generate inspects the applied directives against the updated files and
// returns at most MaxSuggestions, highest priority first.
func Generate(applied []directives.Directive, files map[string]string) []models.Suggestion {
	var out []models.Suggestion
	seen := make(map[string]bool)
	add := func(s models.Suggestion) {
		if seen[s.ID] {
			return
		}
		seen[s.ID] = true
		out = append(out, s)
	}

	for _, d := range applied {
		content := files[d.File()]
		switch e := d.(type) {
		case directives.StyleEdit:
			styleSuggestions(e, content, add)
		case directives.ComponentEdit:
			elementSuggestions(e.Path, e.Component, content, e.Changes["aria-label"] != nil, e.Changes["alt"] != nil, add)
		case directives.MarkupEdit:
			attr := strings.ToLower(e.Attribute)
			elementSuggestions(e.Path, e.Selector, content, attr == "aria-label", attr == "alt", add)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func styleSuggestions(e directives.StyleEdit, content string, add func(models.Suggestion)) {
	sel := strings.TrimSpace(e.Selector)
	prop := strings.ToLower(strings.TrimSpace(e.Property))
	if sel == "" || strings.Contains(sel, ":") {
		return
	}

	if colorProperties[prop] && !strings.Contains(content, sel+":hover") {
		if darker, ok := Darken(e.Value, DarkenPercent); ok {
			mod := directives.Encode(directives.StyleEdit{Path: e.Path, Selector: sel + ":hover", Property: prop, Value: darker})
			add(models.Suggestion{
				ID:       "hover:" + e.Path + ":" + sel,
				Category: models.CategoryImprovement,
				Message: models.LocalizedText{
					EN: fmt.Sprintf("Add a hover state to %s using a slightly darker %s (%s).", sel, prop, darker),
					PT: fmt.Sprintf("Adicione um estado hover a %s com %s um pouco mais escuro (%s).", sel, prop, darker),
				},
				Priority:       models.PriorityMedium,
				AutoApplicable: true,
				Modification:   &mod,
			})
		}
	}

	if interactiveRe.MatchString(sel) && !strings.Contains(content, sel+":focus") {
		mod := directives.Encode(directives.StyleEdit{Path: e.Path, Selector: sel + ":focus-visible", Property: "outline", Value: focusOutline})
		add(models.Suggestion{
			ID:       "focus:" + e.Path + ":" + sel,
			Category: models.CategoryAccessibility,
			Message: models.LocalizedText{
				EN: fmt.Sprintf("Add a visible focus outline to %s for keyboard users.", sel),
				PT: fmt.Sprintf("Adicione um contorno de foco visível a %s para quem navega pelo teclado.", sel),
			},
			Priority:       models.PriorityHigh,
			AutoApplicable: true,
			Modification:   &mod,
		})
	}

	if animatableProperties[prop] && !strings.Contains(ruleBody(content, sel), "transition") {
		mod := directives.Encode(directives.StyleEdit{Path: e.Path, Selector: sel, Property: "transition", Value: prop + " " + transitionTiming})
		add(models.Suggestion{
			ID:       "transition:" + e.Path + ":" + sel,
			Category: models.CategoryBestPractice,
			Message: models.LocalizedText{
				EN: fmt.Sprintf("Animate changes to %s on %s with a short transition.", prop, sel),
				PT: fmt.Sprintf("Anime as mudanças de %s em %s com uma transição curta.", prop, sel),
			},
			Priority:       models.PriorityLow,
			AutoApplicable: true,
			Modification:   &mod,
		})
	}

	if prop == "color" && IsLight(e.Value) {
		add(models.Suggestion{
			ID:       "contrast:" + e.Path + ":" + sel,
			Category: models.CategoryAccessibility,
			Message: models.LocalizedText{
				EN: fmt.Sprintf("%s is a light text colour; check its contrast against the background of %s.", e.Value, sel),
				PT: fmt.Sprintf("%s é uma cor de texto clara; verifique o contraste com o fundo de %s.", e.Value, sel),
			},
			Priority: models.PriorityHigh,
		})
	}
}

func elementSuggestions(file, target, content string, setsLabel, setsAlt bool, add func(models.Suggestion)) {
	name := strings.Trim(strings.TrimSpace(target), "<>/")
	if name == "" {
		return
	}

	if buttonRe.MatchString(name) && !setsLabel && iconOnly(content, name) {
		add(models.Suggestion{
			ID:       "aria-label:" + file + ":" + name,
			Category: models.CategoryAccessibility,
			Message: models.LocalizedText{
				EN: fmt.Sprintf("%s looks icon-only; add an aria-label so screen readers can announce it.", name),
				PT: fmt.Sprintf("%s parece ter apenas um ícone; adicione um aria-label para leitores de tela.", name),
			},
			Priority: models.PriorityMedium,
		})
	}

	if imageRe.MatchString(name) && !setsAlt && missingAlt(content, name) {
		add(models.Suggestion{
			ID:       "alt:" + file + ":" + name,
			Category: models.CategoryAccessibility,
			Message: models.LocalizedText{
				EN: fmt.Sprintf("Add descriptive alt text to %s.", name),
				PT: fmt.Sprintf("Adicione um texto alternativo (alt) descritivo a %s.", name),
			},
			Priority: models.PriorityMedium,
		})
	}
}

// iconOnly reports whether the first name element wraps nothing but a single
// self-closing child or svg and has no aria-label.
func iconOnly(content, name string) bool {
	re := regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(name) + `\b([^>]*)>(.*?)</` + regexp.QuoteMeta(name) + `>`)
	m := re.FindStringSubmatch(content)
	if m == nil || strings.Contains(m[1], "aria-label") {
		return false
	}
	inner := strings.TrimSpace(m[2])
	if inner == "" {
		return true
	}
	text := regexp.MustCompile(`(?s)<svg\b.*?</svg>|<[^>]*>|\{[^}]*\}`).ReplaceAllString(inner, "")
	return strings.TrimSpace(text) == "" && strings.Contains(inner, "<")
}

func missingAlt(content, name string) bool {
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(name) + `\b[^>]*>`)
	for _, tag := range re.FindAllString(content, -1) {
		if !strings.Contains(tag, "alt=") {
			return true
		}
	}
	return false
}

func ruleBody(content, selector string) string {
	if start, end, ok := apply.FindRule(content, selector); ok {
		return content[start:end]
	}
	return ""
}
