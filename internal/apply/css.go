package apply

import (
	"fmt"
	"regexp"
	"strings"

	"quickedit/internal/directives"
)

// StyleApplier rewrites stylesheet rules over raw text. A rule matches when
// one item of its selector list equals the target selector, so descendant
// selectors ending in the target are left alone.
type StyleApplier struct{}

func (StyleApplier) Apply(content string, d directives.Directive) (string, error) {
	e, ok := d.(directives.StyleEdit)
	if !ok {
		return content, fmt.Errorf("style applier cannot apply %s directive", d.Kind())
	}
	selector := strings.TrimSpace(e.Selector)
	property := strings.TrimSpace(e.Property)
	value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(e.Value), ";"))

	bodyStart, bodyEnd, found := FindRule(content, selector)
	if !found {
		return appendRule(content, selector, property, value), nil
	}
	body := content[bodyStart:bodyEnd]

	propRe := regexp.MustCompile(`(?:^|[\s;{])` + regexp.QuoteMeta(property) + `\s*:\s*([^;}]*)`)
	if m := propRe.FindStringSubmatchIndex(body); m != nil {
		valStart := m[2]
		valEnd := valStart + len(strings.TrimRight(body[m[2]:m[3]], " \t\r\n"))
		body = body[:valStart] + value + body[valEnd:]
	} else {
		body = injectDeclaration(body, property, value)
	}
	return content[:bodyStart] + body + content[bodyEnd:], nil
}

var cssCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

// FindRule returns the body bounds of the first rule whose selector list
// contains selector. Top-level rules win over copies nested in at-rules.
func FindRule(content, selector string) (start, end int, ok bool) {
	target := normalizeSelector(selector)
	if target == "" {
		return 0, 0, false
	}
	nestedStart, nestedEnd := -1, -1
	depth, boundary := 0, 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			if selectorListHas(content[boundary:i], target) {
				if closing := closingBrace(content, i); closing >= 0 {
					if depth == 0 {
						return i + 1, closing, true
					}
					if nestedStart < 0 {
						nestedStart, nestedEnd = i+1, closing
					}
				}
			}
			depth++
			boundary = i + 1
		case '}':
			if depth > 0 {
				depth--
			}
			boundary = i + 1
		case ';':
			boundary = i + 1
		}
	}
	if nestedStart >= 0 {
		return nestedStart, nestedEnd, true
	}
	return 0, 0, false
}

func selectorListHas(list, target string) bool {
	for _, item := range strings.Split(cssCommentRe.ReplaceAllString(list, " "), ",") {
		if normalizeSelector(item) == target {
			return true
		}
	}
	return false
}

func normalizeSelector(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// closingBrace returns the index of the brace closing the one at open, or -1
// when the stylesheet is unbalanced.
func closingBrace(content string, open int) int {
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func injectDeclaration(body, property, value string) string {
	decl := property + ": " + value + ";"
	trimmed := strings.TrimRight(body, " \t\r\n")
	if strings.TrimSpace(trimmed) != "" && !strings.HasSuffix(trimmed, ";") {
		trimmed += ";"
	}

	if !strings.Contains(body, "\n") {
		if strings.TrimSpace(trimmed) == "" {
			return " " + decl + " "
		}
		return trimmed + " " + decl + " "
	}

	indent := "  "
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) != "" {
			indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			break
		}
	}
	closing := body[strings.LastIndex(body, "\n"):]
	return trimmed + "\n" + indent + decl + closing
}

func appendRule(content, selector, property, value string) string {
	rule := fmt.Sprintf("%s {\n  %s: %s;\n}\n", selector, property, value)
	trimmed := strings.TrimRight(content, " \t\r\n")
	if trimmed == "" {
		return rule
	}
	return trimmed + "\n\n" + rule
}
