package apply

import (
	"fmt"
	"regexp"
	"strings"

	"quickedit/internal/directives"
)

// MarkupApplier edits attributes and inner content of markup elements found
// by a tag, class or id selector.
type MarkupApplier struct{}

var (
	openTagRe = regexp.MustCompile(`<([a-zA-Z][\w-]*)(\s[^<>]*?)?\s*(/?)>`)
	attrRe    = regexp.MustCompile(`([^\s=/>"']+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

type simpleSelector struct {
	tag   string
	id    string
	class string
}

func parseSelector(s string) simpleSelector {
	s = strings.TrimSpace(s)
	// only the last compound of a descendant selector is matched
	if i := strings.LastIndexAny(s, " >"); i >= 0 {
		s = s[i+1:]
	}
	var sel simpleSelector
	if i := strings.IndexAny(s, ".#"); i >= 0 {
		sel.tag, s = s[:i], s[i:]
	} else {
		sel.tag, s = s, ""
	}
	for s != "" {
		sigil := s[0]
		rest := s[1:]
		end := strings.IndexAny(rest, ".#")
		if end < 0 {
			end = len(rest)
		}
		switch sigil {
		case '.':
			if sel.class == "" {
				sel.class = rest[:end]
			}
		case '#':
			sel.id = rest[:end]
		}
		s = rest[end:]
	}
	sel.tag = strings.ToLower(sel.tag)
	return sel
}

type tagAttr struct {
	name       string
	value      string
	start, end int // relative to the attribute text
}

func parseAttrs(text string) []tagAttr {
	var out []tagAttr
	for _, m := range attrRe.FindAllStringSubmatchIndex(text, -1) {
		a := tagAttr{name: text[m[2]:m[3]], start: m[0], end: m[1]}
		for g := 4; g <= 8; g += 2 {
			if m[g] >= 0 {
				a.value = text[m[g]:m[g+1]]
				break
			}
		}
		out = append(out, a)
	}
	return out
}

func (s simpleSelector) matches(tag string, attrs []tagAttr) bool {
	if s.tag != "" && s.tag != "*" && !strings.EqualFold(s.tag, tag) {
		return false
	}
	if s.id != "" && !hasAttrValue(attrs, "id", func(v string) bool { return v == s.id }) {
		return false
	}
	if s.class != "" && !hasAttrValue(attrs, "class", func(v string) bool {
		for _, c := range strings.Fields(v) {
			if c == s.class {
				return true
			}
		}
		return false
	}) {
		return false
	}
	return s.tag != "" || s.id != "" || s.class != ""
}

func hasAttrValue(attrs []tagAttr, name string, pred func(string) bool) bool {
	for _, a := range attrs {
		if strings.EqualFold(a.name, name) && pred(a.value) {
			return true
		}
	}
	return false
}

type foundTag struct {
	name          string
	start, end    int // whole open tag
	attrStart     int // start of the attribute text, -1 when none
	attrs         []tagAttr
	selfClosing   bool
	insertionSite int // where a new attribute goes
}

func findOpenTag(content string, sel simpleSelector) (foundTag, bool) {
	for _, m := range openTagRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		var attrs []tagAttr
		attrStart := -1
		if m[4] >= 0 {
			attrStart = m[4]
			attrs = parseAttrs(content[m[4]:m[5]])
		}
		if !sel.matches(name, attrs) {
			continue
		}
		t := foundTag{
			name:        name,
			start:       m[0],
			end:         m[1],
			attrStart:   attrStart,
			attrs:       attrs,
			selfClosing: m[6] < m[7],
		}
		t.insertionSite = m[3]
		if m[4] >= 0 {
			t.insertionSite = m[5]
		}
		return t, true
	}
	return foundTag{}, false
}

func (MarkupApplier) Apply(content string, d directives.Directive) (string, error) {
	e, ok := d.(directives.MarkupEdit)
	if !ok {
		return content, fmt.Errorf("markup applier cannot apply %s directive", d.Kind())
	}
	sel := parseSelector(e.Selector)
	tag, ok := findOpenTag(content, sel)
	if !ok {
		return content, fmt.Errorf("%w: %s", ErrTargetNotFound, e.Selector)
	}

	if attr := strings.TrimSpace(e.Attribute); attr != "" {
		rendered := attr + `="` + strings.ReplaceAll(e.Value, `"`, "&quot;") + `"`
		for _, a := range tag.attrs {
			if strings.EqualFold(a.name, attr) {
				return content[:tag.attrStart+a.start] + rendered + content[tag.attrStart+a.end:], nil
			}
		}
		site := tag.insertionSite
		return content[:site] + " " + rendered + content[site:], nil
	}

	if tag.selfClosing || voidElements[strings.ToLower(tag.name)] {
		return content, fmt.Errorf("%w: <%s> has no content", ErrTargetNotFound, tag.name)
	}
	closeStart, ok := matchingClose(content, tag.name, tag.end, false)
	if !ok {
		return content, fmt.Errorf("%w: closing tag for %s", ErrTargetNotFound, e.Selector)
	}
	return content[:tag.end] + e.Value + content[closeStart:], nil
}

// matchingClose returns the offset of the closing tag that balances an
// element of the given name opened just before from.
func matchingClose(content, name string, from int, caseSensitive bool) (int, bool) {
	flags := "(?i)"
	if caseSensitive {
		flags = ""
	}
	re := regexp.MustCompile(flags + `<(/?)` + regexp.QuoteMeta(name) + `(?:[\s/>])`)
	depth := 1
	pos := from
	for {
		loc := re.FindStringSubmatchIndex(content[pos:])
		if loc == nil {
			return 0, false
		}
		start := pos + loc[0]
		if loc[3] > loc[2] {
			depth--
			if depth == 0 {
				return start, true
			}
			pos = start + 2
			continue
		}
		end, selfClosing, ok := scanTagEnd(content, start+1+len(name))
		if !ok {
			return 0, false
		}
		if !selfClosing {
			depth++
		}
		pos = end
	}
}
