package apply

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"quickedit/internal/directives"
)

// ComponentApplier edits the first JSX element matching the directive's
// target: its className, style, props, other attributes or children.
type ComponentApplier struct{}

var jsxOpenRe = regexp.MustCompile(`<([A-Za-z][\w.$-]*)`)

type jsxAttr struct {
	name       string
	start, end int
}

type jsxTag struct {
	name        string
	start       int
	nameEnd     int
	end         int
	selfClosing bool
	attrs       []jsxAttr
}

func (t jsxTag) insertionSite() int {
	if len(t.attrs) == 0 {
		return t.nameEnd
	}
	return t.attrs[len(t.attrs)-1].end
}

func (t jsxTag) attr(name string) (jsxAttr, bool) {
	for _, a := range t.attrs {
		if a.name == name {
			return a, true
		}
	}
	return jsxAttr{}, false
}

// parseTagAt parses the opening tag whose "<" is at start.
func parseTagAt(content string, start int) (jsxTag, bool) {
	m := jsxOpenRe.FindStringSubmatchIndex(content[start:])
	if m == nil || m[0] != 0 {
		return jsxTag{}, false
	}
	t := jsxTag{name: content[start+m[2] : start+m[3]], start: start, nameEnd: start + m[3]}
	if t.nameEnd < len(content) {
		if c := content[t.nameEnd]; c != '>' && c != '/' && !unicode.IsSpace(rune(c)) {
			return jsxTag{}, false
		}
	}
	end, selfClosing, ok := scanTagEnd(content, t.nameEnd)
	if !ok {
		return jsxTag{}, false
	}
	t.end, t.selfClosing = end, selfClosing
	t.attrs = parseJSXAttrs(content, t.nameEnd, end-1)
	return t, true
}

func findJSXTag(content, target string) (jsxTag, bool) {
	target = strings.TrimSpace(strings.Trim(strings.TrimSpace(target), "<>/"))
	if target == "" {
		return jsxTag{}, false
	}
	var class string
	if strings.HasPrefix(target, ".") {
		class = target[1:]
	}
	matchers := []func(jsxTag, string) bool{
		func(t jsxTag, _ string) bool { return class == "" && t.name == target },
		func(t jsxTag, _ string) bool { return class == "" && strings.EqualFold(t.name, target) },
		func(t jsxTag, content string) bool {
			if class == "" {
				return false
			}
			for _, name := range []string{"className", "class"} {
				if a, ok := t.attr(name); ok {
					for _, c := range strings.FieldsFunc(content[a.start:a.end], func(r rune) bool {
						return unicode.IsSpace(r) || strings.ContainsRune(`"'{}=`+"`", r)
					}) {
						if c == class {
							return true
						}
					}
				}
			}
			return false
		},
	}
	locs := jsxOpenRe.FindAllStringIndex(content, -1)
	for _, match := range matchers {
		for _, loc := range locs {
			t, ok := parseTagAt(content, loc[0])
			if ok && match(t, content) {
				return t, true
			}
		}
	}
	return jsxTag{}, false
}

// scanTagEnd finds the ">" closing an opening tag, skipping quoted strings
// and brace expressions. It returns the offset just past ">".
func scanTagEnd(content string, pos int) (int, bool, bool) {
	depth := 0
	for i := pos; i < len(content); i++ {
		switch c := content[i]; c {
		case '"', '\'', '`':
			j := skipQuoted(content, i)
			if j < 0 {
				return 0, false, false
			}
			i = j - 1
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '<':
			if depth == 0 {
				return 0, false, false
			}
		case '>':
			if depth == 0 {
				prev := strings.TrimRightFunc(content[pos:i], unicode.IsSpace)
				return i + 1, strings.HasSuffix(prev, "/"), true
			}
		}
	}
	return 0, false, false
}

// skipQuoted returns the offset just past the string starting at i, or -1.
func skipQuoted(content string, i int) int {
	q := content[i]
	for j := i + 1; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return -1
}

func skipBraces(content string, i int) int {
	depth := 0
	for j := i; j < len(content); j++ {
		switch content[j] {
		case '"', '\'', '`':
			k := skipQuoted(content, j)
			if k < 0 {
				return len(content)
			}
			j = k - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(content)
}

func isAttrNameByte(c byte) bool {
	return c == '_' || c == '$' || c == '-' || c == ':' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func parseJSXAttrs(content string, from, to int) []jsxAttr {
	var out []jsxAttr
	i := from
	for i < to {
		c := content[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
			continue
		case c == '/':
			i++
			continue
		case c == '{':
			i = skipBraces(content, i)
			continue
		}
		start := i
		for i < to && isAttrNameByte(content[i]) {
			i++
		}
		if i == start {
			i++
			continue
		}
		a := jsxAttr{name: content[start:i], start: start, end: i}
		k := i
		for k < to && unicode.IsSpace(rune(content[k])) {
			k++
		}
		if k < to && content[k] == '=' {
			k++
			for k < to && unicode.IsSpace(rune(content[k])) {
				k++
			}
			switch {
			case k < to && (content[k] == '"' || content[k] == '\''):
				if j := skipQuoted(content, k); j > 0 {
					k = j
				}
			case k < to && content[k] == '{':
				k = skipBraces(content, k)
			default:
				for k < to && !unicode.IsSpace(rune(content[k])) && content[k] != '/' {
					k++
				}
			}
			a.end = k
			i = k
		}
		out = append(out, a)
	}
	return out
}

func (ComponentApplier) Apply(content string, d directives.Directive) (string, error) {
	e, ok := d.(directives.ComponentEdit)
	if !ok {
		return content, fmt.Errorf("component applier cannot apply %s directive", d.Kind())
	}
	if len(e.Changes) == 0 && e.Replacement == nil {
		return content, fmt.Errorf("%w: <%s>", ErrNothingToChange, e.Component)
	}
	tag, ok := findJSXTag(content, e.Component)
	if !ok {
		return content, fmt.Errorf("%w: <%s>", ErrTargetNotFound, e.Component)
	}
	start := tag.start

	out := content
	for _, key := range e.ChangeKeys() {
		v := e.Changes[key]
		var err error
		switch normalizeKey(key) {
		case "className":
			out, err = setAttr(out, start, "className", formatClassName(v))
		case "style":
			out, err = setAttr(out, start, "style", formatStyle(v))
		case "props":
			props, isMap := v.(map[string]any)
			if !isMap {
				return content, fmt.Errorf("props of <%s> must be an object, got %T", e.Component, v)
			}
			keys := make([]string, 0, len(props))
			for k := range props {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if out, err = setAttr(out, start, normalizeKey(k), formatJSXValue(props[k])); err != nil {
					break
				}
			}
		case "children":
			s := stringify(v)
			out, err = replaceChildren(out, start, s)
		default:
			out, err = setAttr(out, start, key, formatJSXValue(v))
		}
		if err != nil {
			return content, err
		}
	}

	if e.Replacement != nil {
		var err error
		if out, err = replaceChildren(out, start, *e.Replacement); err != nil {
			return content, err
		}
	}
	return out, nil
}

func normalizeKey(k string) string {
	switch strings.ToLower(k) {
	case "classname", "class":
		return "className"
	case "style", "styles":
		return "style"
	case "props":
		return "props"
	case "children":
		return "children"
	default:
		return k
	}
}

// setAttr replaces or injects name on the tag starting at start. An empty
// rendering removes the attribute.
func setAttr(content string, start int, name, rendered string) (string, error) {
	tag, ok := parseTagAt(content, start)
	if !ok {
		return content, fmt.Errorf("%w: tag at offset %d", ErrTargetNotFound, start)
	}
	text := name
	if rendered != "" && rendered != "{true}" {
		text = name + "=" + rendered
	}
	if a, ok := tag.attr(name); ok {
		if rendered == "" {
			from := a.start
			for from > tag.nameEnd && unicode.IsSpace(rune(content[from-1])) {
				from--
			}
			return content[:from] + content[a.end:], nil
		}
		return content[:a.start] + text + content[a.end:], nil
	}
	if rendered == "" {
		return content, nil
	}
	site := tag.insertionSite()
	return content[:site] + " " + text + content[site:], nil
}

func replaceChildren(content string, start int, children string) (string, error) {
	tag, ok := parseTagAt(content, start)
	if !ok {
		return content, fmt.Errorf("%w: tag at offset %d", ErrTargetNotFound, start)
	}
	if tag.selfClosing {
		open := content[tag.start : tag.end-1]
		open = strings.TrimRightFunc(strings.TrimSuffix(strings.TrimRightFunc(open, unicode.IsSpace), "/"), unicode.IsSpace)
		return content[:tag.start] + open + ">" + children + "</" + tag.name + ">" + content[tag.end:], nil
	}
	closeStart, ok := matchingClose(content, tag.name, tag.end, true)
	if !ok {
		return content, fmt.Errorf("%w: closing tag for <%s>", ErrTargetNotFound, tag.name)
	}
	return content[:tag.end] + children + content[closeStart:], nil
}

func isExpression(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

// formatJSXValue renders v as the right-hand side of a JSX attribute. Nil
// renders empty, which removes the attribute.
func formatJSXValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if isExpression(t) {
			return strings.TrimSpace(t)
		}
		if !strings.ContainsAny(t, "\"\n") {
			return `"` + t + `"`
		}
		return "{" + jsString(t) + "}"
	default:
		return "{" + jsLiteral(v) + "}"
	}
}

func formatClassName(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, stringify(p))
		}
		return `"` + strings.Join(parts, " ") + `"`
	default:
		return formatJSXValue(v)
	}
}

func formatStyle(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		return "{" + jsLiteral(t) + "}"
	case string:
		if isExpression(t) {
			return strings.TrimSpace(t)
		}
		return "{" + jsLiteral(cssToStyleObject(t)) + "}"
	default:
		return formatJSXValue(v)
	}
}

// cssToStyleObject turns "font-size: 12px; color: red" into a style object
// with camelCase keys.
func cssToStyleObject(decls string) map[string]any {
	out := make(map[string]any)
	for _, decl := range strings.Split(decls, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" {
			continue
		}
		out[camelCase(k)] = v
	}
	return out
}

func camelCase(prop string) string {
	parts := strings.Split(prop, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// jsLiteral renders v as a JavaScript literal with sorted object keys.
func jsLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return jsString(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int64, int32:
		return fmt.Sprint(t)
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, jsLiteral(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		if len(t) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			key := k
			if !identRe.MatchString(k) {
				key = jsString(k)
			}
			parts = append(parts, key+": "+jsLiteral(t[k]))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return jsString(fmt.Sprint(t))
	}
}

func jsString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return jsLiteral(v)
}
