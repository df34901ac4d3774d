package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"quickedit/internal/models"
)

// ErrNoModifications is returned when no parse strategy recovers a
// modifications list from the model output.
var ErrNoModifications = errors.New("no modifications generated")

// Parse strategies, in the order they are attempted.
const (
	StrategyDirect    = "direct"
	StrategyRepaired  = "repaired"
	StrategyExtracted = "extracted"
)

const (
	placeholderIntent  = "Applying the requested changes"
	placeholderSummary = "Changes generated from a partially readable response"
)

var (
	fenceRe         = regexp.MustCompile("```[a-zA-Z0-9_-]*")
	modificationsRe = regexp.MustCompile(`"modifications"\s*:\s*\[`)
	intentRe        = regexp.MustCompile(`"intent"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	summaryRe       = regexp.MustCompile(`"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// ParsedResponse is the structured form of a generation response.
type ParsedResponse struct {
	Intent        string
	Summary       string
	FilesAffected []string
	Modifications []models.Modification
	Strategy      string
}

type rawResponse struct {
	Intent        any               `json:"intent"`
	Summary       any               `json:"summary"`
	FilesAffected []any             `json:"files_affected"`
	FilesCamel    []any             `json:"filesAffected"`
	Modifications []json.RawMessage `json:"modifications"`
}

// ParseResponse extracts the response object from raw model output. It strips
// code fences, scans for the balanced object holding "modifications", and
// falls back to structural repair and then to extracting only the
// modifications array.
func ParseResponse(text string) (*ParsedResponse, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))

	object, complete := extractObject(cleaned)
	var lastErr error
	if object != "" {
		if complete {
			parsed, err := decodeResponse(object)
			if err == nil {
				parsed.Strategy = StrategyDirect
				return parsed, nil
			}
			lastErr = err
		}
		parsed, err := decodeResponse(repairJSON(object))
		if err == nil {
			parsed.Strategy = StrategyRepaired
			return parsed, nil
		}
		lastErr = err
	}

	parsed, err := extractModifications(cleaned)
	if err == nil {
		parsed.Strategy = StrategyExtracted
		return parsed, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return &ParsedResponse{}, fmt.Errorf("%w: %v", ErrNoModifications, lastErr)
}

func decodeResponse(object string) (*ParsedResponse, error) {
	var raw rawResponse
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return nil, err
	}
	if raw.Modifications == nil {
		return nil, errors.New(`response has no "modifications" list`)
	}
	mods, err := decodeModifications(raw.Modifications)
	if err != nil {
		return nil, err
	}
	files := raw.FilesAffected
	if len(files) == 0 {
		files = raw.FilesCamel
	}
	return &ParsedResponse{
		Intent:        stringify(raw.Intent),
		Summary:       stringify(raw.Summary),
		FilesAffected: stringList(files),
		Modifications: mods,
	}, nil
}

func extractModifications(text string) (*ParsedResponse, error) {
	loc := modificationsRe.FindStringIndex(text)
	if loc == nil {
		return nil, errors.New(`no "modifications" array found`)
	}
	start := loc[1] - 1
	array := text[start:]
	if end := matchClose(text, start); end >= 0 {
		array = text[start : end+1]
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(repairJSON(array)), &items); err != nil {
		return nil, fmt.Errorf("modifications array: %w", err)
	}
	mods, err := decodeModifications(items)
	if err != nil {
		return nil, err
	}
	parsed := &ParsedResponse{
		Intent:        placeholderIntent,
		Summary:       placeholderSummary,
		Modifications: mods,
	}
	if m := intentRe.FindStringSubmatch(text); m != nil {
		parsed.Intent = unquote(m[1])
	}
	if m := summaryRe.FindStringSubmatch(text); m != nil {
		parsed.Summary = unquote(m[1])
	}
	return parsed, nil
}

// decodeModifications tolerates loosely typed fields: numbers and booleans
// where strings are expected, and "changes" sent as a JSON string.
func decodeModifications(items []json.RawMessage) ([]models.Modification, error) {
	mods := make([]models.Modification, 0, len(items))
	for i, item := range items {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, fmt.Errorf("modification %d: %w", i, err)
		}
		m := models.Modification{
			Type:      stringify(fields["type"]),
			File:      stringify(fields["file"]),
			Target:    stringify(fields["target"]),
			Property:  stringify(fields["property"]),
			Attribute: stringify(fields["attribute"]),
			Value:     stringify(fields["value"]),
		}
		switch changes := fields["changes"].(type) {
		case map[string]any:
			m.Changes = changes
		case string:
			var decoded map[string]any
			if json.Unmarshal([]byte(changes), &decoded) == nil {
				m.Changes = decoded
			}
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func stringList(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s := stringify(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// extractObject returns the first balanced object that mentions
// "modifications". When the text ends inside such an object the unterminated
// remainder is returned with complete=false.
func extractObject(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchClose(text, i)
		if end < 0 {
			rest := text[i:]
			if strings.Contains(rest, `"modifications"`) {
				return rest, false
			}
			return "", false
		}
		region := text[i : end+1]
		if strings.Contains(region, `"modifications"`) {
			return region, true
		}
		i = end
	}
	return "", false
}

// matchClose returns the index of the bracket closing the one at open,
// skipping string literals, or -1 when the text ends first.
func matchClose(text string, open int) int {
	depth := 0
	inString, escaped := false, false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// repairJSON removes trailing commas before closers or end of input, closes
// an unterminated string and appends the missing closers in nesting order.
func repairJSON(s string) string {
	var (
		b        strings.Builder
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if n := len(stack); n > 0 && stack[n-1] == c {
				stack = stack[:n-1]
			}
		case ',':
			j := i + 1
			for j < len(s) && strings.ContainsRune(" \t\r\n", rune(s[j])) {
				j++
			}
			if j == len(s) || s[j] == '}' || s[j] == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return out
}
