package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "intent": "Change the button color",
  "summary": "Updated .button color",
  "files_affected": ["src/index.css"],
  "modifications": [
    {"type": "css", "file": "src/index.css", "target": ".button", "property": "color", "value": "#03A5C0"}
  ]
}`

func TestParseResponse_Direct(t *testing.T) {
	parsed, err := ParseResponse(sampleResponse)
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, parsed.Strategy)
	assert.Equal(t, "Change the button color", parsed.Intent)
	assert.Equal(t, []string{"src/index.css"}, parsed.FilesAffected)
	require.Len(t, parsed.Modifications, 1)
	assert.Equal(t, ".button", parsed.Modifications[0].Target)
	assert.Equal(t, "#03A5C0", parsed.Modifications[0].Value)
}

func TestParseResponse_FencesParseIdentically(t *testing.T) {
	plain, err := ParseResponse(sampleResponse)
	require.NoError(t, err)

	for _, wrapped := range []string{
		"```json\n" + sampleResponse + "\n```",
		"```\n" + sampleResponse + "\n```",
		"Here is the change:\n```json\n" + sampleResponse + "\n```\nDone.",
	} {
		fenced, err := ParseResponse(wrapped)
		require.NoError(t, err)
		assert.Equal(t, plain, fenced)
	}
}

func TestParseResponse_RepairsTrailingCommaAndMissingBrace(t *testing.T) {
	text := `{"intent": "x", "summary": "y", "modifications": [
	  {"type": "css", "file": "a.css", "target": ".b", "property": "color", "value": "red"},
	]`
	parsed, err := ParseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepaired, parsed.Strategy)
	assert.Equal(t, "x", parsed.Intent)
	require.Len(t, parsed.Modifications, 1)
	assert.Equal(t, "red", parsed.Modifications[0].Value)
}

func TestParseResponse_RepairKeepsBracesInsideStrings(t *testing.T) {
	text := `{"intent": "use {braces}", "modifications": [{"type": "jsx", "file": "App.tsx", "target": "div", "value": "<p>{count}</p>"}`
	parsed, err := ParseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "use {braces}", parsed.Intent)
	assert.Equal(t, "<p>{count}</p>", parsed.Modifications[0].Value)
}

func TestParseResponse_ExtractsModificationsArray(t *testing.T) {
	// The outer object is broken beyond repair but the array is intact.
	text := `{"intent": "Fix header", "summary": oops, "modifications": [{"type": "html", "file": "index.html", "target": "h1", "value": "Hi"}]}`
	parsed, err := ParseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyExtracted, parsed.Strategy)
	assert.Equal(t, "Fix header", parsed.Intent)
	assert.Equal(t, placeholderSummary, parsed.Summary)
	require.Len(t, parsed.Modifications, 1)
	assert.Equal(t, "h1", parsed.Modifications[0].Target)
}

func TestParseResponse_LooselyTypedFields(t *testing.T) {
	text := `{"intent": "x", "modifications": [
	  {"type": "css", "file": "a.css", "target": ".b", "property": "opacity", "value": 0.5},
	  {"type": "jsx", "file": "App.tsx", "target": "button", "changes": "{\"className\": \"btn\"}"}
	]}`
	parsed, err := ParseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "0.5", parsed.Modifications[0].Value)
	assert.Equal(t, map[string]any{"className": "btn"}, parsed.Modifications[1].Changes)
}

func TestParseResponse_Failure(t *testing.T) {
	for _, text := range []string{"", "I could not do that.", `{"intent": "no list"}`} {
		parsed, err := ParseResponse(text)
		require.Error(t, err, text)
		assert.True(t, errors.Is(err, ErrNoModifications))
		assert.Empty(t, parsed.Modifications)
	}
}

func TestParseResponse_EmptyListIsNotAFailure(t *testing.T) {
	parsed, err := ParseResponse(`{"intent": "nothing", "summary": "", "modifications": []}`)
	require.NoError(t, err)
	assert.Empty(t, parsed.Modifications)
}

func TestRepairJSON(t *testing.T) {
	cases := map[string]string{
		`{"a": [1, 2,]}`:         `{"a": [1, 2]}`,
		`{"a": {"b": [1`:         `{"a": {"b": [1]}}`,
		`{"a": "unterminated`:    `{"a": "unterminated"}`,
		`{"a": "x,]"}`:           `{"a": "x,]"}`,
		`[{"a": 1}, {"b": 2},  `: `[{"a": 1}, {"b": 2}]`,
	}
	for in, want := range cases {
		assert.Equal(t, want, repairJSON(in), in)
	}
}
