package preview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/directives"
	"quickedit/internal/models"
)

func lines(n int, f string) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf(f, i)
	}
	return strings.Join(out, "\n")
}

func TestDiff_SelfIsEmpty(t *testing.T) {
	for _, s := range []string{"", "a", lines(50, "row %d"), ".a { color: red; }\n"} {
		d := Diff(s, s)
		assert.Equal(t, 0, d.Changed())
		assert.Empty(t, d.Lines)
	}
}

func TestDiff_Symmetric(t *testing.T) {
	a := "one\ntwo\nthree\nfour\nfive\nsix"
	b := "zero\none\nthree\nfour\nFIVE\nsix\nseven"

	ab := Diff(a, b)
	ba := Diff(b, a)

	assert.Equal(t, ab.Changed(), ba.Changed())
	assert.Equal(t, ab.Added, ba.Removed)
	assert.Equal(t, ab.Removed, ba.Added)
	assert.Equal(t, 3, ab.Added)
	assert.Equal(t, 2, ab.Removed)
}

func TestDiff_CollapsesLongUnchangedRuns(t *testing.T) {
	before := lines(40, "line %d")
	after := strings.Replace(before, "line 20", "LINE 20", 1)

	d := Diff(before, after)

	assert.Equal(t, 1, d.Added)
	assert.Equal(t, 1, d.Removed)
	assert.Equal(t, 39, d.Unchanged)
	// context, 3 kept, removed, added, 3 kept, context
	require.Len(t, d.Lines, 10)
	assert.Equal(t, models.DiffContext, d.Lines[0].Type)
	assert.Equal(t, "... 17 unchanged lines ...", d.Lines[0].Content)
	assert.Equal(t, models.DiffRemoved, d.Lines[4].Type)
	assert.Equal(t, 21, d.Lines[4].OldLine)
	assert.Equal(t, models.DiffAdded, d.Lines[5].Type)
	assert.Equal(t, 21, d.Lines[5].NewLine)
	assert.Equal(t, models.DiffContext, d.Lines[9].Type)
}

func TestDiff_LargeInputFallsBack(t *testing.T) {
	a := lines(2100, "a%d")
	b := lines(2100, "b%d")

	d := Diff(a, b)

	assert.Equal(t, 2100, d.Added)
	assert.Equal(t, 2100, d.Removed)
}

func TestAutoApprovable(t *testing.T) {
	assert.True(t, AutoApprovable([]directives.Directive{
		directives.StyleEdit{Property: "color"},
		directives.StyleEdit{Property: "Border-Radius"},
	}))
	assert.True(t, AutoApprovable([]directives.Directive{
		directives.ComponentEdit{Changes: map[string]any{"className": "x"}},
	}))
	assert.False(t, AutoApprovable([]directives.Directive{directives.StyleEdit{Property: "display"}}))
	assert.False(t, AutoApprovable([]directives.Directive{
		directives.ComponentEdit{Changes: map[string]any{"className": "x", "onClick": "{f}"}},
	}))
	assert.False(t, AutoApprovable([]directives.Directive{directives.MarkupEdit{Selector: "h1"}}))
	assert.False(t, AutoApprovable(nil))
}

func TestBuildPreviews(t *testing.T) {
	before := map[string]string{"a.css": ".button { color: #333; }", "b.css": "x", "App.tsx": "<App />"}
	after := map[string]string{"a.css": ".button { color: #03A5C0; }", "b.css": "x", "App.tsx": "<App />"}
	ds := []directives.Directive{directives.StyleEdit{Path: "a.css", Selector: ".button", Property: "color", Value: "#03A5C0"}}

	got := BuildPreviews(before, after, ds)

	require.Len(t, got, 1)
	assert.Equal(t, "a.css", got[0].Path)
	assert.Equal(t, "a.css", got[0].Diff.Path)
	assert.True(t, got[0].AutoApprovable)
	assert.Equal(t, 1, got[0].Modifications)
	assert.Contains(t, got[0].Patch, "@@")
	assert.Contains(t, got[0].Patch, "03A5C0")
}
