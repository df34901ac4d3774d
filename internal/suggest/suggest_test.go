package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/directives"
	"quickedit/internal/models"
)

func TestDarken(t *testing.T) {
	cases := map[string]string{
		"#03A5C0":           "#038CA3",
		"#fff":              "#D9D9D9",
		"white":             "#D9D9D9",
		"Blue":              "#0000D9",
		"rgb(100, 200, 20)": "#55AA11",
	}
	for in, want := range cases {
		got, ok := Darken(in, DarkenPercent)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Darken("var(--primary)", DarkenPercent)
	assert.False(t, ok)
}

func TestIsLight(t *testing.T) {
	assert.True(t, IsLight("#fff"))
	assert.True(t, IsLight("yellow"))
	assert.False(t, IsLight("#333"))
	assert.False(t, IsLight("inherit"))
}

func TestGenerate_ButtonColor(t *testing.T) {
	files := map[string]string{"index.css": ".button { color: #03A5C0; }"}
	applied := []directives.Directive{directives.StyleEdit{Path: "index.css", Selector: ".button", Property: "color", Value: "#03A5C0"}}

	got := Generate(applied, files)

	require.Len(t, got, 3)
	assert.Equal(t, "focus:index.css:.button", got[0].ID)
	assert.Equal(t, models.PriorityHigh, got[0].Priority)
	assert.Equal(t, "hover:index.css:.button", got[1].ID)
	require.NotNil(t, got[1].Modification)
	assert.Equal(t, models.Modification{Type: "css", File: "index.css", Target: ".button:hover", Property: "color", Value: "#038CA3"}, *got[1].Modification)
	assert.True(t, got[1].AutoApplicable)
	assert.Equal(t, "transition:index.css:.button", got[2].ID)
	for _, s := range got {
		assert.NotEmpty(t, s.Message.EN)
		assert.NotEmpty(t, s.Message.PT)
	}
}

func TestGenerate_SkipsExistingStates(t *testing.T) {
	files := map[string]string{"a.css": ".link { color: red; transition: color .3s; }\n.link:hover { color: darkred; }\n.link:focus { outline: 1px; }"}
	applied := []directives.Directive{directives.StyleEdit{Path: "a.css", Selector: ".link", Property: "color", Value: "red"}}

	assert.Empty(t, Generate(applied, files))
}

func TestGenerate_ContrastIsAdvisory(t *testing.T) {
	files := map[string]string{"a.css": ".title { color: #fafafa; transition: none; }\n.title:hover {}"}
	applied := []directives.Directive{directives.StyleEdit{Path: "a.css", Selector: ".title", Property: "color", Value: "#fafafa"}}

	got := Generate(applied, files)

	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryAccessibility, got[0].Category)
	assert.False(t, got[0].AutoApplicable)
	assert.Nil(t, got[0].Modification)
}

func TestGenerate_AccessibilityOfElements(t *testing.T) {
	files := map[string]string{
		"App.tsx":    `<IconButton className="x"><StarIcon /></IconButton>`,
		"index.html": `<img src="logo.png">`,
	}
	applied := []directives.Directive{
		directives.ComponentEdit{Path: "App.tsx", Component: "IconButton", Changes: map[string]any{"className": "x"}},
		directives.MarkupEdit{Path: "index.html", Selector: "img", Attribute: "src", Value: "logo.png"},
	}

	got := Generate(applied, files)

	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
		assert.False(t, s.AutoApplicable)
	}
	assert.ElementsMatch(t, []string{"aria-label:App.tsx:IconButton", "alt:index.html:img"}, ids)
}

func TestGenerate_CapsAndOrders(t *testing.T) {
	files := map[string]string{"a.css": ""}
	var applied []directives.Directive
	for _, sel := range []string{".btn-a", ".btn-b", ".btn-c"} {
		applied = append(applied, directives.StyleEdit{Path: "a.css", Selector: sel, Property: "background", Value: "#123456"})
	}

	got := Generate(applied, files)

	require.Len(t, got, MaxSuggestions)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Priority, got[i].Priority)
	}
}

func TestGenerate_TransitionLooksAtExactRule(t *testing.T) {
	files := map[string]string{"a.css": ".nav .link { transition: color .2s; }\n.link { color: red; }\n.link:hover { color: darkred; }\n.link:focus { outline: 1px; }"}
	applied := []directives.Directive{directives.StyleEdit{Path: "a.css", Selector: ".link", Property: "color", Value: "red"}}

	got := Generate(applied, files)

	require.Len(t, got, 1)
	assert.Equal(t, "transition:a.css:.link", got[0].ID)
}
