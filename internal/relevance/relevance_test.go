package relevance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/analysis"
)

func sampleProject() map[string]string {
	return map[string]string{
		"index.html": `<html><head><link rel="stylesheet" href="/src/index.css"></head>
<body><div id="root"></div><script type="module" src="/src/main.tsx"></script></body></html>`,
		"src/main.tsx": `import React from 'react'
import App from './App'
import './index.css'
`,
		"src/App.tsx": `import { Header } from './components/Header'
import Button from '@/components/Button'
export default function App() { return <Header /> }
`,
		"src/components/Header.tsx": `import './Header.css'
export const Header = () => <nav className="nav">Home</nav>
`,
		"src/components/Header.css": `.nav { color: red; }`,
		"src/components/Button.tsx": `const Button = () => <button className="button">Go</button>
export default Button
`,
		"src/components/index.ts": `export { Header } from './Header'
export { default as Button } from './Button'
`,
		"src/index.css": `@import './components/Header.css';
.button { color: #333; }`,
	}
}

func TestBuildGraph_ResolvesImports(t *testing.T) {
	g := BuildGraph(sampleProject())

	app := g.Nodes["src/App.tsx"]
	require.NotNil(t, app)
	assert.Equal(t, KindComponent, app.Kind)
	assert.ElementsMatch(t, []string{"src/components/Header.tsx", "src/components/Button.tsx"}, app.Resolved)
	assert.Equal(t, []string{"App"}, app.Exports)

	assert.ElementsMatch(t, []string{"src/index.css", "src/main.tsx"}, g.Nodes["index.html"].Resolved)
	assert.Equal(t, []string{"src/components/Header.css"}, g.Nodes["src/index.css"].Resolved)
	assert.ElementsMatch(t, []string{"src/components/Header.tsx", "src/index.css"}, g.Nodes["src/components/Header.css"].UsedBy)
	assert.ElementsMatch(t, []string{"Header", "Button"}, g.Nodes["src/components/index.ts"].Exports)
}

func TestBuildGraph_Importance(t *testing.T) {
	g := BuildGraph(sampleProject())

	// used by main.tsx, one export, entry name
	assert.Equal(t, 10+5+20, g.Importance("src/App.tsx"))
	// used by App.tsx and index.ts, one export
	assert.Equal(t, 2*10+5, g.Importance("src/components/Button.tsx"))
	assert.Equal(t, 0, g.Importance("missing.tsx"))
}

func TestBuildGraph_ImportanceIgnoresInsertionOrder(t *testing.T) {
	src := sampleProject()
	var keys []string
	for k := range src {
		keys = append(keys, k)
	}
	reversed := make(map[string]string, len(src))
	for i := len(keys) - 1; i >= 0; i-- {
		reversed[keys[i]] = src[keys[i]]
	}

	a := BuildGraph(src)
	b := BuildGraph(reversed)
	for p := range src {
		assert.Equal(t, a.Importance(p), b.Importance(p), p)
		assert.Equal(t, a.Nodes[p].UsedBy, b.Nodes[p].UsedBy, p)
	}
}

func TestResolveImport_PackagesAndURLs(t *testing.T) {
	files := map[string]string{"src/a.ts": ""}
	_, ok := ResolveImport("src/b.ts", "react", files)
	assert.False(t, ok)
	_, ok = ResolveImport("index.html", "https://cdn.example.com/x.js", files)
	assert.False(t, ok)
	got, ok := ResolveImport("src/b.ts", "./a?raw", files)
	assert.True(t, ok)
	assert.Equal(t, "src/a.ts", got)
}

func TestScore_MentionAndSemantic(t *testing.T) {
	g := BuildGraph(sampleProject())
	scores := Score("make the button in Button.tsx rounded", g, DefaultWeights())

	require.NotEmpty(t, scores)
	assert.Equal(t, "src/components/Button.tsx", scores[0].Path)
	assert.Contains(t, scores[0].Reasons, "mentioned")
	assert.Contains(t, scores[0].Reasons, "semantic:button")
}

func TestFocus_RanksChangedFilesFirst(t *testing.T) {
	g := BuildGraph(sampleProject())
	scores := Score("make it pop", g, DefaultWeights())

	focused := Focus(scores, []string{"src/components/index.ts", "gone.css"}, DefaultWeights())

	require.Len(t, focused, len(scores))
	assert.Equal(t, "src/components/index.ts", focused[0].Path)
	assert.Contains(t, focused[0].Reasons, "focus")
	for _, s := range scores {
		assert.NotContains(t, s.Reasons, "focus")
	}
	assert.Contains(t, Select(g, focused, analysis.Trivial), "src/components/index.ts")
	assert.Equal(t, scores, Focus(scores, nil, DefaultWeights()))
}

func TestSelect_IncludesCriticalAndImportedStyles(t *testing.T) {
	g := BuildGraph(sampleProject())
	sel := Select(g, Score("rename the navigation links", g, DefaultWeights()), analysis.Trivial)

	assert.Contains(t, sel, "index.html")
	assert.Contains(t, sel, "src/index.css")
	assert.Contains(t, sel, "src/App.tsx")
	assert.Contains(t, sel, "src/components/Header.tsx")
	assert.Contains(t, sel, "src/components/Header.css")
}

func TestSelect_FallbackNeverEmpty(t *testing.T) {
	files := map[string]string{
		"lib/zeta.ts":  "export const z = 1",
		"lib/alpha.ts": "export const a = 1",
		"lib/beta.ts":  "export const b = 1",
		"lib/gamma.ts": "export const g = 1",
	}
	g := BuildGraph(files)
	sel := Select(g, Score("qwertyuiop", g, DefaultWeights()), analysis.Simple)

	assert.Equal(t, []string{"lib/alpha.ts", "lib/beta.ts", "lib/gamma.ts"}, sel)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"botão", "azul"}, Tokens("Mude o botão para azul"))
	assert.Equal(t, []string{"button", "color", "03a5c0"}, Tokens("change the button color to #03A5C0"))
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return strings.Join(lines, "\n")
}

func TestOptimize_UnderCeilingIsIdentity(t *testing.T) {
	files := map[string]string{"a.css": numbered(150), "b.tsx": numbered(10)}

	out := Optimize(files, nil, analysis.Trivial)

	assert.Equal(t, files, out.Files)
	assert.Empty(t, out.Truncated)
	assert.Equal(t, out.TotalLines, out.OptimizedLines)

	again := Optimize(out.Files, nil, analysis.Trivial)
	assert.Equal(t, out, again)
}

var markerRe = regexp.MustCompile(`\[(\d+) lines omitted\]`)

func TestOptimize_TruncatesWithMarker(t *testing.T) {
	for _, tier := range analysis.Tiers {
		ceiling := Ceilings[tier]
		original := ceiling*3 + 7
		files := map[string]string{"big.html": numbered(original)}

		out := Optimize(files, []string{"big.html"}, tier)
		lines := strings.Split(out.Files["big.html"], "\n")

		assert.LessOrEqual(t, len(lines), ceiling+1, tier)
		assert.Equal(t, []string{"big.html"}, out.Truncated)

		var markers []string
		for _, l := range lines {
			if markerRe.MatchString(l) {
				markers = append(markers, l)
			}
		}
		require.Len(t, markers, 1)
		assert.True(t, strings.HasPrefix(markers[0], "<!--"))

		omitted, err := strconv.Atoi(markerRe.FindStringSubmatch(markers[0])[1])
		require.NoError(t, err)
		head := ceiling * 2 / 5
		assert.Equal(t, original-2*head, omitted)
		assert.Equal(t, "line 0", lines[0])
		assert.Equal(t, fmt.Sprintf("line %d", original-1), lines[len(lines)-1])
	}
}

func TestOptimize_SkipsUnknownSelection(t *testing.T) {
	out := Optimize(map[string]string{"a.css": "x"}, []string{"a.css", "gone.css"}, analysis.Simple)
	assert.Equal(t, map[string]string{"a.css": "x"}, out.Files)
}
