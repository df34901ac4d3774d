package relevance

import (
	"path"
	"sort"
	"strings"
	"unicode"

	"quickedit/internal/analysis"
)

// Weights tunes the relevance score.
type Weights struct {
	Path       float64
	Content    float64
	Mention    float64
	Semantic   float64
	Importance float64
}

// DefaultWeights returns the built-in relevance weights.
func DefaultWeights() Weights {
	return Weights{Path: 10, Content: 2, Mention: 50, Semantic: 15, Importance: 0.5}
}

// FileScore is the relevance of one file to a request.
type FileScore struct {
	Path    string
	Score   float64
	Reasons []string
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true, "that": true, "make": true,
	"change": true, "please": true, "into": true, "from": true, "all": true, "can": true, "you": true,
	"para": true, "com": true, "uma": true, "que": true, "por": true, "mude": true, "altere": true,
	"deixe": true, "mais": true, "dos": true, "das": true,
}

// Tokens splits a request into lowercase words of three or more letters,
// dropping common filler words.
func Tokens(request string) []string {
	fields := strings.FieldsFunc(strings.ToLower(request), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if len([]rune(f)) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Score ranks every file in g against request. The result is sorted by
// descending score, ties broken by path.
func Score(request string, g *Graph, w Weights) []FileScore {
	return ScoreWith(request, g, w, DefaultAssociations)
}

// ScoreWith is Score with a custom association table.
func ScoreWith(request string, g *Graph, w Weights, assoc []Association) []FileScore {
	tokens := Tokens(request)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	var active []Association
	for _, a := range assoc {
		if a.matchesRequest(tokenSet) {
			active = append(active, a)
		}
	}
	mentioned := make(map[string]bool)
	for _, p := range analysis.MentionedFiles(request, g.files) {
		mentioned[p] = true
	}

	paths := g.Paths()
	out := make([]FileScore, 0, len(paths))
	for _, p := range paths {
		fs := FileScore{Path: p}
		lp := strings.ToLower(p)
		lc := strings.ToLower(g.Content(p))
		for _, t := range tokens {
			if strings.Contains(lp, t) {
				fs.Score += w.Path
				fs.Reasons = append(fs.Reasons, "path:"+t)
			} else if strings.Contains(lc, t) {
				fs.Score += w.Content
				fs.Reasons = append(fs.Reasons, "content:"+t)
			}
		}
		if mentioned[p] {
			fs.Score += w.Mention
			fs.Reasons = append(fs.Reasons, "mentioned")
		}
		kind := KindOf(p)
		for _, a := range active {
			if a.matchesFile(lp, kind) {
				fs.Score += w.Semantic
				fs.Reasons = append(fs.Reasons, "semantic:"+a.Topic)
			}
		}
		if imp := g.Importance(p); imp > 0 && fs.Score > 0 {
			fs.Score += w.Importance * float64(imp)
		}
		out = append(out, fs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Focus raises paths the caller already knows are in play, such as files
// changed since a revision, by the mention weight and re-sorts scores.
// Paths absent from scores are ignored.
func Focus(scores []FileScore, paths []string, w Weights) []FileScore {
	if len(paths) == 0 {
		return scores
	}
	focus := make(map[string]bool, len(paths))
	for _, p := range paths {
		focus[p] = true
	}
	out := make([]FileScore, len(scores))
	copy(out, scores)
	for i := range out {
		if focus[out[i].Path] {
			out[i].Score += w.Mention
			out[i].Reasons = append(append([]string(nil), out[i].Reasons...), "focus")
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// TopN is the number of scored files selected per tier.
var TopN = map[analysis.Complexity]int{
	analysis.Trivial:  3,
	analysis.Simple:   5,
	analysis.Moderate: 8,
	analysis.Complex:  12,
}

const fallbackCount = 3

var criticalNames = map[string]bool{
	"index.html":  true,
	"index.css":   true,
	"styles.css":  true,
	"style.css":   true,
	"globals.css": true,
	"App.css":     true,
	"App.tsx":     true,
	"App.jsx":     true,
	"main.tsx":    true,
	"main.jsx":    true,
}

// IsCritical reports whether p is an entry markup file, primary stylesheet or
// root component near the project root.
func IsCritical(p string) bool {
	return criticalNames[path.Base(p)] && strings.Count(p, "/") <= 1
}

// Select picks the files sent to the model: critical files, the top scored
// files for the tier and the stylesheets those import. It never returns an
// empty selection for a non-empty project.
func Select(g *Graph, scores []FileScore, tier analysis.Complexity) []string {
	n, ok := TopN[tier]
	if !ok {
		n = TopN[analysis.Moderate]
	}

	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range g.Paths() {
		if IsCritical(p) {
			add(p)
		}
	}
	taken := 0
	for _, s := range scores {
		if taken == n || s.Score <= 0 {
			break
		}
		add(s.Path)
		taken++
	}
	for _, p := range append([]string(nil), out...) {
		node := g.Nodes[p]
		if node == nil || node.Kind != KindComponent {
			continue
		}
		for _, dep := range node.Resolved {
			if KindOf(dep) == KindStylesheet {
				add(dep)
			}
		}
	}

	if len(out) == 0 {
		paths := g.Paths()
		if len(paths) > fallbackCount {
			paths = paths[:fallbackCount]
		}
		out = append(out, paths...)
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(s, strings.ToLower(sub))
}
