package relevance

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a project file by format.
type Kind string

const (
	KindStylesheet Kind = "stylesheet"
	KindMarkup     Kind = "markup"
	KindComponent  Kind = "component"
	KindOther      Kind = "other"
)

// KindOf classifies p by extension.
func KindOf(p string) Kind {
	switch strings.ToLower(path.Ext(p)) {
	case ".css", ".scss", ".less":
		return KindStylesheet
	case ".html", ".htm":
		return KindMarkup
	case ".tsx", ".jsx", ".ts", ".js", ".vue", ".svelte":
		return KindComponent
	default:
		return KindOther
	}
}

// Node is one file of the dependency graph.
type Node struct {
	Path       string
	Kind       Kind
	Imports    []string // specifiers as written
	Resolved   []string // project paths the imports resolve to
	Exports    []string
	UsedBy     []string
	Importance int
}

// Graph is the import/usage graph of a project. It is rebuilt per request and
// never mutated after BuildGraph returns.
type Graph struct {
	Nodes map[string]*Node
	files map[string]string
}

var (
	esImportRe      = regexp.MustCompile(`(?m)^\s*import\s+(?:[^'"]*?\s+from\s+)?['"]([^'"]+)['"]`)
	reExportRe      = regexp.MustCompile(`(?m)^\s*export\s+[^'"\n]*?\s+from\s+['"]([^'"]+)['"]`)
	requireRe       = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	dynamicImportRe = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	cssImportRe     = regexp.MustCompile(`@import\s+(?:url\(\s*)?['"]?([^'")\s;]+)`)
	scriptSrcRe     = regexp.MustCompile(`(?i)<script\b[^>]*\bsrc\s*=\s*['"]([^'"]+)['"]`)
	linkHrefRe      = regexp.MustCompile(`(?i)<link\b[^>]*\bhref\s*=\s*['"]([^'"]+)['"]`)

	exportDeclRe    = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:async\s+)?(?:function\*?|class|const|let|var|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)
	exportDefaultRe = regexp.MustCompile(`(?m)^\s*export\s+default\s+([A-Za-z_$][\w$]*)\s*;?\s*$`)
	exportListRe    = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}`)
)

var resolveFallbacks = []string{"", ".ts", ".tsx", ".js", ".jsx", ".css", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

var entryNames = map[string]bool{"index": true, "main": true, "app": true, "layout": true}

const (
	usedByWeight = 10
	exportWeight = 5
	entryBonus   = 20
)

// BuildGraph extracts imports and exports from every file and links them.
func BuildGraph(files map[string]string) *Graph {
	g := &Graph{Nodes: make(map[string]*Node, len(files)), files: files}
	paths := sortedPaths(files)

	for _, p := range paths {
		n := &Node{Path: p, Kind: KindOf(p)}
		content := files[p]
		n.Imports = extractImports(n.Kind, content)
		if n.Kind == KindComponent {
			n.Exports = extractExports(content)
		}
		g.Nodes[p] = n
	}

	for _, p := range paths {
		n := g.Nodes[p]
		seen := make(map[string]bool)
		for _, spec := range n.Imports {
			target, ok := ResolveImport(p, spec, files)
			if !ok || target == p || seen[target] {
				continue
			}
			seen[target] = true
			n.Resolved = append(n.Resolved, target)
			g.Nodes[target].UsedBy = append(g.Nodes[target].UsedBy, p)
		}
	}

	for _, n := range g.Nodes {
		n.Importance = importance(n)
	}
	return g
}

// Paths returns every node path in sorted order.
func (g *Graph) Paths() []string {
	return sortedPaths(g.files)
}

// Content returns the text of p.
func (g *Graph) Content(p string) string {
	return g.files[p]
}

// Importance returns the importance of p, or zero for an unknown path.
func (g *Graph) Importance(p string) int {
	if n, ok := g.Nodes[p]; ok {
		return n.Importance
	}
	return 0
}

func importance(n *Node) int {
	score := usedByWeight*len(n.UsedBy) + exportWeight*len(n.Exports)
	if entryNames[strings.ToLower(baseName(n.Path))] {
		score += entryBonus
	}
	return score
}

func extractImports(kind Kind, content string) []string {
	var res []*regexp.Regexp
	switch kind {
	case KindComponent:
		res = []*regexp.Regexp{esImportRe, reExportRe, requireRe, dynamicImportRe}
	case KindStylesheet:
		res = []*regexp.Regexp{cssImportRe}
	case KindMarkup:
		res = []*regexp.Regexp{scriptSrcRe, linkHrefRe}
	default:
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if spec := m[1]; !seen[spec] {
				seen[spec] = true
				out = append(out, spec)
			}
		}
	}
	return out
}

func extractExports(content string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] || jsKeywords[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, m := range exportDeclRe.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	for _, m := range exportDefaultRe.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	for _, m := range exportListRe.FindAllStringSubmatch(content, -1) {
		for _, item := range strings.Split(m[1], ",") {
			fields := strings.Fields(item)
			if len(fields) == 0 {
				continue
			}
			// "a as b" exports b
			add(fields[len(fields)-1])
		}
	}
	return out
}

var jsKeywords = map[string]bool{"function": true, "class": true, "async": true, "const": true, "let": true, "var": true}

// ResolveImport maps an import specifier found in from to a project path.
// Package imports and URLs do not resolve.
func ResolveImport(from, spec string, files map[string]string) (string, bool) {
	if i := strings.IndexAny(spec, "?#"); i >= 0 {
		spec = spec[:i]
	}
	if spec == "" || strings.Contains(spec, "://") || strings.HasPrefix(spec, "//") || strings.HasPrefix(spec, "data:") {
		return "", false
	}

	var base string
	switch {
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		base = path.Join(path.Dir(from), spec)
	case strings.HasPrefix(spec, "@/"):
		base = path.Join("src", spec[2:])
	case strings.HasPrefix(spec, "/"):
		base = path.Clean(strings.TrimPrefix(spec, "/"))
	case KindOf(from) != KindComponent:
		// stylesheets and markup reference siblings without "./"
		base = path.Join(path.Dir(from), spec)
	default:
		return "", false
	}

	for _, suffix := range resolveFallbacks {
		if _, ok := files[base+suffix]; ok {
			return base + suffix, true
		}
	}
	// "/src/x" from markup served out of public/
	if strings.HasPrefix(spec, "/") {
		if _, ok := files["public/"+base]; ok {
			return "public/" + base, true
		}
	}
	return "", false
}

func baseName(p string) string {
	b := path.Base(p)
	return strings.TrimSuffix(b, path.Ext(b))
}

func sortedPaths(files map[string]string) []string {
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
