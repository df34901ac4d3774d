package relevance

import (
	"fmt"
	"sort"
	"strings"

	"quickedit/internal/analysis"
)

// Ceilings is the per-tier maximum number of lines kept for a single file.
var Ceilings = map[analysis.Complexity]int{
	analysis.Trivial:  150,
	analysis.Simple:   300,
	analysis.Moderate: 600,
	analysis.Complex:  1200,
}

// Optimized is the context actually sent to the model.
type Optimized struct {
	Files          map[string]string
	Truncated      []string
	TotalLines     int
	OptimizedLines int
}

// Optimize copies the selected files, truncating any file above the tier's
// ceiling to its head and tail with one marker line in between. A nil
// selection means every file.
func Optimize(files map[string]string, selected []string, tier analysis.Complexity) Optimized {
	ceiling, ok := Ceilings[tier]
	if !ok {
		ceiling = Ceilings[analysis.Moderate]
	}
	if selected == nil {
		selected = sortedPaths(files)
	}

	out := Optimized{Files: make(map[string]string, len(selected))}
	for _, p := range selected {
		content, ok := files[p]
		if !ok {
			continue
		}
		lines := strings.Split(content, "\n")
		out.TotalLines += len(lines)
		if len(lines) <= ceiling {
			out.Files[p] = content
			out.OptimizedLines += len(lines)
			continue
		}
		kept := truncate(p, lines, ceiling)
		out.Files[p] = strings.Join(kept, "\n")
		out.OptimizedLines += len(kept)
		out.Truncated = append(out.Truncated, p)
	}
	sort.Strings(out.Truncated)
	return out
}

func truncate(p string, lines []string, ceiling int) []string {
	head := ceiling * 2 / 5
	tail := ceiling * 2 / 5
	omitted := len(lines) - head - tail

	kept := make([]string, 0, head+tail+1)
	kept = append(kept, lines[:head]...)
	kept = append(kept, OmissionMarker(p, omitted))
	kept = append(kept, lines[len(lines)-tail:]...)
	return kept
}

// OmissionMarker renders the marker line for n skipped lines in the comment
// syntax of p's format.
func OmissionMarker(p string, n int) string {
	text := fmt.Sprintf("... [%d lines omitted] ...", n)
	switch KindOf(p) {
	case KindStylesheet:
		return "/* " + text + " */"
	case KindMarkup:
		return "<!-- " + text + " -->"
	case KindComponent:
		return "// " + text
	default:
		return text
	}
}
