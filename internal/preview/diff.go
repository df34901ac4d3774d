// Package preview turns before/after file contents into line diffs for
// review.
package preview

import (
	"fmt"
	"strings"

	"quickedit/internal/models"
)

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

// maxCells bounds the LCS table. Larger inputs are reported as a whole
// replacement of the differing region.
const maxCells = 4_000_000

// Diff computes the collapsed line diff from before to after. Identical
// inputs give an empty diff.
func Diff(before, after string) models.FileDiff {
	return collapse(diffLines(splitLines(before), splitLines(after)))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// diffLines classifies every line of a and b as unchanged, removed or added.
func diffLines(a, b []string) []models.DiffLine {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	out := make([]models.DiffLine, 0, len(a)+len(b))
	for i := 0; i < prefix; i++ {
		out = append(out, models.DiffLine{Type: models.DiffUnchanged, Content: a[i], OldLine: i + 1, NewLine: i + 1})
	}

	ma, mb := a[prefix:len(a)-suffix], b[prefix:len(b)-suffix]
	out = append(out, middle(ma, mb, prefix)...)

	for k := 0; k < suffix; k++ {
		i, j := len(a)-suffix+k, len(b)-suffix+k
		out = append(out, models.DiffLine{Type: models.DiffUnchanged, Content: a[i], OldLine: i + 1, NewLine: j + 1})
	}
	return out
}

func middle(a, b []string, offset int) []models.DiffLine {
	n, m := len(a), len(b)
	var out []models.DiffLine
	removed := func(i int) {
		out = append(out, models.DiffLine{Type: models.DiffRemoved, Content: a[i], OldLine: offset + i + 1})
	}
	added := func(j int) {
		out = append(out, models.DiffLine{Type: models.DiffAdded, Content: b[j], NewLine: offset + j + 1})
	}

	if (n+1)*(m+1) > maxCells {
		for i := range a {
			removed(i)
		}
		for j := range b {
			added(j)
		}
		return out
	}

	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			out = append(out, models.DiffLine{Type: models.DiffUnchanged, Content: a[i], OldLine: offset + i + 1, NewLine: offset + j + 1})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			removed(i)
			i++
		default:
			added(j)
			j++
		}
	}
	for ; i < n; i++ {
		removed(i)
	}
	for ; j < m; j++ {
		added(j)
	}
	return out
}

// collapse keeps ContextLines unchanged lines around each change and
// replaces longer unchanged runs with one context record.
func collapse(lines []models.DiffLine) models.FileDiff {
	var d models.FileDiff
	keep := make([]bool, len(lines))
	for i, l := range lines {
		switch l.Type {
		case models.DiffAdded:
			d.Added++
		case models.DiffRemoved:
			d.Removed++
		default:
			d.Unchanged++
			continue
		}
		for k := max(0, i-ContextLines); k <= min(len(lines)-1, i+ContextLines); k++ {
			keep[k] = true
		}
	}
	if d.Changed() == 0 {
		return models.FileDiff{}
	}

	for i := 0; i < len(lines); {
		if keep[i] {
			d.Lines = append(d.Lines, lines[i])
			i++
			continue
		}
		start := i
		for i < len(lines) && !keep[i] {
			i++
		}
		d.Lines = append(d.Lines, models.DiffLine{
			Type:    models.DiffContext,
			Content: fmt.Sprintf("... %d unchanged lines ...", i-start),
			OldLine: lines[start].OldLine,
			NewLine: lines[start].NewLine,
		})
	}
	return d
}
