package preview

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"quickedit/internal/directives"
	"quickedit/internal/models"
)

// cosmeticProperties are the stylesheet properties an edit may touch and
// still be approved without review.
var cosmeticProperties = map[string]bool{
	"color": true, "background": true, "background-color": true,
	"font-size": true, "font-weight": true, "font-family": true, "font-style": true,
	"line-height": true, "letter-spacing": true, "text-align": true,
	"text-decoration": true, "text-transform": true,
	"border-radius": true, "border-color": true, "box-shadow": true, "opacity": true,
	"padding": true, "padding-top": true, "padding-right": true, "padding-bottom": true, "padding-left": true,
	"margin": true, "margin-top": true, "margin-right": true, "margin-bottom": true, "margin-left": true,
	"gap": true, "outline": true, "cursor": true, "transition": true,
}

// AutoApprovable reports whether every directive in ds is cosmetic: a
// stylesheet edit of an allow-listed property, or a component edit that only
// changes className.
func AutoApprovable(ds []directives.Directive) bool {
	if len(ds) == 0 {
		return false
	}
	for _, d := range ds {
		switch e := d.(type) {
		case directives.StyleEdit:
			if !cosmeticProperties[strings.ToLower(strings.TrimSpace(e.Property))] {
				return false
			}
		case directives.ComponentEdit:
			if e.Replacement != nil || len(e.Changes) != 1 {
				return false
			}
			for k := range e.Changes {
				if k != "className" && k != "class" {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

// BuildPreviews diffs every file that changed between before and after.
// Files without added or removed lines are skipped.
func BuildPreviews(before, after map[string]string, ds []directives.Directive) []models.FilePreview {
	byFile := make(map[string][]directives.Directive)
	for _, d := range ds {
		byFile[d.File()] = append(byFile[d.File()], d)
	}

	paths := make([]string, 0, len(after))
	for p := range after {
		if before[p] != after[p] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	dmp := diffmatchpatch.New()
	var out []models.FilePreview
	for _, p := range paths {
		d := Diff(before[p], after[p])
		if d.Changed() == 0 {
			continue
		}
		d.Path = p
		out = append(out, models.FilePreview{
			Path:           p,
			Diff:           d,
			Patch:          dmp.PatchToText(dmp.PatchMake(before[p], after[p])),
			AutoApprovable: AutoApprovable(byFile[p]),
			Modifications:  len(byFile[p]),
		})
	}
	return out
}
