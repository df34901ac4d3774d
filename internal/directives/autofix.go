package directives

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxNameDistance bounds the edit distance between file stems accepted by
// the last similarity step.
const maxNameDistance = 2

// FixResult is the outcome of AutoFix.
type FixResult struct {
	Directives []Directive
	Fixed      []string
	Dropped    []Issue
}

// AutoFix repairs invalid directives. A directive aimed at a missing file is
// redirected to the most similar project file, missing optional fields get
// empty defaults, and whatever still fails validation is dropped.
func AutoFix(ds []Directive, files map[string]string) FixResult {
	var res FixResult
	for i, d := range ds {
		if len(checkDirective(d, files)) == 0 {
			res.Directives = append(res.Directives, d)
			continue
		}

		fixed := fillDefaults(d)
		if _, ok := files[fixed.File()]; !ok {
			if similar, found := FindSimilar(fixed.File(), files); found {
				res.Fixed = append(res.Fixed, fmt.Sprintf("retargeted %s to %s", fixed.File(), similar))
				fixed = fixed.WithFile(similar)
			}
		}

		if errs := checkDirective(fixed, files); len(errs) > 0 {
			res.Dropped = append(res.Dropped, Issue{Index: i, Directive: d, Message: strings.Join(errs, "; ")})
			continue
		}
		res.Directives = append(res.Directives, fixed)
	}
	return res
}

func fillDefaults(d Directive) Directive {
	if e, ok := d.(ComponentEdit); ok && e.Changes == nil && e.Replacement == nil {
		e.Changes = map[string]any{}
		return e
	}
	return d
}

// FindSimilar looks for the project file name most likely meant by name:
// an exact base name match, then a base name match ignoring extension and
// case, then containment of one stem in the other, then the closest stem by
// edit distance among fuzzy matches with the same extension.
func FindSimilar(name string, files map[string]string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	base := path.Base(name)
	stem := strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
	ext := strings.ToLower(path.Ext(base))

	for _, p := range paths {
		if path.Base(p) == base {
			return p, true
		}
	}
	for _, p := range paths {
		if fileStem(p) == stem {
			return p, true
		}
	}
	if stem != "" {
		for _, p := range paths {
			s := fileStem(p)
			if s != "" && (strings.Contains(s, stem) || strings.Contains(stem, s)) && sameKindExt(p, ext) {
				return p, true
			}
		}
	}

	best, bestDist := "", maxNameDistance+1
	for _, p := range paths {
		if !sameKindExt(p, ext) {
			continue
		}
		s := fileStem(p)
		if !fuzzy.MatchFold(stem, s) && !fuzzy.MatchFold(s, stem) {
			continue
		}
		if d := levenshtein.ComputeDistance(stem, s); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, best != ""
}

func fileStem(p string) string {
	b := path.Base(p)
	return strings.ToLower(strings.TrimSuffix(b, path.Ext(b)))
}

func sameKindExt(p, ext string) bool {
	return ext == "" || strings.ToLower(path.Ext(p)) == ext
}
