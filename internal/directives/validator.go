package directives

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"quickedit/internal/relevance"
)

// Issue ties a message to the directive at Index in the validated batch.
type Issue struct {
	Index     int
	Directive Directive
	Message   string
}

func (i Issue) String() string {
	if i.Directive == nil {
		return i.Message
	}
	return fmt.Sprintf("%s %s: %s", i.Directive.File(), Describe(i.Directive), i.Message)
}

// ValidationResult is the outcome of Validate. Warnings never make a batch
// invalid.
type ValidationResult struct {
	Errors   []Issue
	Warnings []Issue
}

// Valid reports whether no directive has errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Invalid returns the indexes of directives with at least one error.
func (r ValidationResult) Invalid() map[int]bool {
	out := make(map[int]bool, len(r.Errors))
	for _, e := range r.Errors {
		out[e.Index] = true
	}
	return out
}

// Validate checks each directive against the project: the target file must
// exist, kind-specific required fields must be set, and relative imports
// inside component changes should resolve.
func Validate(ds []Directive, files map[string]string) ValidationResult {
	var res ValidationResult
	for i, d := range ds {
		for _, msg := range checkDirective(d, files) {
			res.Errors = append(res.Errors, Issue{Index: i, Directive: d, Message: msg})
		}
		for _, msg := range danglingImports(d, files) {
			res.Warnings = append(res.Warnings, Issue{Index: i, Directive: d, Message: msg})
		}
	}
	return res
}

func checkDirective(d Directive, files map[string]string) []string {
	var errs []string
	if strings.TrimSpace(d.File()) == "" {
		errs = append(errs, "missing file")
	} else if _, ok := files[d.File()]; !ok {
		errs = append(errs, fmt.Sprintf("file %s does not exist", d.File()))
	}
	if strings.TrimSpace(d.Target()) == "" {
		errs = append(errs, "missing target")
	}
	switch e := d.(type) {
	case StyleEdit:
		if strings.TrimSpace(e.Property) == "" {
			errs = append(errs, "missing property")
		}
	case ComponentEdit:
		if e.Changes == nil && e.Replacement == nil {
			errs = append(errs, "missing changes")
		}
	}
	return errs
}

var importSpecRe = regexp.MustCompile(`(?:from\s+|import\s*\(?\s*|require\(\s*)['"](\.{1,2}/[^'"]+)['"]`)

func danglingImports(d Directive, files map[string]string) []string {
	e, ok := d.(ComponentEdit)
	if !ok {
		return nil
	}
	var specs []string
	collectStrings(e.Changes, &specs)
	if e.Replacement != nil {
		specs = append(specs, *e.Replacement)
	}

	var out []string
	seen := make(map[string]bool)
	for _, s := range specs {
		var candidates []string
		for _, m := range importSpecRe.FindAllStringSubmatch(s, -1) {
			candidates = append(candidates, m[1])
		}
		if len(candidates) == 0 && (strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")) && !strings.ContainsAny(s, " \n") {
			candidates = append(candidates, s)
		}
		for _, spec := range candidates {
			if seen[spec] {
				continue
			}
			seen[spec] = true
			if _, ok := relevance.ResolveImport(e.Path, spec, files); !ok {
				out = append(out, fmt.Sprintf("import %s does not resolve to a project file", spec))
			}
		}
	}
	return out
}

func collectStrings(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		*out = append(*out, t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(t[k], out)
		}
	case []any:
		for _, item := range t {
			collectStrings(item, out)
		}
	}
}
