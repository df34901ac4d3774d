// Package apply rewrites project files according to edit directives.
package apply

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"quickedit/internal/directives"
)

// ErrTargetNotFound marks a directive whose target could not be located. It
// is a soft failure: the file is left unchanged for that directive.
var ErrTargetNotFound = errors.New("target not found")

// ErrNothingToChange marks a directive that carries no change at all. Like
// ErrTargetNotFound it is a soft failure.
var ErrNothingToChange = errors.New("nothing to change")

// Applier applies one directive to the text of one file.
type Applier interface {
	Apply(content string, d directives.Directive) (string, error)
}

// Failure records a directive that could not be applied.
type Failure struct {
	Index     int
	Directive directives.Directive
	Err       error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Directive.File(), directives.Describe(f.Directive), f.Err)
}

// Result is the outcome of applying a batch. Files is a new map; the input
// map is never modified.
type Result struct {
	Files    map[string]string
	Applied  []directives.Directive
	Failures []Failure
}

// Errors renders every failure as a message.
func (r Result) Errors() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	return out
}

// Changed returns the paths whose content differs from before.
func (r Result) Changed(before map[string]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range r.Applied {
		p := d.File()
		if seen[p] {
			continue
		}
		seen[p] = true
		if before[p] != r.Files[p] {
			out = append(out, p)
		}
	}
	return out
}

// Engine dispatches directives to the applier registered for their kind.
type Engine struct {
	appliers map[directives.Kind]Applier
	log      logrus.FieldLogger
}

// NewEngine returns an engine with the built-in appliers.
func NewEngine(log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		appliers: map[directives.Kind]Applier{
			directives.KindStyle:     StyleApplier{},
			directives.KindMarkup:    MarkupApplier{},
			directives.KindComponent: ComponentApplier{},
		},
		log: log,
	}
}

// Register replaces the applier for kind.
func (e *Engine) Register(kind directives.Kind, a Applier) {
	e.appliers[kind] = a
}

// ApplyAll applies ds in order to a copy of files. Directives on the same
// file see the effect of earlier ones. A failed directive leaves its file as
// it was and does not stop the batch.
func (e *Engine) ApplyAll(files map[string]string, ds []directives.Directive) Result {
	res := Result{Files: make(map[string]string, len(files))}
	for p, c := range files {
		res.Files[p] = c
	}

	for i, d := range ds {
		content, ok := res.Files[d.File()]
		if !ok {
			res.Failures = append(res.Failures, Failure{Index: i, Directive: d, Err: fmt.Errorf("file %s does not exist", d.File())})
			continue
		}
		a, ok := e.appliers[d.Kind()]
		if !ok {
			res.Failures = append(res.Failures, Failure{Index: i, Directive: d, Err: fmt.Errorf("%w: %s", directives.ErrUnknownKind, d.Kind())})
			continue
		}
		updated, err := a.Apply(content, d)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"phase":     "application",
				"file":      d.File(),
				"directive": directives.Encode(d),
			}).WithError(err).Warn("directive not applied")
			res.Failures = append(res.Failures, Failure{Index: i, Directive: d, Err: err})
			continue
		}
		res.Files[d.File()] = updated
		res.Applied = append(res.Applied, d)
	}
	return res
}

var defaultEngine = NewEngine(nil)

// ApplyAll applies ds with the built-in appliers.
func ApplyAll(files map[string]string, ds []directives.Directive) Result {
	return defaultEngine.ApplyAll(files, ds)
}
