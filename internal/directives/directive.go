// Package directives holds the typed edit directives produced by the model and
// the validation and repair applied to them before they touch any file.
package directives

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"quickedit/internal/models"
)

// Kind is the wire tag of a directive.
type Kind string

const (
	KindStyle     Kind = "css"
	KindMarkup    Kind = "html"
	KindComponent Kind = "jsx"
)

var ErrUnknownKind = errors.New("unknown directive type")

var kindAliases = map[string]Kind{
	"css":        KindStyle,
	"stylesheet": KindStyle,
	"scss":       KindStyle,
	"html":       KindMarkup,
	"markup":     KindMarkup,
	"jsx":        KindComponent,
	"tsx":        KindComponent,
	"component":  KindComponent,
}

// ParseKind accepts the canonical tags and their aliases in any case.
func ParseKind(s string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Directive is one edit against one file. The concrete types are StyleEdit,
// MarkupEdit and ComponentEdit.
type Directive interface {
	Kind() Kind
	File() string
	Target() string
	// WithFile returns a copy aimed at another file.
	WithFile(path string) Directive
}

// StyleEdit sets Property to Value inside the rule for Selector.
type StyleEdit struct {
	Path     string
	Selector string
	Property string
	Value    string
}

func (e StyleEdit) Kind() Kind     { return KindStyle }
func (e StyleEdit) File() string   { return e.Path }
func (e StyleEdit) Target() string { return e.Selector }
func (e StyleEdit) WithFile(path string) Directive {
	e.Path = path
	return e
}

// MarkupEdit sets Attribute to Value on the element matching Selector, or
// replaces its inner content with Value when Attribute is empty.
type MarkupEdit struct {
	Path      string
	Selector  string
	Attribute string
	Value     string
}

func (e MarkupEdit) Kind() Kind     { return KindMarkup }
func (e MarkupEdit) File() string   { return e.Path }
func (e MarkupEdit) Target() string { return e.Selector }
func (e MarkupEdit) WithFile(path string) Directive {
	e.Path = path
	return e
}

// ComponentEdit changes attributes, props and style of the first element
// named Component, or replaces its children with Replacement.
type ComponentEdit struct {
	Path        string
	Component   string
	Changes     map[string]any
	Replacement *string
}

func (e ComponentEdit) Kind() Kind     { return KindComponent }
func (e ComponentEdit) File() string   { return e.Path }
func (e ComponentEdit) Target() string { return e.Component }
func (e ComponentEdit) WithFile(path string) Directive {
	e.Path = path
	return e
}

// ChangeKeys returns the change keys in sorted order.
func (e ComponentEdit) ChangeKeys() []string {
	keys := make([]string, 0, len(e.Changes))
	for k := range e.Changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode converts a wire modification to its typed form. Missing fields are
// left empty for Validate to report.
func Decode(m models.Modification) (Directive, error) {
	kind, err := ParseKind(m.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindStyle:
		return StyleEdit{Path: m.File, Selector: m.Target, Property: m.Property, Value: m.Value}, nil
	case KindMarkup:
		return MarkupEdit{Path: m.File, Selector: m.Target, Attribute: m.Attribute, Value: m.Value}, nil
	default:
		e := ComponentEdit{Path: m.File, Component: m.Target, Changes: m.Changes}
		if m.Value != "" {
			v := m.Value
			e.Replacement = &v
		}
		return e, nil
	}
}

// DecodeAll decodes every modification, collecting the ones of unknown type
// as errors instead of failing the batch.
func DecodeAll(ms []models.Modification) ([]Directive, []error) {
	var (
		out  []Directive
		errs []error
	)
	for i, m := range ms {
		d, err := Decode(m)
		if err != nil {
			errs = append(errs, fmt.Errorf("modification %d: %w", i, err))
			continue
		}
		out = append(out, d)
	}
	return out, errs
}

// Encode converts d back to the wire form.
func Encode(d Directive) models.Modification {
	switch e := d.(type) {
	case StyleEdit:
		return models.Modification{Type: string(KindStyle), File: e.Path, Target: e.Selector, Property: e.Property, Value: e.Value}
	case MarkupEdit:
		return models.Modification{Type: string(KindMarkup), File: e.Path, Target: e.Selector, Attribute: e.Attribute, Value: e.Value}
	case ComponentEdit:
		m := models.Modification{Type: string(KindComponent), File: e.Path, Target: e.Component, Changes: e.Changes}
		if e.Replacement != nil {
			m.Value = *e.Replacement
		}
		return m
	default:
		return models.Modification{Type: string(d.Kind()), File: d.File(), Target: d.Target()}
	}
}

// EncodeAll encodes every directive.
func EncodeAll(ds []Directive) []models.Modification {
	out := make([]models.Modification, 0, len(ds))
	for _, d := range ds {
		out = append(out, Encode(d))
	}
	return out
}

// Describe renders a one-line summary of d for logs and affected-file notes.
func Describe(d Directive) string {
	switch e := d.(type) {
	case StyleEdit:
		return fmt.Sprintf("%s { %s: %s }", e.Selector, e.Property, e.Value)
	case MarkupEdit:
		if e.Attribute != "" {
			return fmt.Sprintf("%s [%s=%q]", e.Selector, e.Attribute, e.Value)
		}
		return fmt.Sprintf("%s content", e.Selector)
	case ComponentEdit:
		if e.Replacement != nil {
			return fmt.Sprintf("<%s> children", e.Component)
		}
		return fmt.Sprintf("<%s> %s", e.Component, strings.Join(e.ChangeKeys(), ", "))
	default:
		return d.Target()
	}
}
