package analysis

import (
	"fmt"
	"strings"
)

// Complexity is the tier a request is classified into. It drives model
// choice, context size and directive-count expectations.
type Complexity string

const (
	Trivial  Complexity = "trivial"
	Simple   Complexity = "simple"
	Moderate Complexity = "moderate"
	Complex  Complexity = "complex"
)

// Tiers lists every complexity in increasing order.
var Tiers = []Complexity{Trivial, Simple, Moderate, Complex}

// IntentType tells whether a request is a quick edit or needs full generation.
type IntentType string

const (
	QuickModification IntentType = "quick_modification"
	FullGeneration    IntentType = "full_generation"
)

// Rank returns the position of c in Tiers, or -1 for an unknown value.
func (c Complexity) Rank() int {
	for i, t := range Tiers {
		if t == c {
			return i
		}
	}
	return -1
}

// IsQuick reports whether c belongs to the two lowest tiers.
func (c Complexity) IsQuick() bool {
	return c == Trivial || c == Simple
}

func (c Complexity) String() string {
	return string(c)
}

// ParseComplexity accepts a tier name in any case.
func ParseComplexity(s string) (Complexity, error) {
	c := Complexity(strings.ToLower(strings.TrimSpace(s)))
	if c.Rank() < 0 {
		return "", fmt.Errorf("unknown complexity %q", s)
	}
	return c, nil
}
