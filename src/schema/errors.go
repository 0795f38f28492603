package schema

import (
	"fmt"
	"strings"
)

// Violation is one failed field rule. A single bad payload can carry
// several of them; validation never stops at the first.
type Violation struct {
	Field string
	Rule  string
	Value string
}

func (v Violation) String() string {
	if v.Value == "" {
		return fmt.Sprintf("%s: %s", v.Field, v.Rule)
	}
	return fmt.Sprintf("%s: %s (got %q)", v.Field, v.Rule, v.Value)
}

// ValidationError enumerates every violated rule for one payload.
type ValidationError struct {
	Kind       string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("invalid %s message: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, rule string) {
	e.Violations = append(e.Violations, Violation{Field: field, Rule: rule})
}

func (e *ValidationError) addValue(field, rule, value string) {
	e.Violations = append(e.Violations, Violation{Field: field, Rule: rule, Value: value})
}

// orNil returns the error only when at least one rule failed, typed as
// a plain error so callers can compare against nil directly.
func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
