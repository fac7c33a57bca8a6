// Package lookup is the foreign-key picker. It narrows the candidate records
// of a child lookup by the value of the parent field named in the page's
// filter rules, then ranks what is left against the typed query.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sahilm/fuzzy"

	"github.com/marcus/adminui/pkg/console/depend"
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
)

var (
	// ErrParentRequired is returned when the filter rule requires a parent
	// value and the parent is empty.
	ErrParentRequired = errors.New("parent field has no value")
	// ErrUnknownChild is returned when the container has no field by the
	// requested name.
	ErrUnknownChild = errors.New("no such lookup field")
)

// Candidate is one record a foreign key can point to.
type Candidate struct {
	ID         string
	Label      string
	Properties map[string]string
}

// Source lists the candidates of a child lookup.
type Source interface {
	Candidates(ctx context.Context, childFieldName string) ([]Candidate, error)
}

// StaticSource serves candidates from memory, keyed by child field name.
type StaticSource map[string][]Candidate

// Candidates implements Source.
func (s StaticSource) Candidates(_ context.Context, childFieldName string) ([]Candidate, error) {
	return s[childFieldName], nil
}

// Rules resolves the filter rule of a lookup.
type Rules interface {
	FilterRuleFor(containerClass, childFieldName string) (depend.FilterRule, bool)
}

// Lookup searches candidates for a foreign-key field.
type Lookup struct {
	rules  Rules
	source Source
	logger *slog.Logger
}

// New creates a lookup over source filtered by rules.
func New(rules Rules, source Source, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{rules: rules, source: source, logger: logger}
}

// Result is a ranked candidate.
type Result struct {
	Candidate
	// Matched holds the rune indexes of Label that matched the query.
	Matched []int
}

// Search returns the candidates for the child field of c. When a filter
// rule exists for the container's class, only candidates whose rule
// property equals the parent's value are kept. A blank query keeps the
// source order.
func (l *Lookup) Search(ctx context.Context, c *form.Container, childFieldName, query string) ([]Result, error) {
	if c == nil || (c.Find("#"+childFieldName) == nil && c.Find(childFieldName) == nil) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChild, childFieldName)
	}

	all, err := l.source.Candidates(ctx, childFieldName)
	if err != nil {
		return nil, fmt.Errorf("list candidates for %s: %w", childFieldName, err)
	}

	if rule, ok := l.rules.FilterRuleFor(c.Class, childFieldName); ok {
		parent := field.ExtractValue(c.Find(rule.Parent))
		switch {
		case !parent.IsEmpty():
			all = narrow(all, rule.ChildPropertyName, parent.String())
		case rule.Options.ParentFieldRequired:
			return nil, fmt.Errorf("%w: %s", ErrParentRequired, rule.Parent)
		}
		l.logger.Debug("lookup filtered", "child", childFieldName, "parent", rule.Parent, "value", parent, "candidates", len(all))
	}

	if query == "" {
		out := make([]Result, len(all))
		for i, cand := range all {
			out[i] = Result{Candidate: cand}
		}
		return out, nil
	}

	matches := fuzzy.FindFrom(query, labels(all))
	out := make([]Result, len(matches))
	for i, m := range matches {
		out[i] = Result{Candidate: all[m.Index], Matched: m.MatchedIndexes}
	}
	return out, nil
}

// Select stores cand in the foreign-key field f and fires its change.
func Select(f *field.Field, cand Candidate) {
	f.SelectForeignKey(cand.ID, cand.Label)
}

func narrow(all []Candidate, property, value string) []Candidate {
	var out []Candidate
	for _, c := range all {
		if c.Properties[property] == value {
			out = append(out, c)
		}
	}
	return out
}

type labels []Candidate

func (l labels) String(i int) string { return l[i].Label }
func (l labels) Len() int            { return len(l) }
