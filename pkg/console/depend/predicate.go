package depend

import (
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
)

type predicateKind int

const (
	predicateLiteral predicateKind = iota
	predicateFunc
)

// Predicate decides whether a child field is shown for a parent value. It is
// either a literal compared by equality or a function of the parent value
// and the container.
type Predicate struct {
	kind    predicateKind
	literal string
	fn      func(v field.Value, c *form.Container) bool
}

// Literal shows the child when the parent value equals s.
func Literal(s string) Predicate {
	return Predicate{kind: predicateLiteral, literal: s}
}

// Func shows the child when fn returns true.
func Func(fn func(v field.Value, c *form.Container) bool) Predicate {
	return Predicate{kind: predicateFunc, fn: fn}
}

// NonEmpty shows the child when the parent has a non-empty value.
func NonEmpty() Predicate {
	return Func(func(v field.Value, _ *form.Container) bool { return !v.IsEmpty() })
}

// OneOf shows the child when the parent value is any of values.
func OneOf(values ...string) Predicate {
	return Func(func(v field.Value, _ *form.Container) bool {
		if !v.Valid() {
			return false
		}
		for _, s := range values {
			if v.String() == s {
				return true
			}
		}
		return false
	})
}

// Eval applies the predicate. A Null parent never equals a literal.
func (p Predicate) Eval(v field.Value, c *form.Container) bool {
	switch p.kind {
	case predicateFunc:
		if p.fn == nil {
			return false
		}
		return p.fn(v, c)
	default:
		return v.Valid() && v.String() == p.literal
	}
}

// String describes the predicate for listings.
func (p Predicate) String() string {
	if p.kind == predicateFunc {
		return "func"
	}
	return "= " + p.literal
}
