// Package depend is the dependent field engine: declarative rules that show
// or hide a child field from the value of a parent field, and filter rules
// that narrow a child lookup by the parent's value.
//
// Rules are registered once at page setup. Each visibility rule hooks into
// container initialization: for every container whose form class matches,
// it subscribes to the parent field and evaluates once immediately.
package depend

import (
	"log/slog"
	"strings"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lifecycle"
)

// ChangeAction runs after a visibility rule toggles its child.
type ChangeAction func(parent, child *field.Field, shouldShow bool, parentValue field.Value)

// Options tune a visibility rule.
type Options struct {
	// ClearChildData nulls the child when the parent value becomes null or
	// empty, except during initialization.
	ClearChildData bool
	// AdditionalChangeAction runs after each toggle outside initialization.
	AdditionalChangeAction ChangeAction
	// RunActionOnInitialization also runs the action during initialization.
	RunActionOnInitialization bool
}

// VisibilityRule binds a child field's visibility to a parent field.
type VisibilityRule struct {
	FormClass string
	Parent    string
	Child     string
	Predicate Predicate
	Options   Options
}

// FilterOptions tune a filter rule.
type FilterOptions struct {
	// ParentFieldRequired hides and clears the child lookup while the parent
	// has no value.
	ParentFieldRequired bool
}

// FilterRule tells the lookup component which parent narrows a child lookup
// and which property of the looked-up records the parent value applies to.
type FilterRule struct {
	FormClass         string
	Parent            string
	ChildFieldName    string
	ChildPropertyName string
	Options           FilterOptions
}

// Engine stores the rules of one page.
type Engine struct {
	lc      *lifecycle.Registry
	rules   []VisibilityRule
	filters map[string]FilterRule
	order   []string
	logger  *slog.Logger
}

// New creates an engine that registers its bindings on lc.
func New(lc *lifecycle.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		lc:      lc,
		filters: make(map[string]FilterRule),
		logger:  logger,
	}
}

// RegisterVisibilityRule stores the rule and binds it on every future
// container initialization.
func (e *Engine) RegisterVisibilityRule(formClass, parent, child string, p Predicate, opts Options) {
	rule := VisibilityRule{
		FormClass: formClass,
		Parent:    parent,
		Child:     child,
		Predicate: p,
		Options:   opts,
	}
	e.rules = append(e.rules, rule)
	e.lc.AddInitializationHandler(func(c *form.Container) {
		e.bind(rule, c)
	})
}

// RegisterFilterRule stores a filter binding keyed by form class and child
// field name. With ParentFieldRequired it also registers a visibility rule
// that hides and clears the child while the parent is empty.
func (e *Engine) RegisterFilterRule(formClass, parent, childFieldName, childPropertyName string, opts FilterOptions) {
	key := filterKey(formClass, childFieldName)
	if _, exists := e.filters[key]; !exists {
		e.order = append(e.order, key)
	}
	e.filters[key] = FilterRule{
		FormClass:         formClass,
		Parent:            parent,
		ChildFieldName:    childFieldName,
		ChildPropertyName: childPropertyName,
		Options:           opts,
	}

	if opts.ParentFieldRequired {
		e.RegisterVisibilityRule(formClass, parent, "#"+childFieldName, NonEmpty(), Options{ClearChildData: true})
	}
}

// LookupFilterRule returns the filter binding for the exact form class and
// child field name.
func (e *Engine) LookupFilterRule(formClass, childFieldName string) (FilterRule, bool) {
	r, ok := e.filters[filterKey(formClass, childFieldName)]
	return r, ok
}

// FilterRuleFor finds the filter binding for a container class, accepting
// rules registered under any part of the class name.
func (e *Engine) FilterRuleFor(containerClass, childFieldName string) (FilterRule, bool) {
	if r, ok := e.LookupFilterRule(containerClass, childFieldName); ok {
		return r, true
	}
	for _, key := range e.order {
		r := e.filters[key]
		if r.ChildFieldName == childFieldName && classMatches(containerClass, r.FormClass) {
			return r, true
		}
	}
	return FilterRule{}, false
}

// Rules returns the registered visibility rules in registration order.
func (e *Engine) Rules() []VisibilityRule {
	out := make([]VisibilityRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// FilterRules returns the registered filter rules in registration order.
func (e *Engine) FilterRules() []FilterRule {
	out := make([]FilterRule, 0, len(e.order))
	for _, key := range e.order {
		out = append(out, e.filters[key])
	}
	return out
}

func filterKey(formClass, childFieldName string) string {
	return formClass + "-" + childFieldName
}

func classMatches(containerClass, formClass string) bool {
	return containerClass != "" && strings.Contains(containerClass, formClass)
}

func (e *Engine) bind(rule VisibilityRule, c *form.Container) {
	if !classMatches(c.Class, rule.FormClass) {
		return
	}

	parent := c.Find(rule.Parent)
	if parent != nil {
		unsubscribe := parent.Subscribe(func(*field.Field) {
			e.evaluate(rule, c, parent, false)
		})
		c.OnReset(unsubscribe)
	} else {
		e.logger.Debug("dependent field parent not found", "class", c.Class, "parent", rule.Parent)
	}

	e.evaluate(rule, c, parent, true)
}

// evaluate toggles the child for the parent's current value. A missing or
// hidden parent always hides the child. Tab panes do not count: a parent on
// an inactive tab still drives children on other tabs.
func (e *Engine) evaluate(rule VisibilityRule, c *form.Container, parent *field.Field, initialization bool) {
	child := c.Find(rule.Child)
	value := field.ExtractValue(parent)

	shouldShow := false
	if parent != nil && parent.Shown() {
		shouldShow = rule.Predicate.Eval(value, c)
	}

	if rule.Options.ClearChildData && !initialization && value.IsEmpty() {
		field.SetValue(child, field.Null)
	}

	if child != nil {
		child.Toggle(shouldShow)
	}

	action := rule.Options.AdditionalChangeAction
	if action != nil && (!initialization || rule.Options.RunActionOnInitialization) {
		action(parent, child, shouldShow, value)
	}
}
