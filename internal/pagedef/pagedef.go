// Package pagedef loads declarative page definitions: the form of a page,
// its dependent-field and filter rules, lookup candidates, and the modal
// fragments its links open.
package pagedef

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoYAML []byte

// ErrUnknownField is returned when a rule names a field the page lacks.
var ErrUnknownField = errors.New("unknown field")

// Definition describes one page.
type Definition struct {
	// Class is the entity class of the page form; rules default to it.
	Class  string `yaml:"class"`
	Title  string `yaml:"title"`
	Action string `yaml:"action,omitempty"`

	// Fields are used when the page has no tabs.
	Fields []Field `yaml:"fields,omitempty"`
	Tabs   []Tab   `yaml:"tabs,omitempty"`

	Rules   Rules                  `yaml:"rules,omitempty"`
	Lookups map[string][]Candidate `yaml:"lookups,omitempty"`
	Links   []Link                 `yaml:"links,omitempty"`
}

// Tab is one tab pane.
type Tab struct {
	Label  string  `yaml:"label"`
	Fields []Field `yaml:"fields"`
}

// Field is one field box.
type Field struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label,omitempty"`
	Kind     string   `yaml:"kind,omitempty"`
	Value    *string  `yaml:"value,omitempty"`
	Options  []Option `yaml:"options,omitempty"`
	Classes  []string `yaml:"classes,omitempty"`
	Required bool     `yaml:"required,omitempty"`
	Hidden   bool     `yaml:"hidden,omitempty"`
}

// Option is a select or radio choice. A bare scalar sets both the value and
// the label.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label,omitempty"`
}

// UnmarshalYAML accepts either a scalar or a mapping.
func (o *Option) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		o.Value, o.Label = n.Value, n.Value
		return nil
	}
	type plain Option
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*o = Option(p)
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// Rules groups the page rules.
type Rules struct {
	Visibility []VisibilityRule `yaml:"visibility,omitempty"`
	Filters    []FilterRule     `yaml:"filters,omitempty"`
}

// VisibilityRule shows Child based on Parent. Exactly one of ShowIf,
// ShowIfIn and ShowIfNonEmpty is set.
type VisibilityRule struct {
	Class          string   `yaml:"class,omitempty"`
	Parent         string   `yaml:"parent"`
	Child          string   `yaml:"child"`
	ShowIf         *string  `yaml:"show_if,omitempty"`
	ShowIfIn       []string `yaml:"show_if_in,omitempty"`
	ShowIfNonEmpty bool     `yaml:"show_if_nonempty,omitempty"`
	ClearChildData bool     `yaml:"clear_child_data,omitempty"`
}

// FilterRule narrows the lookup of Child by Parent.
type FilterRule struct {
	Class          string `yaml:"class,omitempty"`
	Parent         string `yaml:"parent"`
	Child          string `yaml:"child"`
	Property       string `yaml:"property"`
	ParentRequired bool   `yaml:"parent_required,omitempty"`
}

// Candidate is a lookup record.
type Candidate struct {
	ID         string            `yaml:"id"`
	Label      string            `yaml:"label"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// Link is a page link that opens a modal. HTML is the fragment the console
// receives for URL, served with Status (200 when zero).
type Link struct {
	Label  string `yaml:"label"`
	URL    string `yaml:"url"`
	Status int    `yaml:"status,omitempty"`
	HTML   string `yaml:"html,omitempty"`
}

// Parse decodes and validates a definition.
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode page definition: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads a definition from path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page definition: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Demo returns the built-in product page.
func Demo() *Definition {
	d, err := Parse(demoYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded demo page: %v", err))
	}
	return d
}

// AllFields returns the fields of every tab in order.
func (d *Definition) AllFields() []Field {
	out := append([]Field(nil), d.Fields...)
	for _, t := range d.Tabs {
		out = append(out, t.Fields...)
	}
	return out
}

// Link returns the link for url.
func (d *Definition) Link(url string) (Link, bool) {
	for _, l := range d.Links {
		if l.URL == url {
			return l, true
		}
	}
	return Link{}, false
}

// Validate checks that the definition is usable: a class, unique field
// ids, known kinds, and rules that name fields of the page.
func (d *Definition) Validate() error {
	if d.Class == "" {
		return errors.New("page definition has no class")
	}
	if len(d.Fields) > 0 && len(d.Tabs) > 0 {
		return errors.New("page definition has both fields and tabs")
	}

	ids := make(map[string]bool)
	for _, f := range d.AllFields() {
		if f.ID == "" {
			return errors.New("field without id")
		}
		if ids[f.ID] {
			return fmt.Errorf("duplicate field %q", f.ID)
		}
		ids[f.ID] = true
		if _, ok := kinds[f.Kind]; !ok {
			return fmt.Errorf("field %q: unknown kind %q", f.ID, f.Kind)
		}
	}

	known := func(locator string) bool {
		if len(locator) > 1 && locator[0] == '#' {
			return ids[locator[1:]]
		}
		return ids[locator]
	}
	for i, r := range d.Rules.Visibility {
		if !known(r.Parent) {
			return fmt.Errorf("visibility rule %d: parent %q: %w", i, r.Parent, ErrUnknownField)
		}
		if !known(r.Child) {
			return fmt.Errorf("visibility rule %d: child %q: %w", i, r.Child, ErrUnknownField)
		}
		if _, err := r.predicate(); err != nil {
			return fmt.Errorf("visibility rule %d: %w", i, err)
		}
	}
	for i, r := range d.Rules.Filters {
		if !known(r.Parent) {
			return fmt.Errorf("filter rule %d: parent %q: %w", i, r.Parent, ErrUnknownField)
		}
		if !ids[r.Child] {
			return fmt.Errorf("filter rule %d: child %q: %w", i, r.Child, ErrUnknownField)
		}
	}
	return nil
}
