// Package form holds rendered form containers: the unit that field
// initialization and dependent field rules operate on.
package form

import (
	"slices"

	"github.com/marcus/adminui/pkg/console/field"
)

// Container is a rendered region holding field boxes, such as a page body, a
// modal body or one tab pane of an entity form.
type Container struct {
	// Class is the entity class name of the enclosing form.
	Class string
	Name  string

	fields      []*field.Field
	hidden      bool
	parent      field.Visibility
	initialized bool
	cleanups    []func()
}

// New creates a container for the given entity class.
func New(class, name string, fields ...*field.Field) *Container {
	c := &Container{Class: class, Name: name}
	for _, f := range fields {
		c.Add(f)
	}
	return c
}

// Add appends a field box and makes the container its owner.
func (c *Container) Add(f *field.Field) {
	f.SetOwner(c)
	c.fields = append(c.fields, f)
}

// Fields returns the field boxes in document order.
func (c *Container) Fields() []*field.Field {
	return slices.Clone(c.fields)
}

// Find returns the first field matching the locator, or nil.
func (c *Container) Find(locator string) *field.Field {
	for _, f := range c.fields {
		if f.Matches(locator) {
			return f
		}
	}
	return nil
}

// WithClass returns the fields carrying a marker class.
func (c *Container) WithClass(class string) []*field.Field {
	var out []*field.Field
	for _, f := range c.fields {
		if f.HasClass(class) {
			out = append(out, f)
		}
	}
	return out
}

// VisibleFields returns the fields currently shown.
func (c *Container) VisibleFields() []*field.Field {
	var out []*field.Field
	for _, f := range c.fields {
		if f.Visible() {
			out = append(out, f)
		}
	}
	return out
}

// SetParent attaches the container to whatever can hide it (a tab set).
func (c *Container) SetParent(p field.Visibility) { c.parent = p }

// SetVisible shows or hides the whole container.
func (c *Container) SetVisible(v bool) { c.hidden = !v }

// Visible implements field.Visibility.
func (c *Container) Visible() bool {
	if c == nil || c.hidden {
		return false
	}
	return c.parent == nil || c.parent.Visible()
}

// Initialized reports whether field initialization already ran.
func (c *Container) Initialized() bool { return c.initialized }

// MarkInitialized flips the container to initialized.
func (c *Container) MarkInitialized() { c.initialized = true }

// OnReset registers a cleanup run by Reset, typically an unsubscribe.
func (c *Container) OnReset(fn func()) {
	c.cleanups = append(c.cleanups, fn)
}

// Reset makes the container eligible for initialization again and drops the
// bindings made by the previous initialization.
func (c *Container) Reset() {
	for _, fn := range c.cleanups {
		fn()
	}
	c.cleanups = nil
	c.initialized = false
}
