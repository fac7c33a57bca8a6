// Package field models one form field box: the inputs it holds, whether it
// is shown, and the subscribers told when its value changes.
//
// A field box may carry any combination of a radio group, a select list, a
// text input, a hidden "value" input and a foreign-key lookup. Reads and
// writes go through ExtractValue and SetValue so every kind of box behaves
// the same to the dependent field rules.
package field

import (
	"slices"
	"strings"
)

// Kind describes the primary input of a field box. It only drives rendering;
// value extraction looks at every input the box holds.
type Kind string

const (
	KindText       Kind = "text"
	KindTextarea   Kind = "textarea"
	KindSelect     Kind = "select"
	KindRadio      Kind = "radio"
	KindHidden     Kind = "hidden"
	KindForeignKey Kind = "foreign-key"
	KindColor      Kind = "color"
)

// Option is one entry of a select list or radio group.
type Option struct {
	Value string
	Label string
}

// Visibility is implemented by anything that can hide the fields it owns,
// such as a form container or a tab pane.
type Visibility interface {
	Visible() bool
}

// Subscriber is notified after a field's value changes.
type Subscriber func(f *Field)

type subscription struct {
	id int
	fn Subscriber
}

// ForeignKey holds the lookup state of a foreign-key field box.
type ForeignKey struct {
	Display      string
	NoneSelected string
	// OnClear runs after the lookup has been reset by SetValue(f, Null).
	OnClear func(f *Field)
}

// Field is a single field box.
type Field struct {
	ID      string
	Name    string
	Label   string
	Kind    Kind
	Classes []string

	radios  []Option
	checked int // index into radios, -1 when nothing is checked

	options  []Option
	selected Value
	hasSel   bool

	text    Value
	hasText bool

	hidden    Value
	hasHidden bool

	fk *ForeignKey

	visible bool
	owner   Visibility

	widgets map[string]map[string]any

	subs      []subscription
	nextSub   int
	notifying bool
}

// FieldOption configures a Field at construction.
type FieldOption func(*Field)

// New creates a visible field box with the given id.
func New(id string, opts ...FieldOption) *Field {
	f := &Field{
		ID:      id,
		Name:    id,
		Kind:    KindText,
		checked: -1,
		visible: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithLabel sets the display label.
func WithLabel(label string) FieldOption {
	return func(f *Field) { f.Label = label }
}

// WithName sets the submitted name when it differs from the id.
func WithName(name string) FieldOption {
	return func(f *Field) { f.Name = name }
}

// WithClasses adds marker classes used to match widget activators.
func WithClasses(classes ...string) FieldOption {
	return func(f *Field) { f.Classes = append(f.Classes, classes...) }
}

// WithRadios adds a radio group. checked may be "" for no selection.
func WithRadios(checked string, options ...Option) FieldOption {
	return func(f *Field) {
		f.Kind = KindRadio
		f.radios = append(f.radios, options...)
		f.checked = -1
		for i, o := range f.radios {
			if checked != "" && o.Value == checked {
				f.checked = i
			}
		}
	}
}

// WithSelect adds a select list with an initial selection.
func WithSelect(selected Value, options ...Option) FieldOption {
	return func(f *Field) {
		f.Kind = KindSelect
		f.hasSel = true
		f.options = append(f.options, options...)
		f.selected = f.matchOption(selected)
	}
}

// WithText adds a text input holding initial.
func WithText(initial string) FieldOption {
	return func(f *Field) {
		if f.Kind == "" || f.Kind == KindText {
			f.Kind = KindText
		}
		f.hasText = true
		f.text = Some(initial)
	}
}

// WithTextarea adds a multi-line text input.
func WithTextarea(initial string) FieldOption {
	return func(f *Field) {
		f.Kind = KindTextarea
		f.hasText = true
		f.text = Some(initial)
	}
}

// WithHiddenValue adds a hidden "value" input.
func WithHiddenValue(v Value) FieldOption {
	return func(f *Field) {
		if f.Kind == KindText && !f.hasText {
			f.Kind = KindHidden
		}
		f.hasHidden = true
		f.hidden = v
	}
}

// WithForeignKey turns the box into a foreign-key lookup. The stored id lives
// in the hidden value input.
func WithForeignKey(fk ForeignKey, id Value) FieldOption {
	return func(f *Field) {
		f.Kind = KindForeignKey
		fkCopy := fk
		f.fk = &fkCopy
		f.hasHidden = true
		f.hidden = id
	}
}

// WithKind overrides the rendering kind.
func WithKind(kind Kind) FieldOption {
	return func(f *Field) { f.Kind = kind }
}

// WithHidden starts the field box hidden.
func WithHidden() FieldOption {
	return func(f *Field) { f.visible = false }
}

// SetOwner attaches the field to the container that can hide it.
func (f *Field) SetOwner(owner Visibility) {
	f.owner = owner
}

// HasClass reports whether the field carries the marker class.
func (f *Field) HasClass(class string) bool {
	return slices.Contains(f.Classes, class)
}

// Matches reports whether the locator addresses this field. "#id" matches
// the id, ".class" a marker class, anything else the submitted name.
func (f *Field) Matches(locator string) bool {
	switch {
	case strings.HasPrefix(locator, "#"):
		return f.ID == locator[1:]
	case strings.HasPrefix(locator, "."):
		return f.HasClass(locator[1:])
	default:
		return f.Name == locator || f.ID == locator
	}
}

// Visible reports whether the box is shown and its owner is shown.
func (f *Field) Visible() bool {
	if !f.visible {
		return false
	}
	return f.owner == nil || f.owner.Visible()
}

// Shown reports whether the box itself is shown, ignoring its owner. A
// field on an inactive tab pane is shown but not visible.
func (f *Field) Shown() bool { return f.visible }

// Toggle shows or hides the box. It does not fire a change.
func (f *Field) Toggle(show bool) {
	f.visible = show
}

// Radios returns the radio options.
func (f *Field) Radios() []Option { return slices.Clone(f.radios) }

// Options returns the select options.
func (f *Field) Options() []Option { return slices.Clone(f.options) }

// ForeignKey returns the lookup state, or nil for non foreign-key boxes.
func (f *Field) ForeignKey() *ForeignKey { return f.fk }

// Text returns the text input value and whether the box has a text input.
func (f *Field) Text() (string, bool) { return f.text.String(), f.hasText }

// HiddenValue returns the hidden input value and whether the box has one.
func (f *Field) HiddenValue() (Value, bool) { return f.hidden, f.hasHidden }

// CheckedRadio returns the checked radio value or Null.
func (f *Field) CheckedRadio() Value {
	if f.checked < 0 || f.checked >= len(f.radios) {
		return Null
	}
	return Some(f.radios[f.checked].Value)
}

// SelectedOption returns the selected option value or Null when the box has
// no select list or nothing is selected.
func (f *Field) SelectedOption() Value {
	if !f.hasSel {
		return Null
	}
	return f.selected
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (f *Field) Subscribe(fn Subscriber) func() {
	f.nextSub++
	id := f.nextSub
	f.subs = append(f.subs, subscription{id: id, fn: fn})
	return func() {
		f.subs = slices.DeleteFunc(f.subs, func(s subscription) bool { return s.id == id })
	}
}

// Subscribers returns the number of registered subscribers.
func (f *Field) Subscribers() int { return len(f.subs) }

// Change notifies subscribers in registration order. A field that is already
// notifying does not notify again.
func (f *Field) Change() {
	if f.notifying {
		return
	}
	f.notifying = true
	defer func() { f.notifying = false }()
	for _, s := range slices.Clone(f.subs) {
		s.fn(f)
	}
}

// CheckRadio is user input on the radio group.
func (f *Field) CheckRadio(value string) {
	if f.checkRadio(value) {
		f.Change()
	}
}

// Choose is user input on the select list.
func (f *Field) Choose(value string) {
	f.selected = f.matchOption(Some(value))
	f.Change()
}

// Type is user input on the text input.
func (f *Field) Type(value string) {
	f.text = Some(value)
	f.Change()
}

// SelectForeignKey stores a looked-up id and its display text.
func (f *Field) SelectForeignKey(id, display string) {
	if f.fk != nil {
		f.fk.Display = display
	}
	f.hidden = Some(id)
	f.Change()
}

// Activate records a widget activation with its options.
func (f *Field) Activate(widget string, opts map[string]any) {
	if f.widgets == nil {
		f.widgets = make(map[string]map[string]any)
	}
	f.widgets[widget] = opts
}

// Widget returns the options a widget was activated with.
func (f *Field) Widget(widget string) (map[string]any, bool) {
	opts, ok := f.widgets[widget]
	return opts, ok
}

func (f *Field) checkRadio(value string) bool {
	for i, o := range f.radios {
		if o.Value == value {
			f.checked = i
			return true
		}
	}
	return false
}

// matchOption mirrors a select list: a value without a matching option
// leaves nothing selected.
func (f *Field) matchOption(v Value) Value {
	if !v.Valid() {
		return Null
	}
	for _, o := range f.options {
		if o.Value == v.String() {
			return v
		}
	}
	return Null
}
