package lifecycle

import (
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
)

// Widget names recorded on activated fields.
const (
	WidgetRichText    = "redactor"
	WidgetAutosize    = "autosize"
	WidgetColorPicker = "color-picker"
)

// Activator turns on a third-party widget for every field carrying its
// marker class. The widget itself is opaque; the engine only records the
// activation and its options on the field.
type Activator interface {
	Class() string
	Activate(c *form.Container, f *field.Field)
}

type optionsActivator struct {
	class string
	opts  map[string]any
}

func (a optionsActivator) Class() string { return a.class }

func (a optionsActivator) Activate(_ *form.Container, f *field.Field) {
	f.Activate(a.class, a.opts)
}

// RichText activates the rich-text editor.
func RichText() Activator {
	return optionsActivator{class: WidgetRichText, opts: map[string]any{
		"plugins":      []string{"selectasset", "fontfamily", "fontcolor", "fontsize", "video", "table"},
		"replaceDivs":  false,
		"buttonSource": true,
		"paragraphize": false,
		"minHeight":    140,
		"tabKey":       true,
		"tabsAsSpaces": 4,
		"deniedTags":   []string{},
	}}
}

// Autosize activates auto-growing textareas.
func Autosize() Activator {
	return optionsActivator{class: WidgetAutosize, opts: map[string]any{}}
}

// ColorPicker keeps the picker color and the field's value input in step in
// both directions.
type ColorPicker struct{}

func (ColorPicker) Class() string { return WidgetColorPicker }

func (ColorPicker) Activate(c *form.Container, f *field.Field) {
	opts := map[string]any{
		"showButtons":     false,
		"preferredFormat": "hex6",
		"color":           field.ExtractValue(f).String(),
	}
	f.Activate(WidgetColorPicker, opts)
	unsubscribe := f.Subscribe(func(f *field.Field) {
		opts["color"] = field.ExtractValue(f).String()
	})
	c.OnReset(unsubscribe)
}

// PickColor is the picker's change/move callback: it writes the color into
// the field's value input.
func PickColor(f *field.Field, color string) {
	if opts, ok := f.Widget(WidgetColorPicker); ok {
		opts["color"] = color
	}
	f.Type(color)
}

// DefaultActivators returns the rich-text, autosize and color-picker
// activators.
func DefaultActivators() []Activator {
	return []Activator{RichText(), Autosize(), ColorPicker{}}
}
