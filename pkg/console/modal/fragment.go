package modal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
)

// ErrEmptyFragment is returned when a response holds no element to show.
var ErrEmptyFragment = errors.New("fragment has no root element")

// entityClassInput is the hidden input naming the entity class of a form.
const entityClassInput = "ceilingEntityClassname"

var fragmentPolicy = newFragmentPolicy()

func newFragmentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("form", "input", "select", "option", "textarea", "button",
		"label", "span", "div", "dl", "dt", "dd", "ul", "li", "h3", "p", "i", "img")
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("name", "type", "value", "checked", "selected", "action", "method").
		OnElements("form", "input", "select", "option", "textarea", "button")
	// Form markup often comes bare; bluemonday drops attribute-less tags
	// outside its own list.
	p.AllowNoAttrs().OnElements("form", "select", "option", "textarea", "button", "label")
	return p
}

// Sanitize strips scripts, handlers and unknown markup from a server
// fragment while keeping the form structure the modal understands.
func Sanitize(fragment string) string {
	return fragmentPolicy.Sanitize(fragment)
}

// RootCount returns the number of top-level nodes of a trimmed fragment:
// elements plus non-blank text runs.
func RootCount(fragment string) (int, error) {
	roots, err := parseRoots(strings.TrimSpace(fragment))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range roots {
		switch r.Type {
		case html.ElementNode:
			n++
		case html.TextNode:
			if strings.TrimSpace(r.Data) != "" {
				n++
			}
		}
	}
	return n, nil
}

// ParseFragment turns a server fragment into modal content. The first root
// element is the modal wrapper; its header, body and footer sections are
// used when present, otherwise the whole element is the body.
func ParseFragment(fragment string) (*Content, error) {
	roots, err := parseRoots(Sanitize(strings.TrimSpace(fragment)))
	if err != nil {
		return nil, err
	}
	var root *html.Node
	for _, r := range roots {
		if r.Type == html.ElementNode {
			root = r
			break
		}
	}
	if root == nil {
		return nil, ErrEmptyFragment
	}

	c := &Content{}
	header := findFirst(root, byClass("modal-header"))
	body := findFirst(root, byClass("modal-body"))
	footer := findFirst(root, byClass("modal-footer"))
	if body == nil {
		body = root
	}

	if h := findFirst(orNode(header, root), byTag(atom.H3)); h != nil {
		c.Title = textContent(h)
	}

	for _, dl := range findAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Dl && hasClass(n, "tabs") }) {
		for _, dd := range findAll(dl, byTag(atom.Dd)) {
			c.Tabs = append(c.Tabs, textContent(dd))
		}
	}

	if actions := findFirst(body, byClass("entity-form-actions")); actions != nil {
		c.Actions = buttons(actions)
	}
	if footer != nil {
		c.Buttons = buttons(footer)
	}

	if f := findFirst(body, byTag(atom.Form)); f != nil {
		c.Form, c.Panes = buildForm(f, c.Tabs)
	}

	for _, p := range findAll(body, byTag(atom.P)) {
		if t := textContent(p); t != "" {
			c.Body = append(c.Body, t)
		}
	}
	if len(c.Body) == 0 && c.Form == nil && c.Title == "" {
		if t := textContent(body); t != "" {
			c.Body = []string{t}
		}
	}
	return c, nil
}

func parseRoots(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	roots, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return roots, nil
}

func buttons(n *html.Node) []Button {
	var out []Button
	for _, b := range findAll(n, byTag(atom.Button)) {
		action := attr(b, "name")
		if action == "" {
			action = attr(b, "value")
		}
		out = append(out, Button{
			Label:  textContent(b),
			Action: action,
			Submit: attr(b, "type") == "submit" || hasClass(b, "submit-button"),
		})
	}
	return out
}

// buildForm reads the field boxes of a form. Tabbed forms yield one
// container per tab pane, sharing the form's entity class.
func buildForm(f *html.Node, labels []string) (*form.Container, *form.Tabs) {
	class := ""
	for _, in := range findAll(f, byTag(atom.Input)) {
		if attr(in, "name") == entityClassInput {
			class = attr(in, "value")
			break
		}
	}

	whole := form.New(class, attr(f, "action"))
	var panes []*form.Container
	if ul := findFirst(f, func(n *html.Node) bool { return n.DataAtom == atom.Ul && hasClass(n, "tabs-content") }); ul != nil {
		for li := ul.FirstChild; li != nil; li = li.NextSibling {
			if li.DataAtom != atom.Li {
				continue
			}
			name := ""
			if i := len(panes); i < len(labels) {
				name = labels[i]
			}
			pane := form.New(class, name)
			for _, box := range findAll(li, byClass("field-box")) {
				pane.Add(buildField(box))
			}
			panes = append(panes, pane)
		}
	}

	if len(panes) == 0 {
		for _, box := range findAll(f, byClass("field-box")) {
			whole.Add(buildField(box))
		}
		return whole, nil
	}
	for _, p := range panes {
		for _, fld := range p.Fields() {
			whole.Add(fld)
		}
	}
	tabs := form.NewTabs(labels, panes)
	// Fields stay owned by their pane so hiding a tab hides them.
	for _, p := range panes {
		for _, fld := range p.Fields() {
			fld.SetOwner(p)
		}
	}
	return whole, tabs
}

func buildField(box *html.Node) *field.Field {
	id := attr(box, "id")
	var opts []field.FieldOption
	if l := findFirst(box, byTag(atom.Label)); l != nil {
		opts = append(opts, field.WithLabel(textContent(l)))
	}

	// name is the submitted name of the first named input of the box.
	name := ""
	var radios []field.Option
	checked := ""
	for _, in := range findAll(box, byTag(atom.Input)) {
		if attr(in, "type") != "radio" {
			continue
		}
		v := attr(in, "value")
		radios = append(radios, field.Option{Value: v, Label: v})
		if hasAttr(in, "checked") {
			checked = v
		}
		name = orString(name, attr(in, "name"))
	}
	if len(radios) > 0 {
		opts = append(opts, field.WithRadios(checked, radios...))
	}

	if sel := findFirst(box, byTag(atom.Select)); sel != nil {
		var options []field.Option
		selected := field.Null
		name = orString(name, attr(sel, "name"))
		for _, o := range findAll(sel, byTag(atom.Option)) {
			v := optionValue(o)
			options = append(options, field.Option{Value: v, Label: textContent(o)})
			if hasAttr(o, "selected") || (!selected.Valid() && len(options) == 1) {
				selected = field.Some(v)
			}
		}
		opts = append(opts, field.WithSelect(selected, options...))
	}

	for _, in := range findAll(box, byTag(atom.Input)) {
		if attr(in, "type") == "text" {
			opts = append(opts, field.WithText(attr(in, "value")))
			name = orString(name, attr(in, "name"))
			opts = append(opts, classOptions(in)...)
			if hasClass(in, "color-picker") {
				opts = append(opts, field.WithKind(field.KindColor))
			}
			break
		}
	}
	if ta := findFirst(box, byTag(atom.Textarea)); ta != nil {
		opts = append(opts, field.WithTextarea(textContent(ta)))
		name = orString(name, attr(ta, "name"))
		opts = append(opts, classOptions(ta)...)
	}

	hidden := field.Null
	hasHidden := false
	for _, in := range findAll(box, byTag(atom.Input)) {
		if attr(in, "type") == "hidden" && hasClass(in, "value") {
			hidden, hasHidden = field.Some(attr(in, "value")), true
			name = orString(name, attr(in, "name"))
			break
		}
	}

	if fk := findFirst(box, byClass("foreign-key-value-container")); fk != nil {
		lookup := field.ForeignKey{}
		if d := findFirst(fk, byClass("display-value")); d != nil {
			lookup.Display = textContent(d)
		}
		if d := findFirst(fk, byClass("display-value-none-selected")); d != nil {
			lookup.NoneSelected = textContent(d)
		}
		if hidden.Valid() && hidden.String() == "" {
			hidden = field.Null
		}
		opts = append(opts, field.WithForeignKey(lookup, hidden))
	} else if hasHidden {
		opts = append(opts, field.WithHiddenValue(hidden))
	}

	if name != "" {
		opts = append(opts, field.WithName(name))
	}
	if hasClass(box, "hidden") {
		opts = append(opts, field.WithHidden())
	}
	return field.New(id, opts...)
}

// optionValue is the value attribute of an option, or its text when the
// attribute is missing.
func optionValue(o *html.Node) string {
	if hasAttr(o, "value") {
		return attr(o, "value")
	}
	return textContent(o)
}

func orString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func classOptions(n *html.Node) []field.FieldOption {
	classes := strings.Fields(attr(n, "class"))
	if len(classes) == 0 {
		return nil
	}
	return []field.FieldOption{field.WithClasses(classes...)}
}

func orNode(a, b *html.Node) *html.Node {
	if a != nil {
		return a
	}
	return b
}

func byTag(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && hasClass(n, class) }
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
