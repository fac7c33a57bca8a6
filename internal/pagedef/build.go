package pagedef

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/marcus/adminui/pkg/console/depend"
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lifecycle"
	"github.com/marcus/adminui/pkg/console/lookup"
	"github.com/marcus/adminui/pkg/console/page"
)

// noneSelected is shown by empty foreign-key fields.
const noneSelected = "(none selected)"

var kinds = map[string]field.Kind{
	"":            field.KindText,
	"text":        field.KindText,
	"textarea":    field.KindTextarea,
	"select":      field.KindSelect,
	"radio":       field.KindRadio,
	"hidden":      field.KindHidden,
	"foreign-key": field.KindForeignKey,
	"color":       field.KindColor,
}

func (r VisibilityRule) predicate() (depend.Predicate, error) {
	set := 0
	var p depend.Predicate
	if r.ShowIf != nil {
		set++
		p = depend.Literal(*r.ShowIf)
	}
	if len(r.ShowIfIn) > 0 {
		set++
		p = depend.OneOf(r.ShowIfIn...)
	}
	if r.ShowIfNonEmpty {
		set++
		p = depend.NonEmpty()
	}
	if set != 1 {
		return depend.Predicate{}, errors.New("exactly one of show_if, show_if_in, show_if_nonempty is required")
	}
	return p, nil
}

// Build creates the page form, registers the rules and required-field
// validation on p, installs the form as the page body and initializes it.
func Build(p *page.Page, d *Definition) (*form.Container, error) {
	for _, r := range d.Rules.Visibility {
		pred, err := r.predicate()
		if err != nil {
			return nil, err
		}
		p.Rules.RegisterVisibilityRule(orClass(r.Class, d.Class), r.Parent, r.Child, pred,
			depend.Options{ClearChildData: r.ClearChildData})
	}
	for _, r := range d.Rules.Filters {
		p.Rules.RegisterFilterRule(orClass(r.Class, d.Class), r.Parent, r.Child, r.Property,
			depend.FilterOptions{ParentFieldRequired: r.ParentRequired})
	}
	p.Lifecycle.AddValidationSubmitHandler(requiredFields(d))

	body := form.New(d.Class, d.Action)
	var tabs *form.Tabs
	if len(d.Tabs) == 0 {
		for _, f := range d.Fields {
			body.Add(newField(f))
		}
	} else {
		labels := make([]string, len(d.Tabs))
		panes := make([]*form.Container, len(d.Tabs))
		for i, t := range d.Tabs {
			labels[i] = t.Label
			panes[i] = form.New(d.Class, t.Label)
			for _, f := range t.Fields {
				panes[i].Add(newField(f))
			}
		}
		// The whole-form container sees every field; each field stays
		// owned by its pane so hiding a tab hides it.
		for _, pane := range panes {
			for _, f := range pane.Fields() {
				body.Add(f)
				f.SetOwner(pane)
			}
		}
		tabs = form.NewTabs(labels, panes)
	}

	p.SetBody(body, tabs)
	// Rules bind per container, so the whole form is initialized once and
	// sees parents and children across tabs.
	p.InitializeFields(body)
	return body, nil
}

// Source returns the lookup candidates of the page.
func (d *Definition) Source() lookup.StaticSource {
	out := make(lookup.StaticSource, len(d.Lookups))
	for child, cands := range d.Lookups {
		for _, c := range cands {
			out[child] = append(out[child], lookup.Candidate{ID: c.ID, Label: c.Label, Properties: c.Properties})
		}
	}
	return out
}

// Transport serves the fragments of the page links in place of a server.
// Unknown URLs answer 404. Form posts answer with a confirmation fragment.
func (d *Definition) Transport() http.RoundTripper {
	return roundTripper{d: d}
}

type roundTripper struct {
	d *Definition
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	status, body := http.StatusNotFound, "<div><h3>Not found</h3><p>"+req.URL.Path+"</p></div>"
	if l, ok := rt.d.Link(req.URL.Path); ok {
		status, body = l.Status, l.HTML
		if status == 0 {
			status = http.StatusOK
		}
	}
	if req.Method == http.MethodPost && req.Body != nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read posted form: %w", err)
		}
		posted, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse posted form: %w", err)
		}
		status, body = http.StatusOK, "<div><h3>Saved</h3><p>"+strings.Join(summary(posted), ", ")+"</p></div>"
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func summary(form url.Values) []string {
	var out []string
	for k, vs := range form {
		out = append(out, k+"="+strings.Join(vs, "|"))
	}
	slices.Sort(out)
	return out
}

func orClass(class, fallback string) string {
	if class != "" {
		return class
	}
	return fallback
}

func newField(f Field) *field.Field {
	opts := []field.FieldOption{field.WithName(f.ID)}
	if f.Label != "" {
		opts = append(opts, field.WithLabel(f.Label))
	}
	if len(f.Classes) > 0 {
		opts = append(opts, field.WithClasses(f.Classes...))
	}
	value := ""
	if f.Value != nil {
		value = *f.Value
	}
	choices := make([]field.Option, len(f.Options))
	for i, o := range f.Options {
		choices[i] = field.Option{Value: o.Value, Label: o.Label}
	}

	switch kinds[f.Kind] {
	case field.KindTextarea:
		opts = append(opts, field.WithTextarea(value))
	case field.KindSelect:
		selected := field.Null
		switch {
		case f.Value != nil:
			selected = field.Some(value)
		case len(choices) > 0:
			selected = field.Some(choices[0].Value)
		}
		opts = append(opts, field.WithSelect(selected, choices...))
	case field.KindRadio:
		opts = append(opts, field.WithRadios(value, choices...))
	case field.KindHidden:
		opts = append(opts, field.WithHiddenValue(field.Some(value)))
	case field.KindForeignKey:
		id := field.Null
		if value != "" {
			id = field.Some(value)
		}
		opts = append(opts, field.WithForeignKey(field.ForeignKey{NoneSelected: noneSelected}, id))
	case field.KindColor:
		opts = append(opts, field.WithText(value), field.WithClasses(lifecycle.WidgetColorPicker), field.WithKind(field.KindColor))
	default:
		opts = append(opts, field.WithText(value))
	}
	if f.Hidden {
		opts = append(opts, field.WithHidden())
	}
	return field.New(f.ID, opts...)
}

// requiredFields fails validation while a shown required field is empty.
// Fields on inactive tabs still count.
func requiredFields(d *Definition) lifecycle.ValidationHandler {
	var required []string
	for _, f := range d.AllFields() {
		if f.Required {
			required = append(required, "#"+f.ID)
		}
	}
	return func(c *form.Container) bool {
		ok := true
		for _, loc := range required {
			f := c.Find(loc)
			if f != nil && f.Shown() && field.ExtractValue(f).IsEmpty() {
				ok = false
			}
		}
		return ok
	}
}
