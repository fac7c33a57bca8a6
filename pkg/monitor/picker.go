package monitor

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lookup"
	modalview "github.com/marcus/adminui/pkg/monitor/modal"
	"github.com/marcus/adminui/pkg/monitor/mouse"
)

const (
	pickerListID  = "picker-list"
	pickerVisible = 8
)

type pickerKind int

const (
	pickLinks pickerKind = iota
	pickLookup
)

// picker is a list overlay above everything else: the page links or the
// candidates of a foreign-key lookup.
type picker struct {
	kind     pickerKind
	title    string
	query    textinput.Model
	items    []modalview.ListItem
	selected int
	err      string

	// Lookup target.
	field     *field.Field
	container *form.Container
	results   map[string]lookup.Candidate
}

func newLinkPicker(links []Link) *picker {
	p := &picker{kind: pickLinks, title: "Open link"}
	for _, l := range links {
		p.items = append(p.items, modalview.ListItem{ID: l.URL, Label: l.Label, Detail: l.URL})
	}
	return p
}

func newLookupPicker(title string, f *field.Field, c *form.Container) *picker {
	q := textinput.New()
	q.Placeholder = "type to filter"
	q.Prompt = "› "
	q.Focus()
	return &picker{kind: pickLookup, title: "Select " + title, query: q, field: f, container: c}
}

func (p *picker) setResults(results []lookup.Result) {
	p.items = p.items[:0]
	p.results = make(map[string]lookup.Candidate, len(results))
	for _, r := range results {
		p.items = append(p.items, modalview.ListItem{ID: r.ID, Label: r.Label, Matched: r.Matched})
		p.results[r.ID] = r.Candidate
	}
	p.selected = clampIndex(p.selected, len(p.items))
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return min(max(i, 0), n-1)
}

func (m Model) buildPickerView() *modalview.Modal {
	p := m.picker
	v := modalview.New(p.title,
		modalview.WithWidth(min(60, m.Width)),
		modalview.WithCloseButton(true),
		modalview.WithHints(true),
		modalview.WithFocus(pickerListID),
	)
	if p.kind == pickLookup {
		v.AddSection(modalview.Raw(p.query.View()))
		v.AddSection(modalview.Spacer())
	}
	if p.err != "" {
		v.AddSection(modalview.Text(modalview.ErrorText.Render(p.err)))
	}
	v.AddSection(modalview.List(pickerListID, p.items, &p.selected,
		modalview.WithMaxVisible(pickerVisible),
		modalview.WithEmptyText("No matches"),
	))
	return v
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.picker
	switch msg.String() {
	case "esc":
		m.picker = nil
		return m, nil
	case "enter":
		if len(p.items) == 0 {
			return m, nil
		}
		return m.pick(p.items[p.selected].ID)
	case "up", "ctrl+p":
		p.selected = clampIndex(p.selected-1, len(p.items))
		return m, nil
	case "down", "ctrl+n":
		p.selected = clampIndex(p.selected+1, len(p.items))
		return m, nil
	}

	if p.kind != pickLookup {
		return m, nil
	}
	before := p.query.Value()
	var cmd tea.Cmd
	p.query, cmd = p.query.Update(msg)
	if p.query.Value() != before {
		m.refreshLookup()
	}
	return m, cmd
}

// refreshLookup re-runs the search for the current query.
func (m Model) refreshLookup() {
	p := m.picker
	results, err := m.lookup.Search(m.ctx, p.container, p.field.ID, strings.TrimSpace(p.query.Value()))
	p.err = ""
	if err != nil {
		p.err = err.Error()
		if errors.Is(err, lookup.ErrParentRequired) {
			p.err = "Choose a value for the parent field first"
		}
		results = nil
	}
	p.selected = 0
	p.setResults(results)
}

// pick completes the picker with the item id.
func (m Model) pick(id string) (tea.Model, tea.Cmd) {
	p := m.picker
	m.picker = nil
	switch p.kind {
	case pickLinks:
		m.page.Modals.ShowLink(m.ctx, id, nil, nil)
		m.afterStackChange()
	case pickLookup:
		if cand, ok := p.results[id]; ok {
			lookup.Select(p.field, cand)
		}
	}
	return m, nil
}

func (m Model) handlePickerMouse(a mouse.Action) (tea.Model, tea.Cmd) {
	p := m.picker
	switch a.Type {
	case mouse.ActionScrollUp:
		p.selected = clampIndex(p.selected-1, len(p.items))
	case mouse.ActionScrollDown:
		p.selected = clampIndex(p.selected+1, len(p.items))
	case mouse.ActionClick, mouse.ActionDoubleClick:
		if a.Region == nil {
			return m, nil
		}
		switch id := a.Region.ID; {
		case id == modalview.ActionClose || id == modalview.RegionBackdrop:
			m.picker = nil
		case strings.HasPrefix(id, modalview.ItemRegionPrefix):
			return m.pick(strings.TrimPrefix(id, modalview.ItemRegionPrefix))
		}
	}
	return m, nil
}
