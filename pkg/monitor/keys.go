package monitor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lifecycle"
	"github.com/marcus/adminui/pkg/console/lookup"
	"github.com/marcus/adminui/pkg/console/modal"
	"github.com/marcus/adminui/pkg/console/page"
	modalview "github.com/marcus/adminui/pkg/monitor/modal"
	"github.com/marcus/adminui/pkg/monitor/mouse"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.editing != nil {
		return m.handleEditKey(msg)
	}
	if m.picker != nil {
		return m.handlePickerKey(msg)
	}
	if m.page.Modals.HandleKey(key) {
		m.afterStackChange()
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp()
		return m, nil
	case "o":
		return m.openLinks()
	case "y":
		return m, m.copyValues()
	case "ctrl+s":
		return m.submit()
	case "[", "]":
		m.cycleTab(key == "]")
		return m, nil
	}

	if f, _ := m.focusedField(); f != nil {
		if model, cmd, handled := m.handleFieldKey(f, key); handled {
			return model, cmd
		}
	}

	v := m.activeView()
	action, cmd := v.HandleKey(msg)
	if action == "" {
		return m, cmd
	}
	model, actionCmd := m.handleAction(action)
	return model, tea.Batch(cmd, actionCmd)
}

// activeView returns the view that receives input: the top modal, or the
// page when no modal is open.
func (m Model) activeView() *modalview.Modal {
	if e := m.page.Modals.Current(); e != nil {
		if v := m.views.entries[e.ID]; v != nil {
			return v
		}
		m.View()
		return m.views.entries[e.ID]
	}
	if m.views.page == nil {
		m.View()
	}
	return m.views.page
}

// activeContainer returns the fields shown to the user: the active pane of
// the top modal or of the page.
func (m Model) activeContainer() *form.Container {
	if e := m.page.Modals.Current(); e != nil {
		return e.ActiveContainer()
	}
	return m.page.ActiveTab()
}

// activeForm returns the whole form of the top modal or of the page. Lookups
// and submissions work on it so parents on other tabs are found.
func (m Model) activeForm() *form.Container {
	if e := m.page.Modals.Current(); e != nil {
		if e.Content == nil {
			return nil
		}
		return e.Content.Form
	}
	return m.page.Body
}

// activeTabs returns the tab panes of the top modal or of the page.
func (m Model) activeTabs() *form.Tabs {
	if e := m.page.Modals.Current(); e != nil {
		if e.Content == nil {
			return nil
		}
		return e.Content.Panes
	}
	return m.page.Tabs
}

// focusedField returns the field focused in the active view.
func (m Model) focusedField() (*field.Field, *form.Container) {
	c := m.activeContainer()
	if c == nil {
		return nil, nil
	}
	id, ok := strings.CutPrefix(m.activeView().FocusID(), fieldPrefix)
	if !ok {
		return nil, c
	}
	return c.Find("#" + id), c
}

// handleFieldKey applies a key to the focused field.
func (m Model) handleFieldKey(f *field.Field, key string) (tea.Model, tea.Cmd, bool) {
	switch f.Kind {
	case field.KindSelect:
		switch key {
		case "left", "h":
			chooseOption(f, -1)
		case "right", "l", "enter", " ":
			chooseOption(f, 1)
		default:
			return m, nil, false
		}
		return m, nil, true

	case field.KindRadio:
		switch key {
		case "left", "h":
			checkRadio(f, -1)
		case "right", "l", "enter", " ":
			checkRadio(f, 1)
		default:
			return m, nil, false
		}
		return m, nil, true

	case field.KindForeignKey:
		switch key {
		case "enter", " ":
			model, cmd := m.openLookup(f)
			return model, cmd, true
		case "backspace", "delete":
			field.SetValue(f, field.Null)
			return m, nil, true
		}
		return m, nil, false
	}

	switch key {
	case "enter":
		model, cmd := m.startEdit(f)
		return model, cmd, true
	case "ctrl+e":
		if f.Kind == field.KindTextarea {
			model, cmd := m.openExternalEditor(f)
			return model, cmd, true
		}
	case "backspace", "delete":
		field.SetValue(f, field.Null)
		return m, nil, true
	}
	return m, nil, false
}

func chooseOption(f *field.Field, dir int) {
	opts := f.Options()
	if len(opts) == 0 {
		return
	}
	cur := f.SelectedOption()
	idx := -1
	for i, o := range opts {
		if cur.Valid() && o.Value == cur.String() {
			idx = i
		}
	}
	f.Choose(opts[step(idx, dir, len(opts))].Value)
}

func checkRadio(f *field.Field, dir int) {
	radios := f.Radios()
	if len(radios) == 0 {
		return
	}
	cur := f.CheckedRadio()
	idx := -1
	for i, o := range radios {
		if cur.Valid() && o.Value == cur.String() {
			idx = i
		}
	}
	f.CheckRadio(radios[step(idx, dir, len(radios))].Value)
}

// step moves idx by dir, wrapping around n. From no selection it lands on
// the first or last item.
func step(idx, dir, n int) int {
	if idx < 0 {
		if dir < 0 {
			return n - 1
		}
		return 0
	}
	return (idx + dir + n) % n
}

func (m Model) startEdit(f *field.Field) (tea.Model, tea.Cmd) {
	input := textinput.New()
	input.Prompt = ""
	text, _ := f.Text()
	input.SetValue(text)
	input.CursorEnd()
	cmd := input.Focus()
	m.editing = &editState{field: f, input: input}
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = nil
		return m, nil
	case "enter", "tab":
		f, value := m.editing.field, m.editing.input.Value()
		m.editing = nil
		if f.Kind == field.KindColor {
			lifecycle.PickColor(f, value)
		} else {
			f.Type(value)
		}
		return m, nil
	}
	edit := *m.editing
	var cmd tea.Cmd
	edit.input, cmd = edit.input.Update(msg)
	m.editing = &edit
	return m, cmd
}

// handleAction runs an action returned by a view.
func (m Model) handleAction(action string) (tea.Model, tea.Cmd) {
	switch {
	case action == modalview.ActionCancel || action == modalview.ActionClose:
		m.page.Modals.HideCurrent()
		m.afterStackChange()

	case strings.HasPrefix(action, tabPrefix):
		i, err := strconv.Atoi(strings.TrimPrefix(action, tabPrefix))
		if err == nil {
			m.selectTab(i)
		}

	case strings.HasPrefix(action, buttonPrefix), strings.HasPrefix(action, actionPrefix):
		return m.pressButton(action)
	}
	return m, nil
}

// pressButton runs a modal button: submit buttons post the form, buttons
// naming a URL navigate the modal, and anything else dismisses it.
func (m Model) pressButton(id string) (tea.Model, tea.Cmd) {
	e := m.page.Modals.Current()
	if e == nil || e.Content == nil {
		return m, nil
	}
	buttons := e.Content.Buttons
	idx := strings.TrimPrefix(id, buttonPrefix)
	if strings.HasPrefix(id, actionPrefix) {
		buttons = e.Content.Actions
		idx = strings.TrimPrefix(id, actionPrefix)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= len(buttons) {
		return m, nil
	}

	b := buttons[i]
	switch {
	case b.Submit:
		return m.submit()
	case strings.HasPrefix(b.Action, "/"):
		m.page.Modals.NavigateTo(m.ctx, b.Action)
	default:
		m.page.Modals.HideCurrent()
		m.afterStackChange()
	}
	return m, nil
}

// submit posts the top modal's form, or the page form when no modal is
// open.
func (m Model) submit() (tea.Model, tea.Cmd) {
	var posted bool
	if m.page.Modals.Current() != nil {
		posted = m.page.Submit(m.ctx)
	} else {
		posted = m.page.SubmitBody(m.ctx)
	}
	if !posted {
		return m.setStatus("Form not submitted: check the required fields", true)
	}
	return m.setStatus("Submitting…", false)
}

func (m *Model) selectTab(i int) {
	tabs := m.activeTabs()
	if tabs == nil || i < 0 || i >= tabs.Len() {
		return
	}
	tabs.Select(i)
	// Modal panes initialize when first shown; the page form was
	// initialized as a whole.
	if m.page.Modals.Current() != nil {
		m.page.InitializeFields(nil)
	}
}

func (m *Model) cycleTab(forward bool) {
	tabs := m.activeTabs()
	if tabs.Len() == 0 {
		return
	}
	dir := -1
	if forward {
		dir = 1
	}
	m.selectTab(step(tabs.ActiveIndex(), dir, tabs.Len()))
}

// showHelp opens the key reference as a markdown modal.
func (m Model) showHelp() {
	m.page.Modals.ShowElement(&modal.Content{
		Title:    "Keys",
		Body:     []string{helpMarkdown},
		Markdown: true,
		Buttons:  []modal.Button{{Label: "Close", Action: "close"}},
	}, nil, nil)
	m.afterStackChange()
}

const helpMarkdown = `| Key | Action |
|---|---|
| tab / shift+tab | next / previous field or button |
| ← → | choose an option |
| enter | edit a text field, open a lookup, press a button |
| ctrl+e | edit a text area in $EDITOR |
| backspace | clear the field |
| [ ] | previous / next tab |
| o | open a page link |
| ctrl+s | submit the form |
| y | copy the form values |
| esc | close the top modal |
| q | quit |`

// copyValues copies the active form's values to the clipboard.
func (m Model) copyValues() tea.Cmd {
	c := m.activeForm()
	if c == nil {
		return nil
	}
	text := formatValues(c.Class, page.Values(c))
	clip := m.clipboard
	return func() tea.Msg {
		return CopiedMsg{Err: clip(text)}
	}
}

func (m Model) openLookup(f *field.Field) (tea.Model, tea.Cmd) {
	c := m.activeForm()
	results, err := m.lookup.Search(m.ctx, c, f.ID, "")
	if err != nil {
		if errors.Is(err, lookup.ErrParentRequired) {
			return m.setStatus("Choose a value for the parent field first", true)
		}
		return m.setStatus("Lookup failed: "+err.Error(), true)
	}
	p := newLookupPicker(fieldLabel(f), f, c)
	p.setResults(results)
	m.picker = p
	return m, textinput.Blink
}

func (m Model) openLinks() (tea.Model, tea.Cmd) {
	if len(m.links) == 0 {
		return m.setStatus("This page has no links", false)
	}
	m.picker = newLinkPicker(m.links)
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// The release ends the drag inside HandleMouse, so note what was
	// dragged first.
	dragged := ""
	if m.mouse.IsDragging() {
		dragged = m.mouse.DragRegion()
	}
	a := m.mouse.HandleMouse(msg)
	if m.picker != nil {
		return m.handlePickerMouse(a)
	}

	v := m.activeView()
	switch a.Type {
	case mouse.ActionDrag, mouse.ActionDragEnd:
		if dragged == modalview.RegionScrollbar {
			v.DragScroll(m.mouse.DragStartValue(), a.DragDY)
		}
		return m, nil
	case mouse.ActionClick:
		if a.Region != nil && a.Region.ID == modalview.RegionScrollbar {
			m.mouse.StartDrag(a.X, a.Y, modalview.RegionScrollbar, v.Scroll())
			return m, nil
		}
	}

	id := v.HandleMouse(a)
	if id == "" {
		return m, nil
	}
	if fid, ok := strings.CutPrefix(id, fieldPrefix); ok {
		if a.Type != mouse.ActionDoubleClick {
			return m, nil
		}
		if f := m.activeContainer().Find("#" + fid); f != nil {
			model, cmd, _ := m.handleFieldKey(f, "enter")
			return model, cmd
		}
		return m, nil
	}
	return m.handleAction(id)
}
