package monitor

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lifecycle"
	"github.com/marcus/adminui/pkg/console/modal"
	modalview "github.com/marcus/adminui/pkg/monitor/modal"
)

// Region and focus ID prefixes.
const (
	fieldPrefix  = "field:"
	tabPrefix    = "tab:"
	buttonPrefix = "button:"
	actionPrefix = "action:"
)

const hints = "tab field · ←/→ choose · enter edit · o links · ctrl+s submit · y copy · ? help · q quit"

var (
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	statusErrorStyle = lipgloss.NewStyle().Foreground(modalview.Error).Bold(true)
)

func viewport(w, h int) modal.Viewport {
	return modal.Viewport{Width: w, Height: h}
}

// View renders the page, the modal stack above the backdrop and any picker.
func (m Model) View() string {
	m.mouse.Clear()
	entries := m.page.Modals.Modals()
	front := len(entries) == 0 && m.picker == nil

	screenH := max(m.Height-1, 1)
	pageView := m.buildPageView(!front)
	handler := m.mouse
	if !front {
		handler = nil
	}
	screen := modalview.Fit(pageView.Render(m.Width, screenH, handler), m.Width, screenH)

	if len(entries) > 0 {
		// Entries below the backdrop are drawn before it and dimmed with it.
		for _, e := range entries[:len(entries)-1] {
			v := m.buildEntryView(e, true)
			box := v.Render(m.Width, screenH, nil)
			x, y, _, _ := v.Position()
			screen = modalview.Place(screen, box, x, y)
		}
		screen = modalview.Dim(screen)

		top := entries[len(entries)-1]
		inert := m.picker != nil
		handler = nil
		if !inert {
			handler = m.mouse
			m.mouse.HitMap.AddRect(modalview.RegionBackdrop, 0, 0, m.Width, screenH, nil)
		}
		v := m.buildEntryView(top, inert)
		box := v.Render(m.Width, screenH, handler)
		x, y, _, _ := v.Position()
		screen = modalview.Place(screen, box, x, y)
	}

	if m.picker != nil {
		if len(entries) == 0 {
			screen = modalview.Dim(screen)
		}
		m.mouse.HitMap.AddRect(modalview.RegionBackdrop, 0, 0, m.Width, screenH, nil)
		v := m.buildPickerView()
		box := v.Render(m.Width, screenH, m.mouse)
		x, y, _, _ := v.Position()
		screen = modalview.Place(screen, box, x, y)
	}

	return modalview.Fit(screen, m.Width, screenH) + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	if m.StatusMessage != "" {
		style := statusStyle
		if m.StatusIsError {
			style = statusErrorStyle
		}
		return style.Render(ansi.Truncate(m.StatusMessage, m.Width, "…"))
	}
	return modalview.HintText.Render(ansi.Truncate(hints, m.Width, "…"))
}

// buildPageView builds the full-screen view of the page form, carrying
// focus and scroll over from the previous render.
func (m Model) buildPageView(inert bool) *modalview.Modal {
	opts := []modalview.Option{
		modalview.WithWidth(m.Width),
		modalview.WithPosition(0, 0),
		modalview.WithInert(inert),
		modalview.WithMaxBodyHeight(max(m.Height-6, 3)),
	}
	if prev := m.views.page; prev != nil {
		opts = append(opts, modalview.WithFocus(prev.FocusID()), modalview.WithScroll(prev.Scroll()))
	}
	if tabs := m.page.Tabs; tabs.Len() > 0 {
		opts = append(opts, modalview.WithHeader(tabsSection(tabs.Labels, tabs.ActiveIndex(), false)))
	}
	v := modalview.New(m.title, opts...)
	if c := m.page.ActiveTab(); c != nil {
		v.AddSection(m.fieldsSection(c))
	}
	if len(m.links) > 0 {
		v.AddSection(modalview.Spacer())
		v.AddSection(modalview.Text(modalview.MutedText.Render(fmt.Sprintf("%d links · press o to open one", len(m.links)))))
	}
	m.views.page = v
	return v
}

// buildEntryView builds the view of one modal entry.
func (m Model) buildEntryView(e *modal.Entry, inert bool) *modalview.Modal {
	c := e.Content
	width := min(m.page.Modals.Width(), m.Width)
	opts := []modalview.Option{
		modalview.WithWidth(width),
		modalview.WithOffset(e.Offset.X, e.Offset.Y),
		modalview.WithInert(inert || !e.Interactive()),
		modalview.WithCloseButton(true),
		modalview.WithHeaderBorder(e.HeaderBorder),
	}
	if e.BodyMaxHeight > 0 {
		opts = append(opts, modalview.WithMaxBodyHeight(max(e.BodyMaxHeight-2, 3)))
	}
	if prev := m.views.entries[e.ID]; prev != nil {
		opts = append(opts, modalview.WithFocus(prev.FocusID()), modalview.WithScroll(prev.Scroll()))
	}
	if c.TabsInHeader && c.Panes != nil {
		opts = append(opts, modalview.WithHeader(tabsSection(c.Tabs, c.Panes.ActiveIndex(), e.TabScroll)))
	}
	if footer := entryButtons(e, buttonPrefix, c.Buttons); footer != nil {
		opts = append(opts, modalview.WithFooter(footer))
	}

	v := modalview.New(c.Title, opts...)
	if e.Loading || e.Placeholder() {
		v.AddSection(modalview.Text(modalview.MutedText.Render("⟳ " + m.page.Modals.Config().Messages.Loading)))
	}
	if !e.Placeholder() {
		m.addBody(v, e, width-4)
	}
	if pane := e.ActiveContainer(); pane != nil {
		v.AddSection(m.fieldsSection(pane))
	}
	if actions := entryButtons(e, actionPrefix, c.Actions); actions != nil {
		v.AddSection(modalview.Spacer())
		v.AddSection(actions)
	}
	m.views.entries[e.ID] = v
	return v
}

func (m Model) addBody(v *modalview.Modal, e *modal.Entry, width int) {
	body := e.Content.Body
	if len(body) == 0 {
		return
	}
	if e.Content.Markdown {
		v.AddSection(modalview.Raw(m.markdown(e.ID, strings.Join(body, "\n\n"), width)))
		return
	}
	for i, p := range body {
		if i > 0 {
			v.AddSection(modalview.Spacer())
		}
		v.AddSection(modalview.Text(p))
	}
	if e.ActiveContainer() != nil {
		v.AddSection(modalview.Spacer())
	}
}

// entryButtons renders a button row. The submit button turns into a
// progress indicator while its form posts and is left out while hidden.
func entryButtons(e *modal.Entry, prefix string, buttons []modal.Button) modalview.Section {
	var defs []modalview.ButtonDef
	for i, b := range buttons {
		id := prefix + strconv.Itoa(i)
		label := " " + strings.TrimSpace(b.Label) + " "
		switch {
		case b.Submit && e.LoaderVisible:
			defs = append(defs, modalview.Btn(label, id, modalview.BtnLoading()))
		case b.Submit && !e.SubmitVisible:
		default:
			defs = append(defs, modalview.Btn(label, id))
		}
	}
	if len(defs) == 0 {
		return nil
	}
	return modalview.Buttons(defs...)
}

// tabsSection renders a tab row. With scroll set, the row is cut to the
// content width around the active tab.
func tabsSection(labels []string, active int, scroll bool) modalview.Section {
	render := func(width int, focusID, hoverID string) modalview.RenderedSection {
		var parts []string
		var focusables []modalview.FocusableInfo
		x := 0
		for i, label := range labels {
			id := tabPrefix + strconv.Itoa(i)
			style := modalview.Tab
			switch {
			case id == focusID:
				style = modalview.TabFocused
			case i == active || id == hoverID:
				style = modalview.TabActive
			}
			s := style.Render(label)
			w := lipgloss.Width(s)
			focusables = append(focusables, modalview.FocusableInfo{ID: id, OffsetX: x, Width: w, Height: 1})
			parts = append(parts, s)
			x += w + 1
		}
		row := strings.Join(parts, " ")
		if scroll && lipgloss.Width(row) > width {
			start := 0
			if active < len(focusables) {
				start = max(focusables[active].OffsetX+focusables[active].Width-width+2, 0)
			}
			row = "‹" + ansi.Cut(row, start, start+width-2) + "›"
			var kept []modalview.FocusableInfo
			for _, f := range focusables {
				f.OffsetX = f.OffsetX - start + 1
				if f.OffsetX >= 1 && f.OffsetX+f.Width <= width-1 {
					kept = append(kept, f)
				}
			}
			focusables = kept
		}
		return modalview.RenderedSection{Content: row, Focusables: focusables}
	}
	update := func(msg tea.Msg, focusID string) (string, tea.Cmd) {
		key, ok := msg.(tea.KeyMsg)
		if !ok || !strings.HasPrefix(focusID, tabPrefix) {
			return "", nil
		}
		i, _ := strconv.Atoi(strings.TrimPrefix(focusID, tabPrefix))
		switch key.String() {
		case "enter", " ":
			return focusID, nil
		case "left", "h":
			return tabPrefix + strconv.Itoa(max(i-1, 0)), nil
		case "right", "l":
			return tabPrefix + strconv.Itoa(min(i+1, len(labels)-1)), nil
		}
		return "", nil
	}
	return modalview.Custom(render, update)
}

// fieldsSection renders the visible fields of c, one per row.
func (m Model) fieldsSection(c *form.Container) modalview.Section {
	return modalview.Custom(func(width int, focusID, hoverID string) modalview.RenderedSection {
		fields := displayed(c)
		if len(fields) == 0 {
			return modalview.RenderedSection{Content: modalview.MutedText.Render("(no fields)")}
		}
		labelW := 0
		for _, f := range fields {
			labelW = max(labelW, lipgloss.Width(fieldLabel(f)))
		}
		labelW = min(labelW, width/3)
		valueW := max(width-labelW-2, 1)

		var rows []string
		var focusables []modalview.FocusableInfo
		for i, f := range fields {
			id := fieldPrefix + f.ID
			labelStyle := modalview.FieldLabel
			if id == focusID {
				labelStyle = modalview.FieldLabelFocused
			}
			label := ansi.Truncate(fieldLabel(f), labelW, "…")
			label += strings.Repeat(" ", labelW-lipgloss.Width(label))
			value := m.fieldValue(f, valueW, id == focusID)
			rows = append(rows, labelStyle.Render(label)+"  "+ansi.Truncate(value, valueW, "…"))
			focusables = append(focusables, modalview.FocusableInfo{ID: id, OffsetY: i, Width: width, Height: 1})
		}
		return modalview.RenderedSection{Content: strings.Join(rows, "\n"), Focusables: focusables}
	}, nil)
}

// displayed returns the fields of c a user can see and edit.
func displayed(c *form.Container) []*field.Field {
	var out []*field.Field
	for _, f := range c.VisibleFields() {
		if f.Kind != field.KindHidden {
			out = append(out, f)
		}
	}
	return out
}

func fieldLabel(f *field.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// fieldValue renders the input of f.
func (m Model) fieldValue(f *field.Field, width int, focused bool) string {
	if m.editing != nil && m.editing.field == f {
		input := m.editing.input
		input.Width = max(width-2, 1)
		return input.View()
	}

	switch f.Kind {
	case field.KindSelect:
		v := f.SelectedOption()
		text := modalview.FieldPlaceholder.Render("(none)")
		for _, o := range f.Options() {
			if v.Valid() && o.Value == v.String() {
				text = modalview.FieldValue.Render(optionLabel(o))
			}
		}
		if focused {
			return "‹ " + text + " ›"
		}
		return text

	case field.KindRadio:
		checked := f.CheckedRadio()
		var parts []string
		for _, o := range f.Radios() {
			mark := "( )"
			if checked.Valid() && checked.String() == o.Value {
				mark = "(•)"
			}
			parts = append(parts, mark+" "+optionLabel(o))
		}
		return modalview.FieldValue.Render(strings.Join(parts, "  "))

	case field.KindForeignKey:
		fk := f.ForeignKey()
		display := ""
		if fk != nil {
			display = fk.Display
		}
		out := modalview.FieldValue.Render(display)
		if focused {
			out += modalview.MutedText.Render("  enter: lookup")
		}
		return out
	}

	text, _ := f.Text()
	if text == "" {
		text = modalview.FieldPlaceholder.Render("(empty)")
	} else {
		text = modalview.FieldValue.Render(strings.ReplaceAll(text, "\n", " ⏎ "))
	}
	if opts, ok := f.Widget(lifecycle.WidgetColorPicker); ok {
		if color, _ := opts["color"].(string); color != "" {
			text = modalview.Swatch.Background(lipgloss.Color(color)).Render(" ") + " " + text
		}
	}
	if _, ok := f.Widget(lifecycle.WidgetRichText); ok {
		text += modalview.MutedText.Render("  [rich text]")
	}
	return text
}

func optionLabel(o field.Option) string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}
