package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Section is one block of modal content.
type Section interface {
	// Render draws the section at contentWidth. Focusable offsets are
	// relative to the section's top-left corner.
	Render(contentWidth int, focusID, hoverID string) RenderedSection
	// Update handles a message while focusID is focused and returns an
	// action ID when the message triggered one.
	Update(msg tea.Msg, focusID string) (string, tea.Cmd)
}

// RenderedSection is the output of Section.Render.
type RenderedSection struct {
	Content    string
	Focusables []FocusableInfo
}

// FocusableInfo is a focusable element inside a rendered section.
type FocusableInfo struct {
	ID      string
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type textSection struct {
	text string
}

// Text is static text wrapped to the content width.
func Text(s string) Section {
	return textSection{text: s}
}

func (s textSection) Render(contentWidth int, _, _ string) RenderedSection {
	return RenderedSection{Content: Body.Width(contentWidth).Render(s.text)}
}

func (textSection) Update(tea.Msg, string) (string, tea.Cmd) { return "", nil }

type rawSection struct {
	content string
}

// Raw is pre-rendered content, such as markdown output, shown as is.
func Raw(s string) Section {
	return rawSection{content: s}
}

func (s rawSection) Render(int, string, string) RenderedSection {
	return RenderedSection{Content: s.content}
}

func (rawSection) Update(tea.Msg, string) (string, tea.Cmd) { return "", nil }

type spacerSection struct{}

// Spacer is a blank line.
func Spacer() Section { return spacerSection{} }

func (spacerSection) Render(int, string, string) RenderedSection {
	return RenderedSection{Content: " "}
}

func (spacerSection) Update(tea.Msg, string) (string, tea.Cmd) { return "", nil }

// ButtonDef describes one button of a Buttons row.
type ButtonDef struct {
	Label   string
	ID      string
	Danger  bool
	Loading bool
}

// ButtonOption configures a ButtonDef.
type ButtonOption func(*ButtonDef)

// Btn defines a button whose action is id.
func Btn(label, id string, opts ...ButtonOption) ButtonDef {
	b := ButtonDef{Label: label, ID: id}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// BtnDanger styles the button as destructive.
func BtnDanger() ButtonOption {
	return func(b *ButtonDef) { b.Danger = true }
}

// BtnLoading replaces the button with a progress indicator that cannot be
// focused.
func BtnLoading() ButtonOption {
	return func(b *ButtonDef) { b.Loading = true }
}

type buttonsSection struct {
	buttons []ButtonDef
}

// Buttons is a row of buttons.
func Buttons(btns ...ButtonDef) Section {
	return buttonsSection{buttons: btns}
}

func (s buttonsSection) Render(_ int, focusID, hoverID string) RenderedSection {
	var parts []string
	var focusables []FocusableInfo
	x := 0
	for i, b := range s.buttons {
		if i > 0 {
			parts = append(parts, " ")
			x++
		}
		var rendered string
		switch {
		case b.Loading:
			rendered = ButtonLoading.Render("⟳ " + strings.TrimSpace(b.Label))
		case b.ID == focusID:
			rendered = pick(b.Danger, ButtonDangerFocused, ButtonFocused).Render(b.Label)
		case b.ID == hoverID:
			rendered = pick(b.Danger, ButtonDangerHover, ButtonHover).Render(b.Label)
		default:
			rendered = pick(b.Danger, ButtonDanger, Button).Render(b.Label)
		}
		w := lipgloss.Width(rendered)
		if !b.Loading {
			focusables = append(focusables, FocusableInfo{ID: b.ID, OffsetX: x, Width: w, Height: 1})
		}
		parts = append(parts, rendered)
		x += w
	}
	return RenderedSection{Content: strings.Join(parts, ""), Focusables: focusables}
}

func (s buttonsSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || (key.String() != "enter" && key.String() != " ") {
		return "", nil
	}
	for _, b := range s.buttons {
		if b.ID == focusID && !b.Loading {
			return b.ID, nil
		}
	}
	return "", nil
}

func pick(danger bool, d, normal lipgloss.Style) lipgloss.Style {
	if danger {
		return d
	}
	return normal
}

type inputSection struct {
	id    string
	label string
	model *textinput.Model
}

// Input is a labelled single-line text input. The model is owned by the
// caller; the section forwards key messages to it while focused.
func Input(id, label string, model *textinput.Model) Section {
	return &inputSection{id: id, label: label, model: model}
}

func (s *inputSection) Render(contentWidth int, focusID, _ string) RenderedSection {
	labelStyle := FieldLabel
	if focusID == s.id {
		labelStyle = FieldLabelFocused
		s.model.Focus()
	} else {
		s.model.Blur()
	}
	s.model.Width = max(contentWidth-4, 1)
	content := labelStyle.Render(s.label) + "\n" + s.model.View()
	return RenderedSection{
		Content:    content,
		Focusables: []FocusableInfo{{ID: s.id, OffsetY: 1, Width: contentWidth, Height: 1}},
	}
}

func (s *inputSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if focusID != s.id {
		return "", nil
	}
	var cmd tea.Cmd
	*s.model, cmd = s.model.Update(msg)
	return "", cmd
}

// RenderFunc renders a custom section.
type RenderFunc func(contentWidth int, focusID, hoverID string) RenderedSection

// UpdateFunc updates a custom section.
type UpdateFunc func(msg tea.Msg, focusID string) (string, tea.Cmd)

type customSection struct {
	render RenderFunc
	update UpdateFunc
}

// Custom builds a section from functions. update may be nil.
func Custom(render RenderFunc, update UpdateFunc) Section {
	return customSection{render: render, update: update}
}

func (s customSection) Render(contentWidth int, focusID, hoverID string) RenderedSection {
	return s.render(contentWidth, focusID, hoverID)
}

func (s customSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if s.update == nil {
		return "", nil
	}
	return s.update(msg, focusID)
}

type whenSection struct {
	cond    func() bool
	section Section
}

// When renders section only while cond holds.
func When(cond func() bool, section Section) Section {
	return whenSection{cond: cond, section: section}
}

func (s whenSection) Render(contentWidth int, focusID, hoverID string) RenderedSection {
	if !s.cond() {
		return RenderedSection{}
	}
	return s.section.Render(contentWidth, focusID, hoverID)
}

func (s whenSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if !s.cond() {
		return "", nil
	}
	return s.section.Update(msg, focusID)
}
