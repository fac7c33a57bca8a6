package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/adminui/pkg/monitor/mouse"
)

// Action IDs returned by the modal itself.
const (
	ActionCancel = "cancel"
	ActionClose  = "close"
)

// Region IDs registered by Render besides the focusables.
const (
	RegionBox      = "modal"
	RegionBackdrop = "backdrop"
	// RegionScrollbar is the right border beside a clamped body. Dragging
	// it scrolls the body.
	RegionScrollbar = "scrollbar"
)

const defaultWidth = 50

// Variant selects the border color.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDanger
	VariantWarning
	VariantInfo
)

func (v Variant) color() lipgloss.Color {
	switch v {
	case VariantDanger:
		return Error
	case VariantWarning:
		return Warning
	case VariantInfo:
		return Info
	}
	return Primary
}

// Option configures a Modal.
type Option func(*Modal)

// WithWidth sets the outer width including the border.
func WithWidth(w int) Option {
	return func(m *Modal) {
		if w > 0 {
			m.width = w
		}
	}
}

func WithVariant(v Variant) Option { return func(m *Modal) { m.variant = v } }

// WithHints shows the keyboard hint line under the footer.
func WithHints(show bool) Option { return func(m *Modal) { m.showHints = show } }

// WithPrimaryAction is returned by Enter when the focused section has no
// action of its own.
func WithPrimaryAction(id string) Option { return func(m *Modal) { m.primaryAction = id } }

// WithCloseButton draws the × mark in the title row.
func WithCloseButton(show bool) Option { return func(m *Modal) { m.closable = show } }

// WithOffset displaces the modal from its centered position.
func WithOffset(x, y int) Option { return func(m *Modal) { m.offsetX, m.offsetY = x, y } }

// WithPosition pins the top-left corner, ignoring centering and offset.
func WithPosition(x, y int) Option {
	return func(m *Modal) { m.pinned, m.x, m.y = true, x, y }
}

// WithInert renders the modal without hit regions or focus highlight, as
// an entry below the backdrop.
func WithInert(inert bool) Option { return func(m *Modal) { m.inert = inert } }

// WithMaxBodyHeight clamps the body to h lines; the rest scrolls.
func WithMaxBodyHeight(h int) Option { return func(m *Modal) { m.maxBodyHeight = h } }

// WithHeader places a section between the title and the header rule, such
// as a tab row.
func WithHeader(s Section) Option { return func(m *Modal) { m.header = s } }

// WithHeaderBorder controls the rule under the header.
func WithHeaderBorder(show bool) Option { return func(m *Modal) { m.headerBorder = show } }

// WithFooter places a section under the body, separated by a rule.
func WithFooter(s Section) Option { return func(m *Modal) { m.footer = s } }

// WithFocus restores the focus of a previous render.
func WithFocus(id string) Option { return func(m *Modal) { m.focusID = id } }

// WithScroll restores the body scroll of a previous render.
func WithScroll(n int) Option { return func(m *Modal) { m.scroll = n } }

// Modal is a bordered dialog built from sections.
type Modal struct {
	title         string
	width         int
	variant       Variant
	showHints     bool
	primaryAction string
	closable      bool
	inert         bool
	headerBorder  bool

	offsetX, offsetY int
	pinned           bool
	x, y             int
	height           int

	header        Section
	sections      []Section
	footer        Section
	maxBodyHeight int
	scroll        int
	// bodyLines and bodyRows are the full and shown body heights of the
	// last render; equal when nothing is clamped.
	bodyLines, bodyRows int

	focusID string
	hoverID string
	// order is the tab order of the last render.
	order []string
	// owner maps focusable IDs to the section that handles them.
	owner map[string]Section
}

// New creates a modal.
func New(title string, opts ...Option) *Modal {
	m := &Modal{title: title, width: defaultWidth, headerBorder: true, owner: map[string]Section{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddSection appends a body section.
func (m *Modal) AddSection(s Section) *Modal {
	m.sections = append(m.sections, s)
	return m
}

func (m *Modal) Title() string   { return m.title }
func (m *Modal) FocusID() string { return m.focusID }
func (m *Modal) Scroll() int     { return m.scroll }

// Position returns the top-left corner and size of the last render.
func (m *Modal) Position() (x, y, w, h int) { return m.x, m.y, m.width, m.height }

// SetFocus focuses id if it was rendered.
func (m *Modal) SetFocus(id string) {
	if _, ok := m.owner[id]; ok {
		m.focusID = id
	}
}

type placed struct {
	FocusableInfo
	section Section
}

func (m *Modal) renderSection(s Section, width int) (string, []placed) {
	focus, hover := m.focusID, m.hoverID
	if m.inert {
		focus, hover = "", ""
	}
	r := s.Render(width, focus, hover)
	out := make([]placed, len(r.Focusables))
	for i, f := range r.Focusables {
		out[i] = placed{FocusableInfo: f, section: s}
	}
	return r.Content, out
}

// Render draws the modal for a screen of screenW x screenH and registers
// its hit regions on handler, which may be nil.
func (m *Modal) Render(screenW, screenH int, handler *mouse.Handler) string {
	contentW := max(m.width-4, 1)
	clear(m.owner)
	m.order = m.order[:0]

	// Header: title row, optional header section, rule.
	titleText := ModalTitle.Render(ansi.Truncate(m.title, contentW-2, "…"))
	titleRow := titleText
	if m.closable {
		gap := max(contentW-lipgloss.Width(titleText)-1, 1)
		titleRow += strings.Repeat(" ", gap) + CloseMark.Render("×")
	}
	head := []string{titleRow}
	var headPlaced []placed
	if m.header != nil {
		content, ps := m.renderSection(m.header, contentW)
		for i := range ps {
			ps[i].OffsetY += len(head)
		}
		headPlaced = ps
		head = append(head, strings.Split(content, "\n")...)
	}
	if m.headerBorder {
		head = append(head, MutedText.Render(strings.Repeat("─", contentW)))
	}

	// Body
	var body []string
	var bodyPlaced []placed
	for _, s := range m.sections {
		content, ps := m.renderSection(s, contentW)
		if content == "" {
			continue
		}
		for i := range ps {
			ps[i].OffsetY += len(body)
		}
		bodyPlaced = append(bodyPlaced, ps...)
		body = append(body, strings.Split(content, "\n")...)
	}
	for _, p := range append(append([]placed{}, headPlaced...), bodyPlaced...) {
		m.register(p)
	}
	body, bodyPlaced = m.clampBody(body, bodyPlaced)

	// Footer
	var foot []string
	var footPlaced []placed
	if m.footer != nil {
		content, ps := m.renderSection(m.footer, contentW)
		if content != "" {
			foot = append(foot, MutedText.Render(strings.Repeat("─", contentW)))
			for i := range ps {
				ps[i].OffsetY += len(foot)
			}
			footPlaced = ps
			foot = append(foot, strings.Split(content, "\n")...)
			for _, p := range ps {
				m.register(p)
			}
		}
	}
	if m.showHints && !m.inert {
		foot = append(foot, HintText.Render("tab next · enter select · esc close"))
	}

	lines := append(append(append([]string{}, head...), body...), foot...)
	border := m.variant.color()
	if m.inert {
		border = BorderInert
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(m.width - 2).
		Render(strings.Join(lines, "\n"))
	if m.bodyLines > m.bodyRows {
		box = m.drawScrollbar(box, len(head), border)
	}
	m.height = lipgloss.Height(box)

	if !m.pinned {
		m.x = max((screenW-m.width)/2, 0) + m.offsetX
		m.y = max((screenH-m.height)/2, 0) + m.offsetY
	}

	all := append(append(append([]placed{}, headPlaced...), shift(bodyPlaced, len(head))...), shift(footPlaced, len(head)+len(body))...)
	if _, ok := m.owner[m.focusID]; !ok && !m.inert {
		m.focusID = ""
		if len(m.order) > 0 {
			m.focusID = m.order[0]
		}
	}

	if handler != nil && !m.inert {
		// Content starts inside the border and the one-cell padding.
		ox, oy := m.x+2, m.y+1
		handler.HitMap.AddRect(RegionBox, m.x, m.y, m.width, m.height, nil)
		for _, p := range all {
			handler.HitMap.AddRect(p.ID, ox+p.OffsetX, oy+p.OffsetY, p.Width, max(p.Height, 1), nil)
		}
		if m.closable {
			handler.HitMap.AddRect(ActionClose, ox+contentW-1, oy, 1, 1, nil)
		}
		if m.bodyLines > m.bodyRows {
			handler.HitMap.AddRect(RegionScrollbar, m.x+m.width-1, oy+len(head), 1, m.bodyRows, nil)
		}
	}
	return box
}

// thumb returns the first row and the length of the scrollbar thumb
// within the shown body.
func (m *Modal) thumb() (int, int) {
	size := max(m.bodyRows*m.bodyRows/m.bodyLines, 1)
	top := m.scroll * (m.bodyRows - size) / max(m.bodyLines-m.bodyRows, 1)
	return top, size
}

// drawScrollbar paints the thumb over the right border of the body rows.
func (m *Modal) drawScrollbar(box string, headRows int, color lipgloss.Color) string {
	rows := strings.Split(box, "\n")
	top, size := m.thumb()
	mark := lipgloss.NewStyle().Foreground(color).Render("┃")
	for i := top; i < top+size; i++ {
		// Row 0 is the top border.
		r := 1 + headRows + i
		if r < len(rows) {
			rows[r] = ansi.Cut(rows[r], 0, m.width-1) + mark
		}
	}
	return strings.Join(rows, "\n")
}

func (m *Modal) register(p placed) {
	m.owner[p.ID] = p.section
	if !strings.HasPrefix(p.ID, ItemRegionPrefix) {
		m.order = append(m.order, p.ID)
	}
}

func shift(ps []placed, dy int) []placed {
	for i := range ps {
		ps[i].OffsetY += dy
	}
	return ps
}

// clampBody cuts body to the max height around the scroll position,
// keeping the focused element in view.
func (m *Modal) clampBody(body []string, ps []placed) ([]string, []placed) {
	m.bodyLines, m.bodyRows = len(body), len(body)
	if m.maxBodyHeight <= 0 || len(body) <= m.maxBodyHeight {
		m.scroll = 0
		return body, ps
	}
	h := m.maxBodyHeight
	m.bodyRows = h
	for _, p := range ps {
		if p.ID != m.focusID || m.inert {
			continue
		}
		if p.OffsetY < m.scroll {
			m.scroll = p.OffsetY
		} else if p.OffsetY+p.Height > m.scroll+h {
			m.scroll = p.OffsetY + p.Height - h
		}
	}
	m.scroll = clamp(m.scroll, 0, len(body)-h)

	var kept []placed
	for _, p := range ps {
		if p.OffsetY >= m.scroll && p.OffsetY+max(p.Height, 1) <= m.scroll+h {
			p.OffsetY -= m.scroll
			kept = append(kept, p)
		}
	}
	visible := append([]string{}, body[m.scroll:m.scroll+h]...)
	if m.scroll+h < len(body) {
		visible[h-1] = MutedText.Render("↓ more below")
	}
	if m.scroll > 0 {
		visible[0] = MutedText.Render("↑ more above")
	}
	return visible, kept
}

// HandleKey moves focus on tab and shift+tab, scrolls on page keys and
// otherwise forwards the key to the focused section. It returns the
// triggered action, ActionCancel for esc.
func (m *Modal) HandleKey(msg tea.KeyMsg) (string, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.cycleFocus(1)
		return "", nil
	case "shift+tab":
		m.cycleFocus(-1)
		return "", nil
	case "esc":
		return ActionCancel, nil
	case "pgup":
		m.ScrollBy(-max(m.maxBodyHeight-1, 1))
		return "", nil
	case "pgdown":
		m.ScrollBy(max(m.maxBodyHeight-1, 1))
		return "", nil
	}

	if s, ok := m.owner[m.focusID]; ok {
		if action, cmd := s.Update(msg, m.focusID); action != "" || cmd != nil {
			return action, cmd
		}
	}
	if msg.String() == "enter" && m.primaryAction != "" {
		return m.primaryAction, nil
	}
	return "", nil
}

// HandleMouse applies a mouse action to the modal. A click focuses the
// region and returns its ID.
func (m *Modal) HandleMouse(a mouse.Action) string {
	switch a.Type {
	case mouse.ActionHover:
		m.hoverID = ""
		if a.Region != nil {
			m.hoverID = a.Region.ID
		}
	case mouse.ActionScrollUp:
		m.ScrollBy(-1)
	case mouse.ActionScrollDown:
		m.ScrollBy(1)
	case mouse.ActionClick, mouse.ActionDoubleClick:
		if a.Region == nil {
			return ""
		}
		if _, ok := m.owner[a.Region.ID]; ok && !strings.HasPrefix(a.Region.ID, ItemRegionPrefix) {
			m.focusID = a.Region.ID
		}
		return a.Region.ID
	}
	return ""
}

// ScrollBy moves the body window; the next render clamps it.
func (m *Modal) ScrollBy(n int) {
	m.scroll = max(m.scroll+n, 0)
}

// DragScroll sets the scroll for a scrollbar drag of dy rows that started
// at scroll position start. A row of scrollbar covers bodyLines/bodyRows
// lines of body.
func (m *Modal) DragScroll(start, dy int) {
	if m.bodyLines <= m.bodyRows {
		return
	}
	m.scroll = clamp(start+dy*m.bodyLines/m.bodyRows, 0, m.bodyLines-m.bodyRows)
}

func (m *Modal) cycleFocus(dir int) {
	if len(m.order) == 0 {
		return
	}
	idx := -1
	for i, id := range m.order {
		if id == m.focusID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && dir < 0:
		idx = len(m.order) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + dir + len(m.order)) % len(m.order)
	}
	m.focusID = m.order[idx]
}
