// Package modal manages the stack of open modal dialogs of one page.
//
// Entries are kept in insertion order; the last entry is the active one. A
// single backdrop is shared by all entries: each push drops the previous top
// beneath it, raises the backdrop by one and offsets the new entry by the
// stack depth so every entry stays partly visible.
//
// A Manager is not safe for concurrent use. Fetch continuations must be
// delivered on the goroutine that owns the manager.
package modal

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/marcus/adminui/pkg/console/form"
)

// Fetcher performs an asynchronous GET and runs onSuccess with the response
// body on the UI goroutine. Failures go to the fetcher's own error handler.
type Fetcher interface {
	Get(ctx context.Context, url string, onSuccess func(body string))
}

// Manager owns the modal stack.
type Manager struct {
	cfg       Config
	stack     []*Entry
	backdropZ int
	viewport  Viewport
	resizeGen uint64

	fetcher    Fetcher
	initFields func(c *form.Container)
	fallback   func() *form.Container
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithFetcher sets the fetcher used by NavigateTo.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithFieldInitializer sets the hook run against the active container after
// each show or content replacement.
func WithFieldInitializer(fn func(c *form.Container)) Option {
	return func(m *Manager) { m.initFields = fn }
}

// WithFallbackContainer sets the container considered active when no modal
// is open.
func WithFallbackContainer(fn func() *form.Container) Option {
	return func(m *Manager) { m.fallback = fn }
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(m *Manager) { m.viewport = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates an empty stack.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		viewport: Viewport{Width: 80, Height: 24},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.cfg }

// Len returns the number of open modals.
func (m *Manager) Len() int { return len(m.stack) }

// Current returns the topmost entry, or nil when no modal is open.
func (m *Manager) Current() *Entry {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Modals returns a copy of the stack, bottom first.
func (m *Manager) Modals() []*Entry {
	return slices.Clone(m.stack)
}

// BackdropZ returns the backdrop z-index, or 0 when no modal is open.
func (m *Manager) BackdropZ() int { return m.backdropZ }

// Viewport returns the current viewport.
func (m *Manager) Viewport() Viewport { return m.viewport }

// ShowElement displays content as a new modal. A loading placeholder on top
// is dismissed first rather than stacked upon.
func (m *Manager) ShowElement(c *Content, onHide HideFunc, onHideArgs any) *Entry {
	if cur := m.Current(); cur != nil && cur.Placeholder() {
		m.HideCurrent()
	}
	return m.Show(c, onHide, onHideArgs)
}

// Show pushes content onto the stack and initializes it.
func (m *Manager) Show(c *Content, onHide HideFunc, onHideArgs any) *Entry {
	e := &Entry{
		ID:            uuid.NewString(),
		Content:       c,
		Tier:          TierFront,
		SubmitVisible: true,
		HeaderBorder:  true,
		onHide:        onHide,
		onHideArgs:    onHideArgs,
	}

	depth := len(m.stack)
	if depth == 0 {
		m.backdropZ = baseBackdropZ
	} else {
		m.stack[depth-1].Tier = TierBack
		m.backdropZ++
		e.Offset = Offset{X: m.cfg.Left * depth, Y: m.cfg.Top * depth}
	}
	m.stack = append(m.stack, e)

	m.logger.Debug("modal shown", "id", e.ID, "title", c.Title, "depth", depth+1)
	m.initialize(e)
	return e
}

// ShowMessage displays a plain message modal.
func (m *Manager) ShowMessage(header, message string) *Entry {
	return m.ShowElement(Message(header, message), nil, nil)
}

// ShowLink opens a loading placeholder and then replaces it with url.
func (m *Manager) ShowLink(ctx context.Context, url string, onHide HideFunc, onHideArgs any) *Entry {
	e := m.ShowElement(loadingPlaceholder(m.cfg.Messages), onHide, onHideArgs)
	m.NavigateTo(ctx, url)
	return e
}

// NavigateTo replaces the top modal's content with the response for url.
// With no modal open it opens a loading placeholder first.
func (m *Manager) NavigateTo(ctx context.Context, url string) {
	e := m.Current()
	if e == nil {
		m.ShowLink(ctx, url, nil, nil)
		return
	}
	if m.fetcher == nil {
		m.logger.Warn("modal navigate without fetcher", "url", url)
		return
	}

	e.Loading = true
	if c := e.ActiveContainer(); c != nil {
		c.Reset()
	}

	m.fetcher.Get(ctx, url, func(body string) {
		if !m.contains(e) {
			m.logger.Debug("modal closed before response", "id", e.ID, "url", url)
			return
		}
		content, err := ParseFragment(body)
		if err != nil {
			m.logger.Warn("parse modal fragment", "url", url, "err", err)
			content = Message(m.cfg.Messages.Error, m.cfg.Messages.ErrorOccurred)
		}
		m.Replace(e, content)
	})
}

// Replace swaps the content of an open entry, re-runs initialization and
// clears its loading state. It reports false when e is no longer open.
func (m *Manager) Replace(e *Entry, c *Content) bool {
	if !m.contains(e) {
		return false
	}
	e.Content = c
	m.initialize(e)
	e.Loading = false
	e.SubmitVisible = true
	e.LoaderVisible = false
	return true
}

// HideCurrent dismisses the topmost modal.
func (m *Manager) HideCurrent() {
	if e := m.Current(); e != nil {
		m.Hide(e)
	}
}

// Hide dismisses e: it runs the hide callback, removes the entry and brings
// the new top back above the backdrop.
func (m *Manager) Hide(e *Entry) {
	idx := slices.Index(m.stack, e)
	if idx < 0 {
		return
	}

	if e.onHide != nil {
		e.onHide(e.onHideArgs)
	}

	m.stack = slices.Delete(m.stack, idx, idx+1)
	m.logger.Debug("modal hidden", "id", e.ID, "depth", len(m.stack))

	if len(m.stack) == 0 {
		m.backdropZ = 0
		return
	}

	// Entries above the removed one move down a step so the next push
	// cannot land on an open entry.
	for i := idx; i < len(m.stack); i++ {
		m.stack[i].Offset = Offset{X: m.cfg.Left * i, Y: m.cfg.Top * i}
	}

	top := m.Current()
	top.Tier = TierFront
	top.SubmitVisible = true
	top.LoaderVisible = false
}

// HandleKey dismisses the topmost modal on escape and reports whether the
// key was consumed.
func (m *Manager) HandleKey(key string) bool {
	if key != "esc" || m.Current() == nil {
		return false
	}
	m.HideCurrent()
	return true
}

// FocusTop moves focus to the topmost modal.
func (m *Manager) FocusTop() {
	for i, e := range m.stack {
		e.Focused = i == len(m.stack)-1
	}
}

// ActiveContainer returns the container field initialization applies to:
// the active pane of the top modal, else the page fallback.
func (m *Manager) ActiveContainer() *form.Container {
	if e := m.Current(); e != nil {
		return e.ActiveContainer()
	}
	if m.fallback != nil {
		return m.fallback()
	}
	return nil
}

// SetMaxHeight clamps the body of e to the viewport height minus the header,
// the footer and a tenth of the viewport.
func (m *Manager) SetMaxHeight(e *Entry) {
	if e == nil {
		return
	}
	vh := m.viewport.Height
	available := vh - e.HeaderHeight() - e.FooterHeight() - vh/10
	e.BodyMaxHeight = max(available, 0)
}

// Resize records a new viewport and returns a generation token. Pass it to
// ResizeSettled once the debounce interval has elapsed.
func (m *Manager) Resize(v Viewport) uint64 {
	m.viewport = v
	m.resizeGen++
	return m.resizeGen
}

// ResizeSettled re-clamps the top modal if no resize happened after gen.
func (m *Manager) ResizeSettled(gen uint64) bool {
	if gen != m.resizeGen {
		return false
	}
	m.SetMaxHeight(m.Current())
	return true
}

// Width returns the rendered width of a modal for the current viewport.
func (m *Manager) Width() int {
	w := m.viewport.Width * 80 / 100
	return min(max(w, 40), 100)
}

func (m *Manager) contains(e *Entry) bool {
	return slices.Contains(m.stack, e)
}

// initialize runs tab setup, button normalization, height clamping and
// field initialization against e.
func (m *Manager) initialize(e *Entry) {
	m.initializeTabs(e)
	m.initializeButtons(e)
	m.SetMaxHeight(e)
	if m.initFields != nil {
		if c := e.ActiveContainer(); c != nil {
			m.initFields(c)
		}
	}
}

// initializeTabs moves body tabs into the header and enables horizontal
// scrolling when the last tab would overflow.
func (m *Manager) initializeTabs(e *Entry) {
	c := e.Content
	if c == nil || len(c.Tabs) == 0 {
		if c != nil {
			c.TabsInHeader = false
		}
		e.TabScroll = false
		return
	}

	c.TabsInHeader = true
	e.HeaderBorder = false

	// Each tab renders as " label " plus a one-cell gap.
	used := 0
	for _, label := range c.Tabs {
		used += len([]rune(label)) + 3
	}
	e.TabScroll = used+15 > m.Width()
}

// initializeButtons moves form action buttons into the footer when the
// content has no footer of its own.
func (m *Manager) initializeButtons(e *Entry) {
	c := e.Content
	if c == nil || len(c.Actions) == 0 || len(c.Buttons) > 0 {
		return
	}
	c.Buttons = c.Actions
	c.Actions = nil
}
