// Package monitor renders a console page and its modal stack in the
// terminal and feeds keyboard and mouse input back into it.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/lookup"
	"github.com/marcus/adminui/pkg/console/page"
	modalview "github.com/marcus/adminui/pkg/monitor/modal"
	"github.com/marcus/adminui/pkg/monitor/mouse"
)

const (
	defaultResizeDebounce = 150 * time.Millisecond
	statusTimeout         = 2 * time.Second
	dispatchBuffer        = 64
)

// DispatchMsg carries a request continuation onto the Bubble Tea loop.
type DispatchMsg struct {
	fn func()
}

// ResizeSettledMsg fires once the resize debounce has elapsed.
type ResizeSettledMsg struct {
	Gen uint64
}

// ClearStatusMsg clears the status line.
type ClearStatusMsg struct{}

// CopiedMsg reports the outcome of copying the form values.
type CopiedMsg struct {
	Err error
}

// Dispatcher queues request continuations for the UI loop. Its Dispatch
// method is the page's ajax dispatcher.
type Dispatcher struct {
	ch chan func()
}

// NewDispatcher returns a buffered dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{ch: make(chan func(), dispatchBuffer)}
}

// Dispatch queues fn. It blocks while the queue is full.
func (d *Dispatcher) Dispatch(fn func()) {
	d.ch <- fn
}

// Wait returns a command that delivers the next continuation.
func (d *Dispatcher) Wait() tea.Cmd {
	return func() tea.Msg {
		return DispatchMsg{fn: <-d.ch}
	}
}

// Drain runs every queued continuation on the calling goroutine and
// returns how many ran.
func (d *Dispatcher) Drain() int {
	n := 0
	for {
		select {
		case fn := <-d.ch:
			fn()
			n++
		default:
			return n
		}
	}
}

// Link is a page link that opens a modal.
type Link struct {
	Label string
	URL   string
}

// Options configure a Model.
type Options struct {
	Title  string
	Links  []Link
	Source lookup.Source
	// Dispatcher must be the one the page's ajax client dispatches through.
	Dispatcher     *Dispatcher
	ResizeDebounce time.Duration
	Logger         *slog.Logger
	// Clipboard replaces the system clipboard writer.
	Clipboard func(text string) error
}

// views holds render state that must survive the value copies of Model.
type views struct {
	page     *modalview.Modal
	entries  map[string]*modalview.Modal
	markdown map[string]string
}

type editState struct {
	field *field.Field
	input textinput.Model
}

// Model is the Bubble Tea model of one console page.
type Model struct {
	page      *page.Page
	title     string
	links     []Link
	lookup    *lookup.Lookup
	dispatch  *Dispatcher
	debounce  time.Duration
	clipboard func(string) error
	logger    *slog.Logger
	ctx       context.Context

	Width  int
	Height int

	views *views
	mouse *mouse.Handler

	editing *editState
	picker  *picker

	StatusMessage string
	StatusIsError bool
}

// New creates the model for p.
func New(p *page.Page, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.ResizeDebounce
	if debounce <= 0 {
		debounce = defaultResizeDebounce
	}
	dispatch := opts.Dispatcher
	if dispatch == nil {
		dispatch = NewDispatcher()
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = copyToClipboard
	}
	source := opts.Source
	if source == nil {
		source = lookup.StaticSource{}
	}
	title := opts.Title
	if title == "" && p.Body != nil {
		title = p.Body.Class
	}

	return Model{
		page:      p,
		title:     title,
		links:     opts.Links,
		lookup:    p.Lookup(source),
		dispatch:  dispatch,
		debounce:  debounce,
		clipboard: clip,
		logger:    logger,
		ctx:       context.Background(),
		Width:     80,
		Height:    24,
		views:     &views{entries: map[string]*modalview.Modal{}, markdown: map[string]string{}},
		mouse:     mouse.NewHandler(),
	}
}

// Page returns the page the model renders.
func (m Model) Page() *page.Page { return m.page }

// Init starts listening for request continuations.
func (m Model) Init() tea.Cmd {
	return m.dispatch.Wait()
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		gen := m.page.Modals.Resize(viewport(msg.Width, msg.Height))
		return m, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return ResizeSettledMsg{Gen: gen}
		})

	case ResizeSettledMsg:
		m.page.Modals.ResizeSettled(msg.Gen)
		return m, nil

	case DispatchMsg:
		if msg.fn != nil {
			msg.fn()
		}
		m.afterStackChange()
		return m, m.dispatch.Wait()

	case ClearStatusMsg:
		m.StatusMessage, m.StatusIsError = "", false
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			return m.setStatus("Copy failed: "+msg.Err.Error(), true)
		}
		return m.setStatus("Copied form values", false)

	case EditorFinishedMsg:
		return m.handleEditorFinished(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

// setStatus shows a status message and schedules its removal.
func (m Model) setStatus(text string, isError bool) (Model, tea.Cmd) {
	m.StatusMessage, m.StatusIsError = text, isError
	return m, tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// afterStackChange drops render state of closed entries and focuses the
// top modal.
func (m *Model) afterStackChange() {
	open := make(map[string]bool)
	for _, e := range m.page.Modals.Modals() {
		open[e.ID] = true
	}
	for id := range m.views.entries {
		if !open[id] {
			delete(m.views.entries, id)
		}
	}
	for key := range m.views.markdown {
		if !open[markdownEntry(key)] {
			delete(m.views.markdown, key)
		}
	}
	m.page.Modals.FocusTop()
}
