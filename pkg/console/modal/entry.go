package modal

import (
	"time"

	"github.com/marcus/adminui/pkg/console/form"
)

// Tier is the z-index of an entry relative to the shared backdrop.
type Tier int

const (
	// TierBack sits below the backdrop: visible but dimmed and inert.
	TierBack Tier = 1040
	// TierFront sits above the backdrop and receives input.
	TierFront Tier = 1050
)

// baseBackdropZ is the backdrop z-index while a single modal is open.
const baseBackdropZ = 1040

// Offset is the stacking displacement of an entry from its natural position.
type Offset struct {
	X, Y int
}

// Viewport is the size of the rendering surface in cells.
type Viewport struct {
	Width, Height int
}

// HideFunc is called with the saved arguments when an entry is dismissed.
type HideFunc func(args any)

// Messages are the user-visible strings the manager renders itself.
type Messages struct {
	Loading       string `json:"loading"`
	Error         string `json:"error"`
	Forbidden     string `json:"forbidden"`
	ErrorOccurred string `json:"error_occurred"`
}

// DefaultMessages returns the English messages.
func DefaultMessages() Messages {
	return Messages{
		Loading:       "Loading",
		Error:         "Error",
		Forbidden:     "You do not have permission to perform this action.",
		ErrorOccurred: "An error occurred while processing your request.",
	}
}

// Config tunes stacking and resizing.
type Config struct {
	// Left and Top are the per-depth offset steps.
	Left, Top int
	// ResizeDebounce delays re-clamping after a viewport resize.
	ResizeDebounce time.Duration
	Messages       Messages
}

// DefaultConfig returns 20/20 offsets and a 150ms resize debounce.
func DefaultConfig() Config {
	return Config{
		Left:           20,
		Top:            20,
		ResizeDebounce: 150 * time.Millisecond,
		Messages:       DefaultMessages(),
	}
}

// Entry is one open modal.
type Entry struct {
	ID      string
	Content *Content
	Tier    Tier
	Offset  Offset

	// Loading is set while NavigateTo replaces the content.
	Loading bool
	// BodyMaxHeight is the clamp computed by SetMaxHeight.
	BodyMaxHeight int
	// SubmitVisible and LoaderVisible track the footer submit control and
	// its progress indicator.
	SubmitVisible bool
	LoaderVisible bool
	// HeaderBorder is dropped once tabs move into the header.
	HeaderBorder bool
	// TabScroll is set when the header tab list overflows the modal width.
	TabScroll bool
	Focused   bool

	onHide     HideFunc
	onHideArgs any
}

// Interactive reports whether the entry is above the backdrop.
func (e *Entry) Interactive() bool { return e.Tier == TierFront }

// Placeholder reports whether the entry is a loading placeholder.
func (e *Entry) Placeholder() bool { return e.Content != nil && e.Content.Placeholder }

// HeaderHeight is the title row plus its rule, plus a row of tabs when the
// tabs sit in the header.
func (e *Entry) HeaderHeight() int {
	h := 2
	if e.Content != nil && e.Content.TabsInHeader && len(e.Content.Tabs) > 0 {
		h++
	}
	return h
}

// FooterHeight is the button row plus its rule, or zero without buttons.
func (e *Entry) FooterHeight() int {
	if e.Content == nil || len(e.Content.Buttons) == 0 {
		return 0
	}
	return 2
}

// ActiveContainer returns the active tab pane of the entry's form, the form
// itself, or nil for content without a form.
func (e *Entry) ActiveContainer() *form.Container {
	if e == nil || e.Content == nil {
		return nil
	}
	if p := e.Content.Panes.Active(); p != nil {
		return p
	}
	return e.Content.Form
}

// BeginSubmit swaps the submit control for its progress indicator.
func (e *Entry) BeginSubmit() {
	e.SubmitVisible = false
	e.LoaderVisible = true
}
