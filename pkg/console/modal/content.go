package modal

import (
	"github.com/marcus/adminui/pkg/console/form"
)

// Button is a footer or form-action button.
type Button struct {
	Label  string
	Action string
	Submit bool
}

// Content is what a modal displays.
type Content struct {
	Title    string
	Body     []string
	Markdown bool

	// Buttons is the footer button row.
	Buttons []Button
	// Actions are entity form action buttons still inside the body; the
	// manager moves them into the footer when there is none.
	Actions []Button

	// Tabs are the tab labels; TabsInHeader is set once they are moved into
	// the modal header.
	Tabs         []string
	TabsInHeader bool

	// Form is the form container shown in the body, and Panes its tab panes
	// when the form is tabbed.
	Form  *form.Container
	Panes *form.Tabs

	// Placeholder marks a loading placeholder.
	Placeholder bool
}

// Skeleton returns an empty modal with a title, the equivalent of the
// header/body/footer shell used for message modals.
func Skeleton(title string) *Content {
	return &Content{Title: title}
}

// Message returns a skeleton with a single body paragraph.
func Message(header, message string) *Content {
	c := Skeleton(header)
	c.Body = []string{message}
	return c
}

// loadingPlaceholder is shown while a link is fetched.
func loadingPlaceholder(m Messages) *Content {
	c := Skeleton(m.Loading)
	c.Body = []string{"⟳"}
	c.Placeholder = true
	return c
}
