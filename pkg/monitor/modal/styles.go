package modal

import "github.com/charmbracelet/lipgloss"

// Colors shared by the page view and the modal stack.
var (
	// Primary colors
	Primary      = lipgloss.Color("212") // focus, default modal border
	Error        = lipgloss.Color("196") // danger variant, error modals
	Warning      = lipgloss.Color("214") // warning variant
	Info         = lipgloss.Color("45")  // cyan, fuzzy matches
	Muted        = lipgloss.Color("241") // hints, indicators
	BgSecondary  = lipgloss.Color("235") // modal background
	TextMuted    = lipgloss.Color("241") // secondary text
	BorderNormal = lipgloss.Color("240") // default border
	// BorderInert frames entries that sit below the backdrop.
	BorderInert = lipgloss.Color("238")
)

// Button styles
var (
	Button = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("238")).
		Padding(0, 2)

	ButtonFocused = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(Primary).
			Bold(true).
			Padding(0, 2)

	ButtonHover = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("245")).
			Padding(0, 2)

	ButtonDanger = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")).
			Padding(0, 2)

	ButtonDangerFocused = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(Error).
				Bold(true).
				Padding(0, 2)

	ButtonDangerHover = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("203")).
				Padding(0, 2)

	// ButtonLoading replaces a submit button while its form posts.
	ButtonLoading = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true).
			Padding(0, 2)
)

// Text styles
var (
	ModalTitle = lipgloss.NewStyle().Bold(true)
	MutedText  = lipgloss.NewStyle().Foreground(Muted)
	Body       = lipgloss.NewStyle() // Plain body text
	ErrorText  = lipgloss.NewStyle().Foreground(Error)
	CloseMark  = lipgloss.NewStyle().Foreground(Muted).Bold(true) // the × in the title row
	HintText   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

// Field styles
var (
	FieldLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true)

	FieldLabelFocused = lipgloss.NewStyle().
				Foreground(Primary).
				Bold(true)

	FieldValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	FieldPlaceholder = lipgloss.NewStyle().
				Foreground(Muted).
				Italic(true)

	// Swatch paints a color-picker preview cell.
	Swatch = lipgloss.NewStyle().Padding(0, 1)
)

// Tab styles
var (
	Tab = lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)

	TabActive = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("237")).
			Underline(true).
			Bold(true).
			Padding(0, 1)

	TabFocused = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(Primary).
			Bold(true).
			Padding(0, 1)
)

// List styles for list sections
var (
	ListItemNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	ListItemSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Foreground(lipgloss.Color("255"))

	ListItemFocused = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	ListCursor = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// ListMatch highlights the runes a lookup query matched.
	ListMatch = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)
)

// Backdrop dims whatever sits beneath the front modal. Dim strips the
// original colors first, so this is the only color left below it.
var Backdrop = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
