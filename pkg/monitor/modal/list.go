package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ListItem represents an item in a list section.
type ListItem struct {
	ID    string // Unique identifier, returned on enter
	Label string // Display text
	// Detail is shown muted after the label.
	Detail string
	// Matched holds rune indexes of Label to highlight.
	Matched []int
	Data    any // Optional associated data
}

// ListOption is a functional option for List sections.
type ListOption func(*listSection)

// listSection renders a scrollable list of items.
type listSection struct {
	id           string
	items        []ListItem
	selectedIdx  *int // Owned by the caller, which moves it too
	maxVisible   int  // Maximum number of visible items
	scrollOffset int  // First visible item; survives renders
	empty        string
}

// List creates a list section with selectable items.
// selectedIdx is a pointer to the currently selected index (can be nil for no selection).
func List(id string, items []ListItem, selectedIdx *int, opts ...ListOption) Section {
	s := &listSection{
		id:          id,
		items:       items,
		selectedIdx: selectedIdx,
		maxVisible:  5, // Default
		empty:       "(no items)",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithEmptyText sets the text shown when the list has no items.
func WithEmptyText(text string) ListOption {
	return func(s *listSection) { s.empty = text }
}

// WithMaxVisible sets the maximum number of visible items.
func WithMaxVisible(n int) ListOption {
	return func(s *listSection) {
		if n > 0 {
			s.maxVisible = n
		}
	}
}

func (s *listSection) Render(contentWidth int, focusID, hoverID string) RenderedSection {
	if len(s.items) == 0 {
		return RenderedSection{Content: MutedText.Render(s.empty)}
	}

	// Determine visible range
	visibleCount := min(s.maxVisible, len(s.items))
	selectedIdx := 0
	if s.selectedIdx != nil {
		selectedIdx = *s.selectedIdx
	}

	// Adjust scroll to keep selection visible
	if selectedIdx < s.scrollOffset {
		s.scrollOffset = selectedIdx
	} else if selectedIdx >= s.scrollOffset+visibleCount {
		s.scrollOffset = selectedIdx - visibleCount + 1
	}

	// Clamp scroll offset
	maxScroll := max(0, len(s.items)-visibleCount)
	s.scrollOffset = clamp(s.scrollOffset, 0, maxScroll)

	// The selected item only gets the focused style while the list itself
	// holds focus
	listIsFocused := focusID == s.id

	var sb strings.Builder
	totalHeight := 0

	for i := 0; i < visibleCount; i++ {
		itemIdx := s.scrollOffset + i
		if itemIdx >= len(s.items) {
			break
		}

		item := s.items[itemIdx]
		isSelected := s.selectedIdx != nil && *s.selectedIdx == itemIdx
		isHovered := ItemRegionPrefix+item.ID == hoverID

		var style = ListItemNormal
		if isSelected && listIsFocused {
			style = ListItemFocused
		} else if isSelected {
			style = ListItemSelected // Selected but list not focused
		} else if isHovered {
			style = ListItemSelected
		}

		cursor := "  "
		if isSelected {
			cursor = ListCursor.Render("> ")
		}

		// Fuzzy matches are emphasised inside the label style
		line := cursor + highlight(item.Label, item.Matched, style)
		if item.Detail != "" {
			line += " " + MutedText.Render(item.Detail)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
		totalHeight++
	}

	// Show scroll indicators if needed
	content := sb.String()
	hasTopIndicator := s.scrollOffset > 0
	if hasTopIndicator {
		content = MutedText.Render("↑ more above") + "\n" + content
		totalHeight++
	}
	if s.scrollOffset+visibleCount < len(s.items) {
		content = content + "\n" + MutedText.Render("↓ more below")
		totalHeight++
	}

	// The list is one focusable so Tab leaves it; items are still
	// clickable through their own regions.
	focusables := []FocusableInfo{{
		ID:      s.id,
		OffsetX: 0,
		OffsetY: 0,
		Width:   contentWidth,
		Height:  totalHeight,
	}}

	// Item regions sit below the top indicator, if any
	top := 0
	if hasTopIndicator {
		top = 1
	}
	for i := 0; i < visibleCount && s.scrollOffset+i < len(s.items); i++ {
		focusables = append(focusables, FocusableInfo{
			ID:      ItemRegionPrefix + s.items[s.scrollOffset+i].ID,
			OffsetY: top + i,
			Width:   contentWidth,
			Height:  1,
		})
	}

	return RenderedSection{
		Content:    content,
		Focusables: focusables,
	}
}

// ItemRegionPrefix marks the hit regions of list items. A click on one is
// reported with the prefix; keys act on the list as a whole.
const ItemRegionPrefix = "item:"

// highlight renders label with the matched runes emphasised.
func highlight(label string, matched []int, style lipgloss.Style) string {
	if len(matched) == 0 {
		return style.Render(label)
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var sb strings.Builder
	for i, r := range []rune(label) {
		if hit[i] {
			sb.WriteString(ListMatch.Inherit(style).Render(string(r)))
		} else {
			sb.WriteString(style.Render(string(r)))
		}
	}
	return sb.String()
}

func (s *listSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	// Keys reach the list only while it holds focus, never its items
	if focusID != s.id {
		return "", nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return "", nil
	}

	if s.selectedIdx == nil {
		return "", nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if *s.selectedIdx > 0 {
			*s.selectedIdx--
		}
		return "", nil

	case "down", "j":
		if *s.selectedIdx < len(s.items)-1 {
			*s.selectedIdx++
		}
		return "", nil

	case "enter":
		// The selected item's ID is the action
		if *s.selectedIdx >= 0 && *s.selectedIdx < len(s.items) {
			return s.items[*s.selectedIdx].ID, nil
		}
		return "", nil

	case "home":
		*s.selectedIdx = 0
		return "", nil

	case "end":
		*s.selectedIdx = len(s.items) - 1
		return "", nil
	}

	return "", nil
}
