package monitor

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdown renders a markdown body for an entry at width, caching the
// output per entry and width.
func (m Model) markdown(entryID, content string, width int) string {
	key := entryID + "@" + strconv.Itoa(width)
	if out, ok := m.views.markdown[key]; ok {
		return out
	}
	out := renderMarkdown(content, width)
	m.views.markdown[key] = out
	return out
}

func markdownEntry(key string) string {
	id, _, _ := strings.Cut(key, "@")
	return id
}

// renderMarkdown renders content with glamour, falling back to the raw
// text when the renderer fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(max(width, 10)),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
