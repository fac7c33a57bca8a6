package monitor

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/lifecycle"
)

// EditorFinishedMsg is sent when the external editor exits.
type EditorFinishedMsg struct {
	Field   *field.Field
	Content string
	Error   error
}

// editorCommand returns the user's editor: $VISUAL, then $EDITOR, then vim.
func editorCommand() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return "vim"
}

// openExternalEditor edits a textarea field in the external editor. Rich
// text fields get a .html file, plain ones a .md file.
func (m Model) openExternalEditor(f *field.Field) (tea.Model, tea.Cmd) {
	pattern := "adminui-edit-*.md"
	if f.HasClass(lifecycle.WidgetRichText) {
		pattern = "adminui-edit-*.html"
	}
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return m.setStatus("Failed to create temp file: "+err.Error(), true)
	}

	content, _ := f.Text()
	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return m.setStatus("Failed to write temp file: "+err.Error(), true)
	}
	tmpFile.Close()
	tmpPath := tmpFile.Name()

	cmd := exec.Command(editorCommand(), tmpPath)
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		data, readErr := os.ReadFile(tmpPath)
		os.Remove(tmpPath)
		if err != nil {
			return EditorFinishedMsg{Field: f, Error: err}
		}
		if readErr != nil {
			return EditorFinishedMsg{Field: f, Error: readErr}
		}
		return EditorFinishedMsg{Field: f, Content: string(data)}
	})
}

// handleEditorFinished stores the edited text in the field, which fires its
// change.
func (m Model) handleEditorFinished(msg EditorFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		return m.setStatus("Editor error: "+msg.Error.Error(), true)
	}
	if msg.Field == nil {
		return m, nil
	}
	msg.Field.Type(strings.TrimRight(msg.Content, "\n"))
	return m.setStatus("Content updated from editor", false)
}
