package tui

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Isabellarossi/edgedb/service"
)

type editorResultMsg struct {
	event service.Event
	empty bool
	err   error
}

const editorHeader = "# Edit this query, then save and quit to normalize it.\n" +
	"# To cancel, clear the file or quit without saving.\n" +
	"# Lines starting with # are stripped before normalizing.\n\n"

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	ev := m.cursorEvent()
	if ev == nil || ev.Query == "" {
		return m, nil
	}
	if m.client == nil {
		return m.showAlert("not connected")
	}
	return m, openEditor(m.client.Normalize, ev.Query)
}

type normalizeFunc func(ctx context.Context, text string) (service.Event, error)

func openEditor(normalize normalizeFunc, query string) tea.Cmd {
	f, err := os.CreateTemp("", "edgeql-norm-*.edgeql")
	if err != nil {
		return func() tea.Msg {
			return editorResultMsg{err: err}
		}
	}
	path := f.Name()

	if _, err := f.WriteString(editorHeader + query); err != nil {
		_ = f.Close()
		_ = os.Remove(path) //nolint:gosec // path is a controlled temp file created by this function
		return func() tea.Msg {
			return editorResultMsg{err: err}
		}
	}
	_ = f.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.CommandContext(context.Background(), editor, path) //nolint:gosec // $EDITOR is user-controlled
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	return tea.ExecProcess(c, func(err error) tea.Msg {
		defer func() { _ = os.Remove(path) }()

		if err != nil {
			return editorResultMsg{err: err}
		}

		edited, err := os.ReadFile(path) //nolint:gosec // path is our own temp file
		if err != nil {
			return editorResultMsg{err: err}
		}

		q := stripComments(string(edited))
		if q == "" {
			return editorResultMsg{empty: true}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ev, err := normalize(ctx, q)
		return editorResultMsg{event: ev, err: err}
	})
}

func (m Model) handleEditorResult(msg editorResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.empty:
		return m, nil // cancelled
	case msg.err != nil:
		var exitErr *exec.ExitError
		if errors.As(msg.err, &exitErr) {
			return m.showAlert("editor failed: " + msg.err.Error())
		}
		return m.showAlert("normalize failed: " + msg.err.Error())
	}
	// The daemon publishes the edited query as a regular event, so it shows
	// up in the list through the Watch stream.
	ev := msg.event
	if ev.Key == "" {
		return m.showAlert(ev.Outcome.String())
	}
	return m.showAlert(ev.Outcome.String() + ": " + truncate(ev.Key, max(m.width-20, 20)))
}

// stripComments removes EdgeQL line comments (# ...) and trims whitespace.
func stripComments(s string) string {
	var lines []string
	for line := range strings.SplitSeq(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
