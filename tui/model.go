package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Isabellarossi/edgedb/server"
	"github.com/Isabellarossi/edgedb/service"
)

type viewMode int

const (
	viewList viewMode = iota
	viewInspect
	viewAnalytics
)

// Model is the Bubble Tea model for the edgeql-norm TUI.
type Model struct {
	target string
	client *server.Client
	stream *server.WatchStream
	cancel context.CancelFunc

	events      []service.Event
	displayRows []int // indices into events
	cursor      int   // index into displayRows
	follow      bool
	width       int
	height      int
	err         error
	view        viewMode

	filterMode   bool
	filterQuery  string
	filterCursor int

	inspectScroll int

	analyticsRows     []analyticsRow
	analyticsCursor   int
	analyticsSortMode analyticsSortMode

	alert    string
	alertSeq int
}

// eventMsg carries a received Event from the Watch stream.
type eventMsg struct{ Event service.Event }

// errMsg carries an error from the gRPC connection or stream.
type errMsg struct{ Err error }

// connectedMsg is sent after the Watch stream is established.
type connectedMsg struct {
	client *server.Client
	stream *server.WatchStream
	cancel context.CancelFunc
}

type clearAlertMsg struct{ seq int }

// New creates a new Model targeting the given edgeql-normd address.
func New(target string) Model {
	return Model{
		target: target,
		follow: true,
	}
}

// Init starts the gRPC connection.
func (m Model) Init() tea.Cmd {
	return connect(m.target)
}

func connect(target string) tea.Cmd {
	return func() tea.Msg {
		client, err := server.Dial(target)
		if err != nil {
			return errMsg{Err: fmt.Errorf("dial %s: %w", target, err)}
		}
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := client.Watch(ctx)
		if err != nil {
			cancel()
			_ = client.Close()
			return errMsg{Err: fmt.Errorf("watch %s: %w", target, err)}
		}
		return connectedMsg{client: client, stream: stream, cancel: cancel}
	}
}

func recvEvent(stream *server.WatchStream) tea.Cmd {
	return func() tea.Msg {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return errMsg{Err: errors.New("server closed the stream")}
		}
		if err != nil {
			return errMsg{Err: err}
		}
		return eventMsg{Event: ev}
	}
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.client = msg.client
		m.stream = msg.stream
		m.cancel = msg.cancel
		return m, recvEvent(msg.stream)

	case eventMsg:
		m.events = append(m.events, msg.Event)
		if m.view == viewList {
			m = m.rebuild()
		}
		return m, recvEvent(m.stream)

	case errMsg:
		m.err = msg.Err
		return m, nil

	case clearAlertMsg:
		if msg.seq == m.alertSeq {
			m.alert = ""
		}
		return m, nil

	case editorResultMsg:
		return m.handleEditorResult(msg)

	case tea.KeyMsg:
		switch m.view {
		case viewInspect:
			return m.updateInspect(msg)
		case viewAnalytics:
			return m.updateAnalytics(msg)
		case viewList:
			return m.updateList(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	if m.err != nil {
		return friendlyError(m.err, m.width)
	}

	switch m.view {
	case viewInspect:
		return m.withAlert(m.renderInspector())
	case viewAnalytics:
		return m.withAlert(m.renderAnalytics())
	case viewList:
	}

	if len(m.events) == 0 {
		return m.withAlert("Waiting for queries...")
	}

	var footer string
	switch {
	case m.filterMode:
		footer = "  filter: " + renderInputWithCursor(m.filterQuery, m.filterCursor)
	default:
		items := []string{
			"q: quit", "j/k: navigate", "enter: inspect", "a: analytics",
			"c: copy key", "C: copy bound", "e: edit+normalize", "w/W: export json/md",
		}
		if m.filterQuery != "" {
			items = append(items, "esc: clear filter ["+describeFilter(m.filterQuery)+"]")
		} else {
			items = append(items, "/: filter")
		}
		footer = wrapFooterItems(items, m.width)
	}

	footerLines := strings.Count(footer, "\n") + 1
	listHeight := max(m.height-9-footerLines, 3)

	return m.withAlert(strings.Join([]string{
		m.renderList(listHeight),
		m.renderPreview(),
		footer,
	}, "\n"))
}

func (m Model) withAlert(s string) string {
	if m.alert == "" {
		return s
	}
	return s + "\n  " + m.alert
}

// rebuild recomputes the visible rows after the event list or filter changed.
func (m Model) rebuild() Model {
	m.displayRows = matchingEvents(m.events, m.filterQuery)
	if m.follow {
		m.cursor = max(len(m.displayRows)-1, 0)
	} else {
		m.cursor = min(m.cursor, max(len(m.displayRows)-1, 0))
	}
	return m
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.client != nil {
		_ = m.client.Close()
	}
	return m, tea.Quit
}

func (m Model) showAlert(text string) (tea.Model, tea.Cmd) {
	m.alertSeq++
	m.alert = text
	seq := m.alertSeq
	return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearAlertMsg{seq: seq}
	})
}

// cursorEvent returns the Event at the cursor, or nil when nothing is shown.
func (m Model) cursorEvent() *service.Event {
	if m.cursor < 0 || m.cursor >= len(m.displayRows) {
		return nil
	}
	return &m.events[m.displayRows[m.cursor]]
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterMode {
		return m.updateFilter(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "enter":
		if len(m.displayRows) > 0 {
			m.view = viewInspect
			m.inspectScroll = 0
		}
		return m, nil
	case "a":
		return m.openAnalytics(), nil
	case "c":
		return m.copyKey()
	case "C":
		return m.copyBound()
	case "e":
		return m.startEdit()
	case "w", "W":
		format := exportJSON
		if msg.String() == "W" {
			format = exportMarkdown
		}
		path, err := writeExport(m.events, m.filterQuery, format, "")
		if err != nil {
			return m.showAlert("export failed: " + err.Error())
		}
		return m.showAlert("exported to " + path)
	case "/":
		m.filterMode = true
		m.filterCursor = utf8.RuneCountInString(m.filterQuery)
		return m, nil
	case "esc":
		if m.filterQuery != "" {
			m.filterQuery = ""
			m = m.rebuild()
		}
		return m, nil
	case "j", "down", "k", "up":
		return m.navigateCursor(msg.String()), nil
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filterMode = false
		return m, nil
	case "esc":
		m.filterMode = false
		m.filterQuery = ""
		m.filterCursor = 0
		return m.rebuild(), nil
	case "ctrl+c":
		return m.quit()
	case "left":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
		return m, nil
	case "right":
		if m.filterCursor < utf8.RuneCountInString(m.filterQuery) {
			m.filterCursor++
		}
		return m, nil
	case "backspace":
		if m.filterCursor > 0 {
			runes := []rune(m.filterQuery)
			m.filterQuery = string(runes[:m.filterCursor-1]) + string(runes[m.filterCursor:])
			m.filterCursor--
			m = m.rebuild()
		}
		return m, nil
	case "up", "down":
		return m.navigateCursor(msg.String()), nil
	}

	// Ignore non-printable keys.
	r := msg.Runes
	if len(r) == 0 {
		return m, nil
	}

	runes := []rune(m.filterQuery)
	m.filterQuery = string(runes[:m.filterCursor]) + string(r) + string(runes[m.filterCursor:])
	m.filterCursor += len(r)
	return m.rebuild(), nil
}

func (m Model) navigateCursor(key string) Model {
	switch key {
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.follow = false
		}
	case "j", "down":
		if len(m.displayRows) > 0 && m.cursor < len(m.displayRows)-1 {
			m.cursor++
		}
		if len(m.displayRows) > 0 && m.cursor == len(m.displayRows)-1 {
			m.follow = true
		}
	}
	return m
}
