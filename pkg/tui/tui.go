package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Inspector is what the TUI drives: a player session fed with hex payloads
// and slash commands.
type Inspector interface {
	PlayerName() string
	Source() string
	MaxLogLines() int
	// Submit decodes and classifies a hex encoded action list.
	Submit(payloadHex string) []string
	// Command runs a slash command such as "/windows".
	Command(cmd string) []string
}

// TUI is the interactive transaction inspector
type TUI struct {
	inspector Inspector
	viewport  viewport.Model
	textInput textinput.Model
	logs      []string
	logMutex  sync.Mutex
	ready     bool
	width     int
	height    int
}

// New creates a new TUI instance
func New(inspector Inspector) *TUI {
	ti := textinput.New()
	ti.Placeholder = "Paste a hex action list or type /help..."
	ti.Focus()
	ti.CharLimit = 8192
	ti.Width = 50

	return &TUI{
		inspector: inspector,
		textInput: ti,
		logs:      []string{},
	}
}

// Init initializes the TUI
func (t *TUI) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles TUI updates
func (t *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return t, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(t.textInput.Value())
			if input == "" {
				return t, nil
			}
			var lines []string
			if strings.HasPrefix(input, "/") {
				t.AddLog("cmd > " + input)
				lines = t.inspector.Command(input)
			} else {
				t.AddLog("tx  > " + abbreviate(input, 48))
				lines = t.inspector.Submit(input)
			}
			for _, line := range lines {
				t.AddLog(line)
			}
			t.textInput.SetValue("")
			t.refresh(true)
			return t, nil
		}

	case tea.WindowSizeMsg:
		if !t.ready {
			t.viewport = viewport.New(msg.Width, msg.Height-3)
			t.viewport.SetContent(t.renderLogs())
			t.ready = true
		} else {
			t.viewport.Width = msg.Width
			t.viewport.Height = msg.Height - 3
		}
		t.width = msg.Width
		t.height = msg.Height
		t.textInput.Width = msg.Width - 2

	case LogMsg:
		t.AddLog(string(msg))
		t.refresh(false)
		return t, nil
	}

	// update viewport
	if t.ready {
		t.viewport, cmd = t.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	t.textInput, cmd = t.textInput.Update(msg)
	cmds = append(cmds, cmd)

	return t, tea.Batch(cmds...)
}

// refresh re-renders the log. Unless force is set, the view only follows
// new lines when it was already scrolled to the bottom.
func (t *TUI) refresh(force bool) {
	if !t.ready {
		return
	}
	wasAtBottom := t.viewport.AtBottom()
	t.viewport.SetContent(t.renderLogs())
	if force || wasAtBottom {
		t.viewport.GotoBottom()
	}
}

// View renders the TUI
func (t *TUI) View() string {
	if !t.ready {
		return "Initializing..."
	}

	title := titleStyle.Render(fmt.Sprintf("Inventory Inspector - %s (%s)", t.inspector.PlayerName(), t.inspector.Source()))
	helpText := helpStyle.Render("Enter: submit • /help: commands • Ctrl+C/Esc: quit")

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s",
		title,
		t.viewport.View(),
		inputStyle.Render("> "+t.textInput.View()),
		helpText,
	)
}

// AddLog adds a log line to the TUI
func (t *TUI) AddLog(msg string) {
	t.logMutex.Lock()
	defer t.logMutex.Unlock()
	t.logs = append(t.logs, msg)

	// trim logs
	maxLines := t.inspector.MaxLogLines()
	if maxLines > 0 && len(t.logs) > maxLines {
		t.logs = t.logs[len(t.logs)-maxLines:]
	}
}

// Logs returns a copy of the current log lines
func (t *TUI) Logs() []string {
	t.logMutex.Lock()
	defer t.logMutex.Unlock()
	return append([]string(nil), t.logs...)
}

func (t *TUI) renderLogs() string {
	t.logMutex.Lock()
	defer t.logMutex.Unlock()
	return strings.Join(t.logs, "\n")
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// LogMsg is a message type for logging
type LogMsg string

// Writer is an io.Writer that sends output to the TUI. Lines are queued and
// delivered from a separate goroutine, so it may be written from inside
// Update. Lines are dropped while the queue is full or after Close.
type Writer struct {
	program *tea.Program
	lines   chan string
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

// NewWriter creates a new TUI Writer
func NewWriter(program *tea.Program) *Writer {
	return &Writer{program: program, lines: make(chan string, 1024), done: make(chan struct{})}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (n int, err error) {
	msg := strings.TrimSuffix(string(p), "\n")
	if msg == "" {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}
	w.once.Do(func() { go w.pump() })
	select {
	case w.lines <- msg:
	default:
	}
	return len(p), nil
}

// Close stops delivery. Call it once the program has exited.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	return nil
}

func (w *Writer) pump() {
	defer close(w.done)
	for line := range w.lines {
		w.program.Send(LogMsg(line))
	}
}

// Start creates a new TUI program, returning the program and a writer for logging
func Start(inspector Inspector) (*tea.Program, *Writer) {
	t := New(inspector)
	p := tea.NewProgram(t, tea.WithAltScreen())
	writer := NewWriter(p)
	return p, writer
}
