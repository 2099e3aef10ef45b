// Package panel is a terminal control panel for the jlsvc daemon. It invokes
// the same greet, start_service and stop_service commands as any other
// bridge caller.
package panel

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tessro/jlsvc/internal/daemon"
)

// RefreshInterval is how often the panel polls status.
const RefreshInterval = 2 * time.Second

// defaultWidth is used until the first WindowSizeMsg arrives.
const defaultWidth = 80

// Client is the subset of daemon.Client the panel uses.
type Client interface {
	Greet(name string) (string, error)
	StartService() error
	StopService() error
	Status() (*daemon.StatusResponse, error)
}

// Model is the Bubbletea model for the control panel.
type Model struct {
	client Client
	keys   KeyBindings
	help   help.Model
	input  textinput.Model

	width     int
	prompting bool

	status    *daemon.StatusResponse
	statusErr error

	// Last command outcome
	lastCommand daemon.MessageType
	lastText    string
	lastErr     error
}

// New creates a panel model backed by client.
func New(client Client) Model {
	ti := textinput.New()
	ti.Placeholder = "name"
	ti.Prompt = "Name: "
	ti.CharLimit = 128

	return Model{
		client: client,
		keys:   DefaultKeyBindings(),
		help:   help.New(),
		input:  ti,
		width:  defaultWidth,
	}
}

// Run starts the panel and blocks until the user quits.
func Run(client Client) error {
	slog.Debug("panel: starting")
	p := tea.NewProgram(New(client), tea.WithAltScreen())
	_, err := p.Run()
	slog.Debug("panel: exited", "error", err)
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus(), tick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchStatus(), tick())

	case statusMsg:
		m.status = msg.Status
		m.statusErr = msg.Err
		return m, nil

	case resultMsg:
		m.lastCommand = msg.Command
		m.lastText = msg.Text
		m.lastErr = msg.Err
		return m, m.fetchStatus()

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateNormal(msg)
	}

	// Cursor blink and other component messages.
	if m.prompting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m, m.invoke(daemon.MsgStartService, func() (string, error) {
			return "worker started", m.client.StartService()
		})
	case key.Matches(msg, m.keys.Stop):
		return m, m.invoke(daemon.MsgStopService, func() (string, error) {
			return "worker stopped", m.client.StopService()
		})
	case key.Matches(msg, m.keys.Greet):
		m.prompting = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchStatus()
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.prompting = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		name := strings.TrimSpace(m.input.Value())
		m.prompting = false
		m.input.Blur()
		return m, m.invoke(daemon.MsgGreet, func() (string, error) {
			return m.client.Greet(name)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// invoke runs fn off the update loop and reports its outcome.
func (m Model) invoke(command daemon.MessageType, fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		if err != nil {
			return resultMsg{Command: command, Err: err}
		}
		return resultMsg{Command: command, Text: text}
	}
}

func (m Model) fetchStatus() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		status, err := client.Status()
		return statusMsg{Status: status, Err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Width(m.width).Render("🧪 jlsvc"))
	b.WriteString("\n\n")
	b.WriteString(m.workerView())
	b.WriteString("\n")

	if m.lastCommand != "" {
		wrap := max(m.width-2, 10)
		if m.lastErr != nil {
			text := fmt.Sprintf("%s: %s", m.lastCommand, daemon.ErrorText(m.lastErr))
			b.WriteString(errorStyle.Render(wordwrap.String(text, wrap)))
		} else {
			b.WriteString(resultStyle.Render(wordwrap.String(m.lastText, wrap)))
		}
		b.WriteString("\n")
	}

	if m.prompting {
		b.WriteString("\n ")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render(m.help.View(promptKeyMap{m.keys})))
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.help.View(normalKeyMap{m.keys})))
	}
	return b.String()
}

// workerView renders the worker state block.
func (m Model) workerView() string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, " ", labelStyle.Render(label), value) + "\n"
	}

	if m.statusErr != nil {
		return row("Daemon", errorStyle.UnsetPadding().Render(daemon.ErrorText(m.statusErr)))
	}
	if m.status == nil {
		return row("Worker", idleStyle.Render("loading..."))
	}

	w := m.status.Worker
	var b strings.Builder
	if w.State == "running" {
		b.WriteString(row("Worker", runningStyle.Render("running")))
		b.WriteString(row("PID", fmt.Sprintf("%d", w.PID)))
		b.WriteString(row("Uptime", w.Uptime))
	} else {
		b.WriteString(row("Worker", idleStyle.Render(w.State)))
	}
	b.WriteString(row("Command", w.Command))
	return b.String()
}
