package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"handover-launcher/internal/models"
	"handover-launcher/services"
)

// Model is the launcher panel: port field, start/stop, server output and OS integration actions
type Model struct {
	launcher  *services.Launcher
	autostart *services.AutoStart
	firewall  *services.Firewall
	runner    services.CommandRunner
	sink      *Sink

	width  int
	height int

	portInput textinput.Model
	logView   viewport.Model
	lines     []string
	maxLines  int

	state models.State
	pid   int
	port  int

	statusMsg   string
	errorMsg    string
	confirmQuit bool
	quitting    bool
}

/**
 * Create the panel model
 * @param {*services.Launcher} launcher - Launcher owning the server
 * @param {*services.AutoStart} autostart - Scheduled task integration
 * @param {*services.Firewall} firewall - Firewall integration
 * @param {*Sink} sink - Subscribed to the supervisor by the caller
 * @param {int} maxLines - Output lines kept in the log view
 * @returns {*Model} Model with the port field set to the saved port
 */
func New(launcher *services.Launcher, autostart *services.AutoStart, firewall *services.Firewall, sink *Sink, maxLines int) *Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = strconv.Itoa(launcher.Store().DefaultPort())
	ti.CharLimit = 5
	ti.Width = 6
	ti.SetValue(strconv.Itoa(launcher.Store().LoadPort()))
	ti.Focus()

	if maxLines <= 0 {
		maxLines = 500
	}
	m := &Model{
		launcher:  launcher,
		autostart: autostart,
		firewall:  firewall,
		runner:    services.ExecRunner{},
		sink:      sink,
		portInput: ti,
		logView:   viewport.New(DefaultWidth-4, DefaultHeight-ChromeHeight),
		maxLines:  maxLines,
		state:     launcher.Supervisor().State(),
	}
	for _, p := range launcher.Layout().Check() {
		m.appendLine("ERROR: " + p)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, channelReaderCmd(m.sink))
}

// appendLine adds a line to the log view and keeps it scrolled to the end
func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > m.maxLines {
		m.lines = m.lines[len(m.lines)-m.maxLines:]
	}
	atBottom := m.logView.AtBottom()
	m.logView.SetContent(strings.Join(m.lines, "\n"))
	if atBottom || m.logView.TotalLineCount() <= m.logView.Height {
		m.logView.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	h := height - ChromeHeight
	if h < MinLogHeight {
		h = MinLogHeight
	}
	m.logView.Width = width - logStyle.GetHorizontalFrameSize()
	m.logView.Height = h
	m.logView.SetContent(strings.Join(m.lines, "\n"))
	m.logView.GotoBottom()
}

// Lines returns the content of the log view
func (m *Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

func (m *Model) State() models.State {
	return m.state
}

func (m *Model) ConfirmingQuit() bool {
	return m.confirmQuit
}

func (m *Model) setError(format string, args ...interface{}) {
	m.errorMsg = fmt.Sprintf(format, args...)
	m.statusMsg = ""
	m.appendLine("ERROR: " + m.errorMsg)
}

func (m *Model) setStatus(format string, args ...interface{}) {
	m.statusMsg = fmt.Sprintf(format, args...)
	m.errorMsg = ""
}
