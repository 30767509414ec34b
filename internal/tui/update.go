package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
	"handover-launcher/services"
)

// osTimeout bounds schtasks, netsh and browser calls
const osTimeout = 30 * time.Second

func startCmd(l *services.Launcher, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := l.StartText(context.Background(), text)
		return startResultMsg{err: err}
	}
}

func stopCmd(l *services.Launcher, quit bool) tea.Cmd {
	return func() tea.Msg {
		return stopResultMsg{err: l.Stop(context.Background()), quit: quit}
	}
}

func actionCmd(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), osTimeout)
		defer cancel()
		msg, err := fn(ctx)
		return actionResultMsg{message: msg, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case eventMsg:
		m.handleEvent(proc.Event(msg))
		return m, channelReaderCmd(m.sink)

	case infoMsg:
		m.setStatus("%s", string(msg))
		m.appendLine(string(msg))
		return m, channelReaderCmd(m.sink)

	case startResultMsg:
		if msg.err != nil {
			m.setError("%s", describeStartError(msg.err))
		}
		return m, nil

	case stopResultMsg:
		if msg.err != nil && !errors.Is(msg.err, proc.ErrNotRunning) {
			m.setError("Error stopping server: %v", msg.err)
		}
		if msg.quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.setError("%s", describeActionError(msg.err))
		} else {
			m.setStatus("%s", msg.message)
			m.appendLine(msg.message)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(ev proc.Event) {
	switch ev.Type {
	case proc.EventOutput:
		m.appendLine(services.ServerPrefix + ev.Line)
	case proc.EventStateChange:
		m.state = ev.To
		m.pid, m.port = ev.Pid, ev.Port
		switch ev.To {
		case models.StateRunning:
			m.setStatus("Server started! Access: %s", services.URL(ev.Port))
			for _, line := range services.Banner(ev.Port) {
				m.appendLine(line)
			}
		case models.StateStopping:
			m.setStatus("Stopping server...")
		case models.StateStopped:
			if ev.Err != nil {
				m.setError("%v", ev.Err)
			} else {
				m.setStatus("Server stopped.")
			}
		}
	case proc.EventEarlyExit:
		m.appendLine("ERROR: Server did not start. Check the output above.")
	case proc.EventForceKill:
		m.appendLine("Server did not stop in time, killing it...")
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmQuit {
		switch msg.String() {
		case "y", "Y", "enter":
			m.confirmQuit = false
			m.setStatus("Stopping server before quitting...")
			return m, stopCmd(m.launcher, true)
		case "n", "N", "esc":
			m.confirmQuit = false
			m.setStatus("")
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		if m.state.Active() {
			m.confirmQuit = true
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if m.state.Active() {
			m.setError("%v", proc.ErrAlreadyRunning)
			return m, nil
		}
		m.errorMsg = ""
		m.setStatus("Starting server on port %s...", m.portInput.Value())
		return m, startCmd(m.launcher, m.portInput.Value())

	case "ctrl+s":
		if m.state != models.StateRunning && m.state != models.StateStarting {
			m.setError("%v", proc.ErrNotRunning)
			return m, nil
		}
		return m, stopCmd(m.launcher, false)

	case "ctrl+o":
		if m.state != models.StateRunning {
			m.setError("%v", proc.ErrNotRunning)
			return m, nil
		}
		url := services.URL(m.port)
		runner := m.runner
		return m, actionCmd(func(ctx context.Context) (string, error) {
			return "Browser opened: " + url, services.OpenBrowser(ctx, runner, url)
		})

	case "ctrl+a":
		return m, m.toggleAutoStart()

	case "ctrl+f":
		return m, m.toggleFirewall()

	case "ctrl+l":
		port := m.currentPort()
		return m, actionCmd(func(ctx context.Context) (string, error) {
			url, err := services.LANURL(port)
			if err != nil {
				return "", err
			}
			return "Access from other computers: " + url, nil
		})

	case "pgup", "pgdown", "up", "down", "home", "end":
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}

	// 其余按键交给端口输入框
	var cmd tea.Cmd
	m.portInput, cmd = m.portInput.Update(msg)
	return m, cmd
}

// currentPort is the running port, else the saved one
func (m *Model) currentPort() int {
	if m.state.Active() && m.port > 0 {
		return m.port
	}
	return m.launcher.Store().LoadPort()
}

func (m *Model) toggleAutoStart() tea.Cmd {
	a := m.autostart
	enabled := m.launcher.Store().Load().AutoStartEnabled
	return actionCmd(func(ctx context.Context) (string, error) {
		if enabled {
			return "Auto-start disabled", a.Disable(ctx)
		}
		return "Auto-start enabled (panel at logon)", a.Enable(ctx, models.AutoStartGUI, 0)
	})
}

func (m *Model) toggleFirewall() tea.Cmd {
	f := m.firewall
	open := m.launcher.Store().Load().FirewallPort != nil
	port := m.currentPort()
	return actionCmd(func(ctx context.Context) (string, error) {
		if open {
			return "Firewall rule removed", f.Close(ctx)
		}
		return "Firewall rule created: " + services.RuleName(port), f.Open(ctx, port)
	})
}

func describeStartError(err error) string {
	var pre *services.PreconditionError
	if errors.As(err, &pre) && pre.Kind == services.PreconditionMissingBundle && len(pre.Problems) > 0 {
		return pre.Problems[0]
	}
	return err.Error()
}

func describeActionError(err error) string {
	if errors.Is(err, services.ErrUnsupportedPlatform) {
		return "Only available on Windows"
	}
	return err.Error()
}
