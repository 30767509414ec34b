package tui

import (
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handover-launcher/internal/config"
	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
	"handover-launcher/internal/store"
	"handover-launcher/services"
)

// newTestModel builds a panel over an empty bundle directory
func newTestModel(t *testing.T) *Model {
	t.Helper()
	base := t.TempDir()
	layout := config.ResolveLayout(base, base, "")
	st := store.New(layout)
	require.NoError(t, st.SavePort(8600))

	var cfg config.AppConfig
	cfg.Supervisor.GracePeriod = time.Second
	cfg.Supervisor.HistoryLines = 50
	launcher := services.NewLauncher(layout, cfg, st)

	sink := NewSink(16)
	t.Cleanup(sink.Close)
	return New(launcher,
		services.NewAutoStart(services.ExecRunner{}, st, "launcher", base),
		services.NewFirewall(services.ExecRunner{}, st),
		sink, 10)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelShowsSavedPortAndProblems(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "8600", m.portInput.Value())
	assert.Equal(t, models.StateIdle, m.State())

	lines := strings.Join(m.Lines(), "\n")
	assert.Contains(t, lines, "Node.js not found")
	assert.Contains(t, m.View(), "Shift Handover Log - Server")
}

func TestStartReportsMissingBundle(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	msg := cmd()
	res, ok := msg.(startResultMsg)
	require.True(t, ok)
	var pre *services.PreconditionError
	require.ErrorAs(t, res.err, &pre)

	m.Update(msg)
	assert.Contains(t, m.errorMsg, "Node.js not found")
	assert.Equal(t, models.StateIdle, m.launcher.Supervisor().State())
}

func TestOutputEventsReachTheLogView(t *testing.T) {
	m := newTestModel(t)

	m.Update(eventMsg(proc.Event{Type: proc.EventStateChange, From: models.StateStarting, To: models.StateRunning, Pid: 99, Port: 8600}))
	m.Update(eventMsg(proc.Event{Type: proc.EventOutput, Line: "listening on 8600"}))

	lines := m.Lines()
	assert.Equal(t, "[Server] listening on 8600", lines[len(lines)-1])
	assert.Contains(t, lines, "Server will be available at: http://localhost:8600")
	assert.Equal(t, models.StateRunning, m.State())
	assert.Contains(t, m.View(), "PID 99")
}

func TestLogViewKeepsLastLines(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 30; i++ {
		m.Update(eventMsg(proc.Event{Type: proc.EventOutput, Line: "line"}))
	}
	assert.Len(t, m.Lines(), 10)
}

func TestCrashIsShownAsError(t *testing.T) {
	m := newTestModel(t)
	crash := &proc.CrashError{ExitCode: 1}
	m.Update(eventMsg(proc.Event{Type: proc.EventStateChange, From: models.StateRunning, To: models.StateStopped, Err: crash}))
	assert.Contains(t, m.errorMsg, "terminated unexpectedly")
	assert.Equal(t, models.StateStopped, m.State())
}

func TestQuitWhileIdle(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestQuitWhileRunningAsksFirst(t *testing.T) {
	m := newTestModel(t)
	m.Update(eventMsg(proc.Event{Type: proc.EventStateChange, From: models.StateStarting, To: models.StateRunning, Pid: 1, Port: 8600}))

	_, cmd := m.Update(key("ctrl+c"))
	assert.Nil(t, cmd)
	assert.True(t, m.ConfirmingQuit())
	assert.Contains(t, m.View(), "Stop it and quit?")

	_, cmd = m.Update(key("n"))
	assert.Nil(t, cmd)
	assert.False(t, m.ConfirmingQuit())

	m.Update(key("ctrl+c"))
	_, cmd = m.Update(key("y"))
	require.NotNil(t, cmd)

	// nothing really runs, the stop answers not running and the panel still quits
	msg := cmd()
	res, ok := msg.(stopResultMsg)
	require.True(t, ok)
	assert.True(t, res.quit)
	assert.True(t, errors.Is(res.err, proc.ErrNotRunning))
	_, cmd = m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestStopWhenIdle(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("ctrl+s"))
	assert.Nil(t, cmd)
	assert.Equal(t, proc.ErrNotRunning.Error(), m.errorMsg)
}

func TestAutoStartOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("would register a real scheduled task")
	}
	m := newTestModel(t)
	_, cmd := m.Update(key("ctrl+a"))
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, "Only available on Windows", m.errorMsg)
}

func TestTypingEditsThePort(t *testing.T) {
	m := newTestModel(t)
	m.portInput.SetValue("")
	for _, r := range "9100" {
		m.Update(key(string(r)))
	}
	assert.Equal(t, "9100", m.portInput.Value())
}

func TestSinkDropsAfterClose(t *testing.T) {
	s := NewSink(0)
	s.Close()
	done := make(chan struct{})
	go func() {
		s.Notify(proc.Event{Type: proc.EventOutput, Line: "x"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a closed sink")
	}
	assert.Nil(t, channelReaderCmd(s)())
}
