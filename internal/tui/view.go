package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"handover-launcher/internal/models"
	"handover-launcher/services"
)

func renderState(state models.State, pid int) string {
	style, ok := stateStyles[string(state)]
	if !ok {
		style = lipgloss.NewStyle()
	}
	text := "● " + string(state)
	if state.Active() && pid > 0 {
		text += fmt.Sprintf(" (PID %d)", pid)
	}
	return style.Render(text)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render("Shift Handover Log - Server"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("State: "))
	b.WriteString(renderState(m.state, m.pid))
	if m.state.Active() {
		b.WriteString("   ")
		b.WriteString(labelStyle.Render("URL: "))
		b.WriteString(services.URL(m.port))
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Port: "))
	b.WriteString(m.portInput.View())
	b.WriteString("\n")

	b.WriteString(logStyle.Render(m.logView.View()))
	b.WriteString("\n")

	switch {
	case m.confirmQuit:
		b.WriteString(confirmStyle.Render("The server is running. Stop it and quit?"))
	case m.errorMsg != "":
		b.WriteString(errorStyle.Render(m.errorMsg))
	default:
		b.WriteString(m.statusMsg)
	}
	b.WriteString("\n")

	if m.confirmQuit {
		b.WriteString(helpStyle.Render(ActionConfirm))
	} else {
		b.WriteString(helpStyle.Render(ActionHelp))
	}
	return b.String()
}
