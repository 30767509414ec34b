package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"handover-launcher/internal/proc"
)

// eventMsg carries a supervisor event into Update
type eventMsg proc.Event

// infoMsg is a one-line message from a background helper (browser opener)
type infoMsg string

type startResultMsg struct {
	err error
}

type stopResultMsg struct {
	err error
	// quit after the stop, set when closing the panel
	quit bool
}

type actionResultMsg struct {
	message string
	err     error
}

/**
 * Sink forwards supervisor events to the bubbletea program
 * @description
 * - Blocks the notifying goroutine until the panel reads the event, so output order is kept
 * - After Close every send is dropped, the supervisor never waits on a closed panel
 */
type Sink struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

func NewSink(size int) *Sink {
	return &Sink{ch: make(chan tea.Msg, size), done: make(chan struct{})}
}

func (s *Sink) send(msg tea.Msg) {
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}

func (s *Sink) Notify(ev proc.Event) {
	s.send(eventMsg(ev))
}

// Info sends a message line to the panel
func (s *Sink) Info(text string) {
	s.send(infoMsg(text))
}

func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

// channelReaderCmd waits for the next forwarded message
func channelReaderCmd(s *Sink) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.ch:
			return msg
		case <-s.done:
			return nil
		}
	}
}
