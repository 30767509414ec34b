package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
)

func TestOutputHistoryKeepsLastLines(t *testing.T) {
	h := NewOutputHistory(3)
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		h.Notify(proc.Event{Type: proc.EventOutput, Line: text, Time: time.Now()})
	}
	// non-output events are ignored
	h.Notify(proc.Event{Type: proc.EventHealthy})

	lines := h.Tail(0)
	assert.Len(t, lines, 3)
	assert.Equal(t, "c", lines[0].Text)
	assert.Equal(t, "e", lines[2].Text)
	assert.EqualValues(t, 5, lines[2].Seq)
	assert.EqualValues(t, 5, h.LastSeq())

	assert.Equal(t, []string{"d", "e"}, texts(h.Tail(2)))
	assert.Equal(t, []string{"e"}, texts(h.Lines(4, 0)))
	assert.Empty(t, h.Lines(5, 0))
}

func TestOutputHistoryPartiallyFilled(t *testing.T) {
	h := NewOutputHistory(10)
	h.Append(time.Now(), "one")
	h.Append(time.Now(), "two")
	assert.Equal(t, []string{"one", "two"}, texts(h.Lines(0, 0)))
	assert.Equal(t, []string{"two"}, texts(h.Lines(1, 5)))
}

func texts(lines []models.LogLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}
