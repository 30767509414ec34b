package services

import (
	"sync"
	"time"

	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
)

// ServerPrefix marks lines written by the Node.js process in launcher views
const ServerPrefix = "[Server] "

/**
 * OutputHistory keeps the last N lines of server output
 * @description
 * - Registered as a supervisor observer
 * - Sequence numbers keep increasing across restarts so that clients can poll with "since"
 */
type OutputHistory struct {
	mu    sync.Mutex
	buf   []models.LogLine
	start int
	count int
	seq   int64
}

// NewOutputHistory 创建输出历史缓冲区
func NewOutputHistory(size int) *OutputHistory {
	if size <= 0 {
		size = 500
	}
	return &OutputHistory{buf: make([]models.LogLine, size)}
}

func (h *OutputHistory) Notify(ev proc.Event) {
	if ev.Type != proc.EventOutput {
		return
	}
	h.Append(ev.Time, ev.Line)
}

// Append adds one line, dropping the oldest when full
func (h *OutputHistory) Append(t time.Time, text string) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	line := models.LogLine{Seq: h.seq, Time: t.Format(time.RFC3339), Text: text}
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = line
		h.count++
	} else {
		h.buf[h.start] = line
		h.start = (h.start + 1) % len(h.buf)
	}
	return h.seq
}

/**
 * Lines newer than since
 * @param {int64} since - Last sequence number the caller has seen, 0 for everything kept
 * @param {int} limit - Maximum number of lines returned (the newest ones), <= 0 for no limit
 * @returns {[]models.LogLine} Lines in output order
 */
func (h *OutputHistory) Lines(since int64, limit int) []models.LogLine {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.LogLine, 0, h.count)
	for i := 0; i < h.count; i++ {
		line := h.buf[(h.start+i)%len(h.buf)]
		if line.Seq > since {
			out = append(out, line)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Tail returns the last n lines
func (h *OutputHistory) Tail(n int) []models.LogLine {
	return h.Lines(0, n)
}

// LastSeq 返回最新行的序号
func (h *OutputHistory) LastSeq() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// ServerLogObserver copies server output and lifecycle events into the launcher log
type ServerLogObserver struct{}

func (ServerLogObserver) Notify(ev proc.Event) {
	switch ev.Type {
	case proc.EventOutput:
		logger.Infof("%s%s", ServerPrefix, ev.Line)
	case proc.EventStateChange:
		if ev.Err != nil {
			logger.Errorf("Server state %s -> %s: %v", ev.From, ev.To, ev.Err)
		} else {
			logger.Infof("Server state %s -> %s", ev.From, ev.To)
		}
	case proc.EventForceKill:
		logger.Warnf("Server (PID %d) did not exit within the grace period, killed", ev.Pid)
	}
}
