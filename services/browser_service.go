package services

import (
	"context"
	"runtime"
	"time"

	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
	"handover-launcher/internal/utils"
)

// browserCommand returns the command that opens url with the default browser
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// OpenBrowser opens url with the default browser
func OpenBrowser(ctx context.Context, runner CommandRunner, url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	_, err := runner.Run(ctx, name, args...)
	return err
}

/**
 * BrowserOpener opens the application once the server passed the startup check
 * @description
 * - Observer: reacts to EventHealthy, waits Delay, opens the browser only if the same instance still runs
 */
type BrowserOpener struct {
	Runner  CommandRunner
	Sup     *proc.Supervisor
	Delay   time.Duration
	Message func(string)
}

func (b *BrowserOpener) Notify(ev proc.Event) {
	if ev.Type != proc.EventHealthy {
		return
	}
	time.AfterFunc(b.Delay, func() {
		d := b.Sup.Detail()
		if d.State != models.StateRunning || d.Pid != ev.Pid {
			return
		}
		url := URL(ev.Port)
		if !utils.CheckPortConnectable(ev.Port) {
			logger.Warnf("Server is not accepting connections on port %d yet, opening %s anyway", ev.Port, url)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := OpenBrowser(ctx, b.Runner, url); err != nil {
			logger.Warnf("Error opening browser: %v", err)
			b.say("Error opening browser: " + err.Error())
			return
		}
		b.say("Browser opened: " + url)
	})
}

func (b *BrowserOpener) say(msg string) {
	if b.Message != nil {
		b.Message(msg)
	}
}
