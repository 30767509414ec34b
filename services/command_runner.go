package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"handover-launcher/internal/logger"
)

// CommandRunner runs an OS tool and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands through os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	logger.Debugf("Executing command: %s %s", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		text := strings.TrimSpace(out.String())
		if text != "" {
			return text, fmt.Errorf("%s failed: %w: %s", name, err, text)
		}
		return text, fmt.Errorf("%s failed: %w", name, err)
	}
	return strings.TrimSpace(out.String()), nil
}
