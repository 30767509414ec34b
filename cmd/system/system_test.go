package system

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/store"
	"handover-launcher/services"
)

func TestEnableAutoStartRejectsBadInput(t *testing.T) {
	st := store.NewAt(filepath.Join(t.TempDir(), "server_config.json"), "")
	a := services.NewAutoStart(services.ExecRunner{}, st, "launcher", "")

	oldMode, oldDelay := mode, delaySeconds
	defer func() { mode, delaySeconds = oldMode, oldDelay }()

	var out bytes.Buffer
	mode, delaySeconds = "tray", 0
	err := enableAutoStart(context.Background(), &out, a)
	var exitErr *root.ExitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "invalid mode")

	mode, delaySeconds = "cli", -5
	err = enableAutoStart(context.Background(), &out, a)
	assert.ErrorContains(t, err, "invalid delay")
}

func TestEnableAutoStartOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("would register a real scheduled task")
	}
	st := store.NewAt(filepath.Join(t.TempDir(), "server_config.json"), "")
	a := services.NewAutoStart(services.ExecRunner{}, st, "launcher", "")

	oldMode, oldDelay := mode, delaySeconds
	defer func() { mode, delaySeconds = oldMode, oldDelay }()
	mode, delaySeconds = "gui", 30

	var out bytes.Buffer
	err := enableAutoStart(context.Background(), &out, a)
	assert.ErrorIs(t, err, services.ErrUnsupportedPlatform)
	assert.ErrorContains(t, err, "only available on Windows")
	assert.False(t, st.Load().AutoStartEnabled)
}
