package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"handover-launcher/internal/config"
	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
	"handover-launcher/internal/store"
	"handover-launcher/internal/utils"
)

// TestHelperProcess is not a real test, it plays the Node.js server
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Printf("Server running on port %s (%s)\n", os.Getenv("PORT"), os.Getenv("NODE_ENV"))
	fmt.Printf("Frontend %s\n", os.Getenv("FRONTEND_URL"))
	if os.Getenv("HELPER_CRASH") == "1" {
		fmt.Fprintln(os.Stderr, "Error: Cannot find module 'express'")
		os.Exit(1)
	}
	time.Sleep(time.Minute)
	os.Exit(0)
}

// makeBundle creates an empty but complete bundle directory
func makeBundle(t *testing.T) config.Layout {
	t.Helper()
	base := t.TempDir()
	nodeExe := "node"
	if runtime.GOOS == "windows" {
		nodeExe = "node.exe"
	}
	for _, dir := range []string{"nodejs", "server", filepath.Join("client", "build")} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "nodejs", nodeExe), nil, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "server", "index.js"), []byte("// server"), 0644))
	return config.ResolveLayout(base, "", nodeExe)
}

func testConfig() config.AppConfig {
	var cfg config.AppConfig
	cfg.Supervisor.GracePeriod = 5 * time.Second
	cfg.Supervisor.HealthCheckDelay = 100 * time.Millisecond
	cfg.Supervisor.HistoryLines = 50
	return cfg
}

func newTestLauncher(t *testing.T, layout config.Layout, extraEnv ...string) *Launcher {
	t.Helper()
	l := NewLauncher(layout, testConfig(), store.New(layout))
	l.command = func() (string, []string) {
		return os.Args[0], []string{"-test.run=TestHelperProcess", "--"}
	}
	l.environ = func() []string {
		return append(append(os.Environ(), "GO_WANT_HELPER_PROCESS=1"), extraEnv...)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = l.Shutdown(ctx)
	})
	return l
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func historyContains(h *OutputHistory, text string) bool {
	for _, line := range h.Tail(0) {
		if strings.Contains(line.Text, text) {
			return true
		}
	}
	return false
}

func TestLauncherStartStopPersistsPort(t *testing.T) {
	layout := makeBundle(t)
	l := newTestLauncher(t, layout)
	port := freePort(t)

	h, err := l.Start(context.Background(), port)
	require.NoError(t, err)
	assert.Equal(t, port, h.Port)
	assert.Equal(t, models.StateRunning, l.Supervisor().State())

	want := fmt.Sprintf("Server running on port %d (production)", port)
	require.Eventually(t, func() bool { return historyContains(l.History(), want) }, 5*time.Second, 20*time.Millisecond)
	assert.True(t, historyContains(l.History(), "Frontend "+URL(port)))

	time.Sleep(time.Second)
	require.NoError(t, l.Stop(context.Background()))
	assert.Equal(t, models.StateStopped, l.Supervisor().State())
	assert.False(t, l.Supervisor().Detail().ForcedKill)

	data, err := os.ReadFile(layout.PortConfigPath())
	require.NoError(t, err)
	assert.Equal(t, int64(port), gjson.GetBytes(data, "port").Int())
	assert.Equal(t, port, l.Status().SavedPort)

	summary := l.Metrics().Summary(l.Supervisor().State())
	assert.EqualValues(t, 1, summary.Starts)
	assert.EqualValues(t, 0, summary.Crashes)
}

func TestLauncherRejectsBusyPort(t *testing.T) {
	layout := makeBundle(t)
	l := newTestLauncher(t, layout)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = l.Start(context.Background(), port)
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, PreconditionPortBusy, pre.Kind)
	assert.ErrorIs(t, err, ErrPortInUse)
	assert.Equal(t, models.StateIdle, l.Supervisor().State())

	// nothing persisted
	_, statErr := os.Stat(layout.PortConfigPath())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestLauncherRejectsInvalidPort(t *testing.T) {
	l := newTestLauncher(t, makeBundle(t))

	for _, port := range []int{0, -5, 65536} {
		_, err := l.Start(context.Background(), port)
		var pre *PreconditionError
		require.ErrorAs(t, err, &pre)
		assert.Equal(t, PreconditionInvalidPort, pre.Kind)
		assert.ErrorIs(t, err, utils.ErrInvalidPort)
	}

	_, err := l.StartText(context.Background(), "abc")
	assert.ErrorIs(t, err, utils.ErrInvalidPort)
	assert.Equal(t, models.StateIdle, l.Supervisor().State())
}

func TestLauncherInvalidPortLeavesDiskAlone(t *testing.T) {
	layout := makeBundle(t)
	l := newTestLauncher(t, layout)

	for _, port := range []int{0, 70000} {
		_, err := l.Start(context.Background(), port)
		var pre *PreconditionError
		require.ErrorAs(t, err, &pre)
		assert.Equal(t, PreconditionInvalidPort, pre.Kind)
	}
	_, statErr := os.Stat(layout.DataDir)
	assert.True(t, os.IsNotExist(statErr), "data folder must not be created for a rejected port")
}

func TestLauncherMissingBundle(t *testing.T) {
	base := t.TempDir()
	layout := config.ResolveLayout(base, "", "")
	l := newTestLauncher(t, layout)

	_, err := l.Start(context.Background(), freePort(t))
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, PreconditionMissingBundle, pre.Kind)
	assert.Len(t, pre.Problems, 3)
	assert.Contains(t, err.Error(), "Node.js not found")

	// data folder is created anyway
	_, statErr := os.Stat(filepath.Join(base, "data"))
	assert.NoError(t, statErr)
	assert.Equal(t, models.StateIdle, l.Supervisor().State())
}

func TestLauncherAlreadyRunning(t *testing.T) {
	l := newTestLauncher(t, makeBundle(t))

	_, err := l.Start(context.Background(), freePort(t))
	require.NoError(t, err)

	_, err = l.Start(context.Background(), freePort(t))
	assert.ErrorIs(t, err, proc.ErrAlreadyRunning)
	var startErr *proc.StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, proc.StartAlreadyRunning, startErr.Kind)
}

func TestLauncherReportsCrash(t *testing.T) {
	l := newTestLauncher(t, makeBundle(t), "HELPER_CRASH=1")

	h, err := l.Start(context.Background(), freePort(t))
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("crashing server was not reported")
	}
	assert.Equal(t, models.StateStopped, l.Supervisor().State())
	assert.True(t, historyContains(l.History(), "Cannot find module 'express'"))
	assert.NotEmpty(t, l.Status().Process.LastExitReason)

	require.Eventually(t, func() bool {
		return l.Metrics().Summary(models.StateStopped).Crashes == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.ErrorIs(t, l.Stop(context.Background()), proc.ErrNotRunning)
}

func TestLauncherStatus(t *testing.T) {
	layout := makeBundle(t)
	l := newTestLauncher(t, layout)

	st := l.Status()
	assert.Equal(t, models.StateIdle, st.Process.State)
	assert.Equal(t, layout.BaseDir, st.BaseDir)
	assert.Equal(t, config.DefaultPort, st.DefaultPort)
	assert.Empty(t, st.URL)
	assert.Empty(t, st.Problems)

	port := freePort(t)
	_, err := l.Start(context.Background(), port)
	require.NoError(t, err)
	st = l.Status()
	assert.Equal(t, URL(port), st.URL)
	assert.Equal(t, port, st.Process.Port)
	assert.NotZero(t, st.Process.Pid)
}

func TestBanner(t *testing.T) {
	assert.Equal(t, []string{
		"Server will be available at: http://localhost:8500",
		"API endpoint: http://localhost:8500/api",
	}, Banner(8500))
}
