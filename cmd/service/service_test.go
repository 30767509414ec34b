package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/models"
)

// pointAt makes newClient talk to server
func pointAt(t *testing.T, server *httptest.Server) {
	t.Helper()
	old := address
	address = strings.TrimPrefix(server.URL, "http://")
	t.Cleanup(func() { address = old })
}

func TestStatusRows(t *testing.T) {
	st := &models.LauncherStatus{
		Process: models.ProcessDetail{
			State:          models.StateStopped,
			LastExitReason: "stopped by user",
		},
		BaseDir:   "/opt/handover",
		SavedPort: 8600,
		Problems:  []string{"Folder 'client/build' not found (frontend not compiled)"},
	}
	rows := statusRows(st)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, "State", names[0])
	assert.Contains(t, names, "Last exit reason")
	assert.Contains(t, names, "Problems")
	// no process details while stopped
	assert.NotContains(t, names, "PID")

	st.Process.State = models.StateRunning
	st.Process.Pid = 42
	names = names[:0]
	for _, r := range statusRows(st) {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "PID")
	assert.Contains(t, names, "URL")
}

func TestStartThroughControlAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.StartRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Port == 1234 {
			w.WriteHeader(http.StatusPreconditionFailed)
			w.Write([]byte(`{"code":"precondition.port_busy","error":"port is already in use: 1234"}`))
			return
		}
		json.NewEncoder(w).Encode(models.LauncherStatus{
			Process: models.ProcessDetail{State: models.StateRunning, Pid: 7, Port: 8500},
		})
	}))
	defer server.Close()
	pointAt(t, server)

	var out bytes.Buffer
	require.NoError(t, startServer(&out, nil))
	assert.Contains(t, out.String(), "Server started (PID 7)")
	assert.Contains(t, out.String(), "Server will be available at: http://localhost:8500")

	err := startServer(&out, []string{"1234"})
	var exitErr *root.ExitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "port is already in use")

	err = startServer(&out, []string{"nope"})
	require.ErrorAs(t, err, &exitErr)
}

func TestFollowLogs(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			json.NewEncoder(w).Encode([]models.LogLine{{Seq: 1, Text: "one"}})
		case 2:
			assert.Equal(t, "1", r.URL.Query().Get("since"))
			json.NewEncoder(w).Encode([]models.LogLine{{Seq: 2, Text: "two"}})
		default:
			json.NewEncoder(w).Encode([]models.LogLine{})
		}
	}))
	defer server.Close()
	pointAt(t, server)

	oldFollow, oldInterval := follow, interval
	follow, interval = true, 10*time.Millisecond
	defer func() { follow, interval = oldFollow, oldInterval }()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	client := newClient(time.Second)
	defer client.Close()
	go func() { done <- printLogs(ctx, client, &out) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, "[Server] one\n[Server] two\n", out.String())
}

func TestReloadAndMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/launcher/api/v1/reload":
			assert.Equal(t, http.MethodPost, r.Method)
			json.NewEncoder(w).Encode(map[string]string{"message": "Configuration reloaded successfully"})
		case "/healthz":
			json.NewEncoder(w).Encode(models.HealthResponse{
				Version: "1.2.0",
				Status:  "UP",
				Metrics: models.Metrics{Starts: 3, Crashes: 1, ServerState: models.StateRunning},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	pointAt(t, server)

	var out bytes.Buffer
	require.NoError(t, reloadConfig(&out))
	assert.Equal(t, "Configuration reloaded.\n", out.String())

	out.Reset()
	require.NoError(t, showMetrics(&out))
	assert.Contains(t, out.String(), "Crashes")
	assert.Contains(t, out.String(), "running")
}

func TestReloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":"config.reload_failed","error":"Failed to reload configuration: bad yaml"}`))
	}))
	defer server.Close()
	pointAt(t, server)

	err := reloadConfig(&bytes.Buffer{})
	var exitErr *root.ExitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "bad yaml")
}
