package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
)

func TestMetricsObserveEvents(t *testing.T) {
	m := NewMetrics()

	m.Notify(proc.Event{Type: proc.EventStateChange, From: models.StateIdle, To: models.StateStarting})
	m.Notify(proc.Event{Type: proc.EventStateChange, From: models.StateStarting, To: models.StateRunning, Time: time.Now()})
	m.Notify(proc.Event{Type: proc.EventOutput, Line: "listening"})
	m.Notify(proc.Event{Type: proc.EventOutput, Line: "ready"})
	m.Notify(proc.Event{Type: proc.EventUnexpectedExit, Err: errors.New("exit status 1")})
	m.Notify(proc.Event{Type: proc.EventStateChange, From: models.StateRunning, To: models.StateStopped})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.starts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.outputLines))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.crashes.WithLabelValues("unexpected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("stopped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("running")))

	expected := `
		# HELP handover_launcher_server_state_transitions_total Total number of server process state transitions
		# TYPE handover_launcher_server_state_transitions_total counter
		handover_launcher_server_state_transitions_total{from_state="idle",to_state="starting"} 1
		handover_launcher_server_state_transitions_total{from_state="running",to_state="stopped"} 1
		handover_launcher_server_state_transitions_total{from_state="starting",to_state="running"} 1
	`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "handover_launcher_server_state_transitions_total")
	assert.NoError(t, err)

	s := m.Summary(models.StateStopped)
	assert.EqualValues(t, 1, s.Starts)
	assert.EqualValues(t, 1, s.Crashes)
	assert.Equal(t, models.StateStopped, s.ServerState)
}

func TestMetricsObserveRequests(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("/healthz", 10*time.Millisecond, 200)
	m.ObserveRequest("/launcher/api/v1/server/start", 20*time.Millisecond, 409)

	s := m.Summary(models.StateIdle)
	assert.EqualValues(t, 2, s.TotalRequests)
	assert.EqualValues(t, 1, s.ErrorRequests)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestErrors.WithLabelValues("/launcher/api/v1/server/start")))

	count, err := testutil.GatherAndCount(m.Registry(), "handover_launcher_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetricsPush(t *testing.T) {
	var pushes atomic.Int32
	var body atomic.Value
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/metrics/job/handover_launcher", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		body.Store(data)
		pushes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	m := NewMetrics()
	m.Notify(proc.Event{Type: proc.EventStateChange, From: models.StateIdle, To: models.StateStarting})
	require.NoError(t, m.Push(context.Background(), gateway.URL))
	assert.EqualValues(t, 1, pushes.Load())
	assert.NotEmpty(t, body.Load())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunPusher(ctx, gateway.URL, 10*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return pushes.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestMetricsPushFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gateway.Close()

	assert.Error(t, NewMetrics().Push(context.Background(), gateway.URL))
}
