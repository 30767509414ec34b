package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"

	"handover-launcher/internal/logger"

	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
)

const metricsNamespace = "handover_launcher"

var allStates = []models.State{
	models.StateIdle,
	models.StateStarting,
	models.StateRunning,
	models.StateStopping,
	models.StateStopped,
}

/**
 * Metrics collects supervisor events and control API requests
 * @description
 * - Uses its own registry, exposed by the serve command under metrics.path
 * - Local counters back the /healthz summary, prometheus counters cannot be read back
 */
type Metrics struct {
	registry *prometheus.Registry

	stateTransitions *prometheus.CounterVec
	state            *prometheus.GaugeVec
	starts           prometheus.Counter
	crashes          *prometheus.CounterVec
	forceKills       prometheus.Counter
	outputLines      prometheus.Counter
	lastStart        prometheus.Gauge

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec

	totalStarts   atomic.Int64
	totalCrashes  atomic.Int64
	totalRequests atomic.Int64
	totalErrors   atomic.Int64
}

// NewMetrics 创建指标收集器
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "server_state_transitions_total",
			Help:      "Total number of server process state transitions",
		},
		[]string{"from_state", "to_state"},
	)
	m.state = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "server_state",
			Help:      "Current server process state, 1 for the active state",
		},
		[]string{"state"},
	)
	m.starts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "server_starts_total",
		Help:      "Total number of successful server launches",
	})
	m.crashes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "server_crashes_total",
			Help:      "Total number of spontaneous server exits",
		},
		[]string{"kind"},
	)
	m.forceKills = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "server_force_kills_total",
		Help:      "Total number of stops that needed a forced kill",
	})
	m.outputLines = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "server_output_lines_total",
		Help:      "Total number of server output lines",
	})
	m.lastStart = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "server_last_start_timestamp_seconds",
		Help:      "Unix time of the last successful launch",
	})

	m.requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total control API requests",
		},
		[]string{"path"},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of control API requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)
	m.requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_errors_total",
			Help:      "Total control API requests answered with status >= 400",
		},
		[]string{"path"},
	)

	m.registry.MustRegister(
		m.stateTransitions,
		m.state,
		m.starts,
		m.crashes,
		m.forceKills,
		m.outputLines,
		m.lastStart,
		m.requestCount,
		m.requestDuration,
		m.requestErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.setState(models.StateIdle)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) setState(current models.State) {
	for _, st := range allStates {
		v := 0.0
		if st == current {
			v = 1
		}
		m.state.WithLabelValues(string(st)).Set(v)
	}
}

// Notify 处理监控器事件
func (m *Metrics) Notify(ev proc.Event) {
	switch ev.Type {
	case proc.EventOutput:
		m.outputLines.Inc()
	case proc.EventStateChange:
		m.stateTransitions.WithLabelValues(string(ev.From), string(ev.To)).Inc()
		m.setState(ev.To)
		if ev.To == models.StateRunning {
			m.starts.Inc()
			m.totalStarts.Add(1)
			m.lastStart.Set(float64(ev.Time.Unix()))
		}
	case proc.EventEarlyExit:
		m.crashes.WithLabelValues("early").Inc()
		m.totalCrashes.Add(1)
	case proc.EventUnexpectedExit:
		m.crashes.WithLabelValues("unexpected").Inc()
		m.totalCrashes.Add(1)
	case proc.EventForceKill:
		m.forceKills.Inc()
	}
}

/**
 * Record one control API request
 * @param {string} path - Route pattern of the request
 * @param {time.Duration} duration - Handling time
 * @param {int} status - HTTP status code
 */
func (m *Metrics) ObserveRequest(path string, duration time.Duration, status int) {
	m.requestCount.WithLabelValues(path).Inc()
	m.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
	m.totalRequests.Add(1)
	if status >= 400 {
		m.requestErrors.WithLabelValues(path).Inc()
		m.totalErrors.Add(1)
	}
}

// Summary returns the counters reported by /healthz
func (m *Metrics) Summary(state models.State) models.Metrics {
	return models.Metrics{
		TotalRequests: m.totalRequests.Load(),
		ErrorRequests: m.totalErrors.Load(),
		Starts:        m.totalStarts.Load(),
		Crashes:       m.totalCrashes.Load(),
		ServerState:   state,
	}
}

/**
 * Push the registry to a Prometheus Pushgateway
 * @param {context.Context} ctx - Bounds the request
 * @param {string} addr - Pushgateway URL, e.g. http://127.0.0.1:9091
 * @returns {error} Push failure
 * @description
 * - Uses the job name handover_launcher, replacing the previous push of the job
 */
func (m *Metrics) Push(ctx context.Context, addr string) error {
	return push.New(addr, metricsNamespace).Gatherer(m.registry).PushContext(ctx)
}

/**
 * Push periodically until ctx is done, then push once more
 * @param {context.Context} ctx - Stops the loop
 * @param {string} addr - Pushgateway URL
 * @param {time.Duration} interval - Delay between pushes
 */
func (m *Metrics) RunPusher(ctx context.Context, addr string, interval time.Duration) {
	logger.Infof("Pushing metrics to %s every %v", addr, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pushOnce := func(parent context.Context) {
		pctx, cancel := context.WithTimeout(parent, 10*time.Second)
		defer cancel()
		if err := m.Push(pctx, addr); err != nil {
			logger.Warnf("Failed to push metrics to %s: %v", addr, err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			// 退出前推送最终状态
			pushOnce(context.Background())
			return
		case <-ticker.C:
			pushOnce(ctx)
		}
	}
}
