package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"handover-launcher/internal/config"
	"handover-launcher/internal/env"
	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/proc"
	"handover-launcher/internal/store"
	"handover-launcher/internal/utils"
)

/**
 * Launcher starts and stops the Shift Handover Log server
 * @description
 * - Checks the bundle and the port before anything is spawned
 * - Saves the port after every successful start
 * - Owns the supervisor, the output history and the metrics observers
 */
type Launcher struct {
	layout    config.Layout
	cfg       config.AppConfig
	store     *store.PortStore
	sup       *proc.Supervisor
	history   *OutputHistory
	metrics   *Metrics
	startTime time.Time

	// replaced in tests
	portFree func(port int) bool
	environ  func() []string
	command  func() (string, []string)
}

/**
 * Create launcher for a resolved bundle layout
 * @param {config.Layout} layout - Bundle paths, resolved once by the command
 * @param {config.AppConfig} cfg - Application configuration
 * @param {*store.PortStore} st - Port configuration store
 * @returns {*Launcher} Launcher with history and metrics already subscribed
 */
func NewLauncher(layout config.Layout, cfg config.AppConfig, st *store.PortStore) *Launcher {
	l := &Launcher{
		layout:    layout,
		cfg:       cfg,
		store:     st,
		history:   NewOutputHistory(cfg.Supervisor.HistoryLines),
		metrics:   NewMetrics(),
		startTime: time.Now(),
		portFree:  utils.CheckPortListenable,
		environ:   os.Environ,
	}
	l.command = func() (string, []string) {
		return l.layout.NodeExe, []string{l.layout.ServerScript}
	}
	l.sup = proc.New(proc.Options{
		HealthCheckDelay: cfg.Supervisor.HealthCheckDelay,
		GracePeriod:      cfg.Supervisor.GracePeriod,
		DrainTimeout:     cfg.Supervisor.DrainTimeout,
	})
	l.sup.Subscribe(l.history)
	l.sup.Subscribe(l.metrics)
	return l
}

func (l *Launcher) Supervisor() *proc.Supervisor {
	return l.sup
}

func (l *Launcher) History() *OutputHistory {
	return l.history
}

func (l *Launcher) Metrics() *Metrics {
	return l.metrics
}

func (l *Launcher) Store() *store.PortStore {
	return l.store
}

func (l *Launcher) Layout() config.Layout {
	return l.layout
}

// URL 返回指定端口的访问地址
func URL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// Banner returns the lines announcing where the application is reachable
func Banner(port int) []string {
	return []string{
		fmt.Sprintf("Server will be available at: %s", URL(port)),
		fmt.Sprintf("API endpoint: %s/api", URL(port)),
	}
}

/**
 * Check the bundle before a start
 * @returns {error} *PreconditionError (PreconditionMissingBundle) listing every problem found
 * @description
 * - Creates the data folder when it is missing
 */
func (l *Launcher) Check() error {
	problems := l.layout.Check()
	if created, err := l.layout.EnsureDataDir(); err != nil {
		problems = append(problems, err.Error())
	} else if created {
		logger.Infof("Folder 'data' created at %s", l.layout.DataDir)
	}
	if len(problems) > 0 {
		return &PreconditionError{Kind: PreconditionMissingBundle, Problems: problems}
	}
	return nil
}

/**
 * Startup diagnostics written to the log before each launch
 * @returns {[]string} Paths and existence flags of the bundle parts
 */
func (l *Launcher) Diagnostics() []string {
	exists := func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	}
	nodeModules := filepath.Join(l.layout.BaseDir, "node_modules")
	lines := []string{
		fmt.Sprintf("Base directory: %s (exists: %v)", l.layout.BaseDir, exists(l.layout.BaseDir)),
		fmt.Sprintf("Node.js path: %s (exists: %v)", l.layout.NodeExe, exists(l.layout.NodeExe)),
		fmt.Sprintf("Server path: %s (exists: %v)", l.layout.ServerScript, exists(l.layout.ServerScript)),
		fmt.Sprintf("node_modules: %s (exists: %v)", nodeModules, exists(nodeModules)),
		fmt.Sprintf("Express module exists: %v", exists(filepath.Join(nodeModules, "express"))),
	}
	if entries, err := os.ReadDir(l.layout.BaseDir); err == nil {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			kind := "[FILE]"
			if e.IsDir() {
				kind = "[DIR] "
			}
			names = append(names, fmt.Sprintf("  %s %s", kind, e.Name()))
		}
		sort.Strings(names)
		lines = append(lines, "Contents of base directory:")
		lines = append(lines, names...)
	}
	return lines
}

/**
 * Start the server on port
 * @param {context.Context} ctx - Request context
 * @param {int} port - Port requested by the user
 * @returns {proc.Handle} Handle of the started instance
 * @returns {error} *proc.StartError when already running or the launch failed, *PreconditionError otherwise
 * @description
 * - Order: already running, port range, bundle (creates data/), port availability
 * - The environment gets NODE_ENV, PORT, FRONTEND_URL and app.env
 * - A port save failure is logged only
 */
func (l *Launcher) Start(ctx context.Context, port int) (proc.Handle, error) {
	if l.sup.Running() {
		return proc.Handle{}, &proc.StartError{Kind: proc.StartAlreadyRunning, Err: proc.ErrAlreadyRunning}
	}
	if err := utils.ValidatePort(port); err != nil {
		return proc.Handle{}, &PreconditionError{Kind: PreconditionInvalidPort, Err: err}
	}
	if err := l.Check(); err != nil {
		return proc.Handle{}, err
	}
	if !l.portFree(port) {
		return proc.Handle{}, &PreconditionError{
			Kind: PreconditionPortBusy,
			Err:  fmt.Errorf("%w: %d, please choose another port", ErrPortInUse, port),
		}
	}

	environ, err := env.Build(l.environ(), port, l.layout.BaseDir, l.cfg.App.Env)
	if err != nil {
		return proc.Handle{}, &PreconditionError{Kind: PreconditionMissingBundle, Err: fmt.Errorf("build environment: %w", err)}
	}

	logger.Infof("Starting server on port %d...", port)
	for _, line := range l.Diagnostics() {
		logger.Debugf("%s", line)
	}

	name, args := l.command()
	h, err := l.sup.Start(ctx, proc.Spec{
		Command: name,
		Args:    args,
		WorkDir: l.layout.BaseDir,
		Env:     environ,
		Port:    port,
	})
	if err != nil {
		return proc.Handle{}, err
	}

	if err := l.store.SavePort(port); err != nil {
		logger.Warnf("Error saving configuration: %v", err)
	}
	logger.Infof("Server started! Access: %s", URL(port))
	return h, nil
}

// StartText parses user input before starting
func (l *Launcher) StartText(ctx context.Context, text string) (proc.Handle, error) {
	port, err := utils.ParsePort(text)
	if err != nil {
		return proc.Handle{}, &PreconditionError{Kind: PreconditionInvalidPort, Err: err}
	}
	return l.Start(ctx, port)
}

/**
 * Stop the server with the configured grace period
 * @returns {error} proc.ErrNotRunning when nothing runs, *proc.StopError on signal failure
 */
func (l *Launcher) Stop(ctx context.Context) error {
	logger.Info("Stopping server...")
	if err := l.sup.Stop(ctx, l.cfg.Supervisor.GracePeriod); err != nil {
		return err
	}
	logger.Info("Server stopped successfully.")
	return nil
}

// Shutdown stops a running server and ignores the idle case, used when the launcher exits
func (l *Launcher) Shutdown(ctx context.Context) error {
	return l.sup.Shutdown(ctx)
}

// Status 返回当前状态快照
func (l *Launcher) Status() models.LauncherStatus {
	d := l.sup.Detail()
	st := models.LauncherStatus{
		Process:     d,
		BaseDir:     l.layout.BaseDir,
		SavedPort:   l.store.LoadPort(),
		DefaultPort: l.store.DefaultPort(),
		Problems:    l.layout.Check(),
	}
	if d.State.Active() {
		st.URL = URL(d.Port)
	}
	return st
}

// Healthz builds the /healthz answer of the control server
func (l *Launcher) Healthz(version string) models.HealthResponse {
	state := l.sup.State()
	return models.HealthResponse{
		Version:   version,
		StartTime: l.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    time.Since(l.startTime).Truncate(time.Second).String(),
		Metrics:   l.metrics.Summary(state),
	}
}
