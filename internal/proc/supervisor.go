package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/utils"
)

/**
 * instance 被监控的单个进程实例
 * @property {int} generation - Instance number, increases on every successful start
 * @property {*os.Process} process - Process handle, owned by the supervisor
 * @property {chan} launched - Closed once cmd.Start returned
 * @property {chan} exited - Closed by the waiter once the process exit was observed
 * @property {io.ReadCloser} output - Read end of the merged output pipe
 * @property {atomic.Bool} abandoned - Set when the stream was closed by the supervisor, later lines are dropped
 * @property {chan} drained - Closed by the drain loop on end of stream
 * @property {chan} done - Closed after the transition to Stopped was published
 */
type instance struct {
	generation int
	spec       Spec
	cmd        *exec.Cmd
	process    *os.Process
	startTime  time.Time
	exitTime   time.Time
	exitErr    error
	exitCode   int

	stopRequested     bool
	healthChecked     bool
	exitObserved      bool
	exitedBeforeCheck bool
	forced            bool

	healthTimer *time.Timer

	output    io.ReadCloser
	abandoned atomic.Bool

	launched chan struct{}
	exited   chan struct{}
	drained  chan struct{}
	done     chan struct{}
}

/**
 * Supervisor owns the lifecycle of exactly one external server process
 * @description
 * - State machine: idle → starting → running → stopping → stopped, running → stopped on spontaneous exit
 * - mu guards state and the current instance, notifyMu serializes observer delivery
 * - Observers are never called with mu held, so they may query State and Detail
 */
type Supervisor struct {
	opts Options

	mu         sync.Mutex
	state      models.State
	inst       *instance
	generation int
	lastExit   time.Time
	lastReason string
	lastForced bool

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
	notifyMu  sync.Mutex

	outputLines atomic.Int64

	// platform hooks, replaced in tests
	terminate func(*os.Process) error
	kill      func(*os.Process) error
	prepare   func(*exec.Cmd)
	reap      func(pid int) error
}

// New 创建监控器
func New(opts Options) *Supervisor {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	return &Supervisor{
		opts:      opts,
		state:     models.StateIdle,
		observers: make(map[int]Observer),
		terminate: utils.TerminateProcess,
		kill:      utils.KillProcess,
		prepare:   utils.SetNewPG,
		reap:      utils.KillGroup,
	}
}

// State returns the current state
func (s *Supervisor) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a process instance is active
func (s *Supervisor) Running() bool {
	return s.State().Active()
}

// Detail returns a snapshot of the current or last process instance
func (s *Supervisor) Detail() models.ProcessDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := models.ProcessDetail{
		State:          s.state,
		LastExitTime:   s.lastExit,
		LastExitReason: s.lastReason,
		ForcedKill:     s.lastForced,
		OutputLines:    s.outputLines.Load(),
	}
	if s.inst != nil {
		d.Command = s.inst.spec.Command
		d.Args = s.inst.spec.Args
		d.WorkDir = s.inst.spec.WorkDir
		d.Port = s.inst.spec.Port
		d.StartTime = s.inst.startTime
		if s.inst.process != nil && s.state.Active() {
			d.Pid = s.inst.process.Pid
		}
	}
	return d
}

/**
 * Register an observer
 * @param {Observer} o - Receives every event from now on
 * @returns {func()} Unsubscribe function
 */
func (s *Supervisor) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// OnOutput registers fn for every output line
func (s *Supervisor) OnOutput(fn func(line string, source Source)) func() {
	return s.Subscribe(ObserverFunc(func(ev Event) {
		if ev.Type == EventOutput {
			fn(ev.Line, ev.Source)
		}
	}))
}

// OnStateChange registers fn for every state transition
func (s *Supervisor) OnStateChange(fn func(from, to models.State, err error)) func() {
	return s.Subscribe(ObserverFunc(func(ev Event) {
		if ev.Type == EventStateChange {
			fn(ev.From, ev.To, ev.Err)
		}
	}))
}

// deliver calls every observer in registration order, callers hold notifyMu
func (s *Supervisor) deliver(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	obs := make([]Observer, 0, len(ids))
	for _, id := range ids {
		obs = append(obs, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, o := range obs {
		o.Notify(ev)
	}
}

// emit publishes an event that does not change state
func (s *Supervisor) emit(ev Event) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.deliver(ev)
}

/**
 * Run a state mutation and publish its events atomically
 * @param {func() []Event} fn - Mutation executed with mu held, returns the events to publish
 * @description
 * - notifyMu is taken before mu, so events reach observers in the order the mutations happened
 * - Observers run after mu is released
 */
func (s *Supervisor) transition(fn func() []Event) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	events := fn()
	s.mu.Unlock()

	for _, ev := range events {
		s.deliver(ev)
	}
}

func (s *Supervisor) stateEvent(inst *instance, from, to models.State, err error) Event {
	ev := Event{Type: EventStateChange, From: from, To: to, Err: err}
	return inst.fill(ev)
}

func (inst *instance) fill(ev Event) Event {
	ev.Generation = inst.generation
	ev.Port = inst.spec.Port
	if inst.process != nil {
		ev.Pid = inst.process.Pid
	}
	return ev
}

/**
 * Start the server process
 * @param {context.Context} ctx - Only checked before the launch call, the process outlives it
 * @param {Spec} spec - Command, arguments, working directory, environment and port
 * @returns {Handle} Handle of the new instance
 * @returns {error} *StartError with kind StartAlreadyRunning or StartLaunchFailed
 * @description
 * - stdout and stderr share one pipe so lines keep the order the child wrote them
 * - The environment is passed through unmodified
 * - Starts the drain loop, the exit waiter and the one-shot health check, none of which block the caller
 * - The port is not checked again here, callers check it before
 */
func (s *Supervisor) Start(ctx context.Context, spec Spec) (Handle, error) {
	var inst *instance
	s.transition(func() []Event {
		if s.state.Active() {
			return nil
		}
		prev := s.state
		inst = &instance{
			generation: s.generation + 1,
			spec:       spec,
			launched:   make(chan struct{}),
			exited:     make(chan struct{}),
			drained:    make(chan struct{}),
			done:       make(chan struct{}),
		}
		s.inst = inst
		s.state = models.StateStarting
		return []Event{s.stateEvent(inst, prev, models.StateStarting, nil)}
	})
	if inst == nil {
		return Handle{}, &StartError{Kind: StartAlreadyRunning, Err: ErrAlreadyRunning}
	}

	cmd, reader, err := s.launch(ctx, spec)
	if err != nil {
		logger.Errorf("Failed to start server process '%s': %v", spec.Command, err)
		startErr := &StartError{Kind: StartLaunchFailed, Err: err}
		s.transition(func() []Event {
			s.state = models.StateIdle
			s.inst = nil
			s.lastReason = fmt.Sprintf("start failed: %v", err)
			return []Event{s.stateEvent(inst, models.StateStarting, models.StateIdle, startErr)}
		})
		close(inst.launched)
		return Handle{}, startErr
	}

	s.transition(func() []Event {
		s.generation = inst.generation
		inst.cmd = cmd
		inst.process = cmd.Process
		inst.output = reader
		inst.startTime = time.Now()
		s.state = models.StateRunning
		s.lastForced = false
		if s.opts.HealthCheckDelay > 0 {
			inst.healthTimer = time.AfterFunc(s.opts.HealthCheckDelay, func() { s.healthCheck(inst) })
		} else {
			inst.healthChecked = true
		}
		return []Event{s.stateEvent(inst, models.StateStarting, models.StateRunning, nil)}
	})
	close(inst.launched)
	logger.Infof("Server process started (PID: %d, port: %d)", cmd.Process.Pid, spec.Port)

	go s.drain(inst, reader)
	go s.wait(inst)
	go s.finish(inst)

	return Handle{Pid: cmd.Process.Pid, Port: spec.Port, Generation: inst.generation, done: inst.done}, nil
}

func (s *Supervisor) launch(ctx context.Context, spec Spec) (*exec.Cmd, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	logger.Infof("Executing command: %s %s", spec.Command, strings.Join(spec.Args, " "))

	// exec.Command rather than CommandContext: the process lifetime is controlled by Stop only
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.WorkDir
	cmd.Env = spec.Env

	// a plain os.Pipe instead of StdoutPipe so that Wait can run while the stream is still being read
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if s.prepare != nil {
		s.prepare(cmd)
	}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, nil, err
	}
	// the child holds its own copy of the write end
	w.Close()
	return cmd, r, nil
}

// drain forwards every line of the merged output stream until end of stream
func (s *Supervisor) drain(inst *instance, r io.ReadCloser) {
	defer close(inst.drained)
	defer r.Close()

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 && !inst.abandoned.Load() {
			s.outputLines.Add(1)
			s.emit(inst.fill(Event{
				Type:   EventOutput,
				Line:   strings.TrimRight(line, "\r\n"),
				Source: SourceCombined,
			}))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logger.Warnf("Reading server output failed: %v", err)
			}
			return
		}
	}
}

// wait observes the process exit independently of the output stream
func (s *Supervisor) wait(inst *instance) {
	err := inst.cmd.Wait()

	s.mu.Lock()
	inst.exitTime = time.Now()
	inst.exitErr = err
	if inst.cmd.ProcessState != nil {
		inst.exitCode = inst.cmd.ProcessState.ExitCode()
	}
	inst.exitObserved = true
	inst.exitedBeforeCheck = !inst.healthChecked
	pid := inst.process.Pid
	s.mu.Unlock()

	// children left behind by the server would keep the output pipe open
	if s.reap != nil {
		if err := s.reap(pid); err != nil {
			logger.Debugf("Cleaning up process group of PID %d: %v", pid, err)
		}
	}
	close(inst.exited)
}

/**
 * Wait for the end of the output stream after the process exited
 * @description
 * - Bounded by DrainTimeout, then the read end is closed and the rest of the stream dropped
 * - A second DrainTimeout covers platforms where closing does not interrupt a pending read
 */
func (s *Supervisor) awaitDrain(inst *instance) {
	timer := time.NewTimer(s.opts.DrainTimeout)
	defer timer.Stop()
	select {
	case <-inst.drained:
		return
	case <-timer.C:
	}

	logger.Warnf("Output of PID %d still open %v after exit, closing it", inst.process.Pid, s.opts.DrainTimeout)
	inst.abandoned.Store(true)
	inst.output.Close()

	timer.Reset(s.opts.DrainTimeout)
	select {
	case <-inst.drained:
	case <-timer.C:
		logger.Warnf("Output reader of PID %d did not return, giving up on it", inst.process.Pid)
	}
}

/**
 * Publish the end of an instance
 * @description
 * - Waits for both the process exit and the end of the output stream, in either order
 * - Without a stop request the transition carries a *CrashError
 * - A crash before the startup check gives EventEarlyExit then stopped with CrashError{Early: true},
 *   the stopped event is the one to rely on; later crashes give stopped then EventUnexpectedExit
 */
func (s *Supervisor) finish(inst *instance) {
	<-inst.exited
	s.awaitDrain(inst)

	s.transition(func() []Event {
		var events []Event
		if inst.healthTimer != nil {
			inst.healthTimer.Stop()
		}
		if !inst.healthChecked {
			inst.healthChecked = true
			if !inst.stopRequested {
				crash := &CrashError{Early: true, ExitCode: inst.exitCode, Err: inst.exitErr}
				logger.Errorf("Server process (PID: %d) did not survive startup: %v", inst.process.Pid, crash)
				events = append(events, inst.fill(Event{Type: EventEarlyExit, Err: crash}))
			}
		}

		from := s.state
		s.state = models.StateStopped
		s.lastExit = inst.exitTime
		s.lastForced = inst.forced

		if inst.stopRequested {
			s.lastReason = "stopped by user"
			logger.Infof("Server process (PID: %d) stopped", inst.process.Pid)
			return append(events, s.stateEvent(inst, from, models.StateStopped, nil))
		}

		crash := &CrashError{Early: inst.exitedBeforeCheck, ExitCode: inst.exitCode, Err: inst.exitErr}
		s.lastReason = crash.Error()
		logger.Errorf("Server process (PID: %d) exited on its own: %v", inst.process.Pid, crash)
		events = append(events, s.stateEvent(inst, from, models.StateStopped, crash))
		if !crash.Early {
			events = append(events, inst.fill(Event{Type: EventUnexpectedExit, Err: crash}))
		}
		return events
	})
	close(inst.done)
}

// healthCheck runs once, HealthCheckDelay after the launch
func (s *Supervisor) healthCheck(inst *instance) {
	s.transition(func() []Event {
		if inst.healthChecked {
			return nil
		}
		inst.healthChecked = true
		if inst.stopRequested {
			return nil
		}
		if inst.exitObserved {
			crash := &CrashError{Early: true, ExitCode: inst.exitCode, Err: inst.exitErr}
			logger.Errorf("Server process (PID: %d) did not survive startup: %v", inst.process.Pid, crash)
			return []Event{inst.fill(Event{Type: EventEarlyExit, Err: crash})}
		}
		logger.Debugf("Server process (PID: %d) passed the startup check", inst.process.Pid)
		return []Event{inst.fill(Event{Type: EventHealthy})}
	})
}

/**
 * Stop the server process, gracefully first
 * @param {context.Context} ctx - Cancelling ctx skips the rest of the grace period
 * @param {time.Duration} grace - Graceful window, <= 0 uses Options.GracePeriod
 * @returns {error} ErrNotRunning when idle or stopped, *StopError when a signal could not be delivered
 * @description
 * - running → stopping, graceful signal, wait up to grace
 * - After grace the process (group) is killed and waited for without a bound
 * - Returns only after stopped was published, i.e. the process exited and its output was drained
 * - A stop during starting waits for the launch result, a stop during stopping waits for the first stop
 */
func (s *Supervisor) Stop(ctx context.Context, grace time.Duration) error {
	if grace <= 0 {
		grace = s.opts.GracePeriod
	}
	for {
		var inst *instance
		var state models.State
		requested := false
		s.transition(func() []Event {
			inst, state = s.inst, s.state
			if state != models.StateRunning {
				return nil
			}
			inst.stopRequested = true
			s.state = models.StateStopping
			requested = true
			return []Event{s.stateEvent(inst, models.StateRunning, models.StateStopping, nil)}
		})

		switch {
		case requested:
			return s.shutdown(ctx, inst, grace)
		case state == models.StateStarting && inst != nil:
			<-inst.launched
		case state == models.StateStopping && inst != nil:
			select {
			case <-inst.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return ErrNotRunning
		}
	}
}

func (s *Supervisor) shutdown(ctx context.Context, inst *instance, grace time.Duration) error {
	pid := inst.process.Pid
	logger.Infof("Stopping server process (PID: %d), grace period %v", pid, grace)

	var stopErr error
	if err := s.terminate(inst.process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		stopErr = &StopError{Kind: StopOsError, Err: err}
		logger.Errorf("Graceful termination of PID %d failed: %v", pid, err)
	}

	if stopErr == nil {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-inst.done:
			logger.Infof("Server process (PID: %d) terminated gracefully", pid)
			return nil
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	inst.forced = true
	s.mu.Unlock()
	logger.Warnf("Forcing server termination (PID: %d)", pid)
	s.emit(inst.fill(Event{Type: EventForceKill}))

	if err := s.kill(inst.process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Errorf("Force kill of PID %d failed: %v", pid, err)
		if stopErr == nil {
			stopErr = &StopError{Kind: StopOsError, Err: err}
		}
	}
	// forced kill is assumed effective, no bound here
	<-inst.done
	return stopErr
}

// Shutdown stops the process if one is active, used on launcher exit
func (s *Supervisor) Shutdown(ctx context.Context) error {
	err := s.Stop(ctx, 0)
	if errors.Is(err, ErrNotRunning) {
		return nil
	}
	return err
}

// Wait returns a channel closed when the current instance reaches stopped, closed already when none is active
func (s *Supervisor) Wait() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inst == nil || !s.state.Active() {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.inst.done
}
