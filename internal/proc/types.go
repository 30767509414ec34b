package proc

import (
	"time"

	"handover-launcher/internal/models"
)

// Source tags where an output line came from
type Source string

// stdout and stderr are merged into one stream
const SourceCombined Source = "stdout_combined"

// EventType 事件类型
type EventType int

const (
	// EventOutput carries one line of server output
	EventOutput EventType = iota
	// EventStateChange carries a state transition, Err is set for crash transitions
	EventStateChange
	// EventHealthy is sent by the startup health check when the process survived the delay
	EventHealthy
	// EventEarlyExit is sent when the process died before the startup check, always ahead of the stopped transition
	EventEarlyExit
	// EventUnexpectedExit is sent when the process exits on its own after the health check
	EventUnexpectedExit
	// EventForceKill is sent when the grace period expired and the process is killed
	EventForceKill
)

func (t EventType) String() string {
	switch t {
	case EventOutput:
		return "Output"
	case EventStateChange:
		return "StateChange"
	case EventHealthy:
		return "Healthy"
	case EventEarlyExit:
		return "EarlyExit"
	case EventUnexpectedExit:
		return "UnexpectedExit"
	case EventForceKill:
		return "ForceKill"
	default:
		return "Unknown"
	}
}

// Event is delivered to every registered Observer
type Event struct {
	Type       EventType
	Generation int // which process instance, increases on every successful start
	Time       time.Time
	Pid        int
	Port       int
	Line       string
	Source     Source
	From       models.State
	To         models.State
	Err        error
}

// Observer receives supervisor events.
// Notify is called sequentially and must not call Start or Stop on the notifying goroutine.
type Observer interface {
	Notify(ev Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ev Event)

func (f ObserverFunc) Notify(ev Event) {
	f(ev)
}

// Spec describes how to launch the server process
type Spec struct {
	Command string
	Args    []string
	WorkDir string
	Env     []string
	Port    int
}

// Options 监控参数
type Options struct {
	// delay of the one-shot startup check, <= 0 disables it
	HealthCheckDelay time.Duration
	// default grace period of Stop
	GracePeriod time.Duration
	// how long the output stream may stay open after the process exited, <= 0 uses DefaultDrainTimeout
	DrainTimeout time.Duration
}

const (
	DefaultHealthCheckDelay = 2 * time.Second
	DefaultGracePeriod      = 5 * time.Second
	DefaultDrainTimeout     = 2 * time.Second
)

// Handle identifies a started process instance
type Handle struct {
	Pid        int
	Port       int
	Generation int
	done       <-chan struct{}
}

// Done is closed once the instance reached Stopped
func (h Handle) Done() <-chan struct{} {
	return h.done
}
