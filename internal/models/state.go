package models

// State is the lifecycle state of the supervised server process
type State string

const (
	// 尚未启动过任何进程
	StateIdle State = "idle"
	// launch requested, waiting for the OS to create the process
	StateStarting State = "starting"
	StateRunning  State = "running"
	// stop requested, graceful termination in progress
	StateStopping State = "stopping"
	// terminal for one process instance; a new start creates a fresh instance
	StateStopped State = "stopped"
)

// Active reports whether a process instance currently owns the supervisor
func (s State) Active() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

func (s State) String() string {
	return string(s)
}
