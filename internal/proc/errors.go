package proc

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("server is already running")
	ErrNotRunning     = errors.New("server is not running")
	// spontaneous exit after the startup health check
	ErrUnexpectedExit = errors.New("server terminated unexpectedly")
	// spontaneous exit before the startup health check fired
	ErrEarlyExit = errors.New("server terminated during startup")
)

type StartErrorKind int

const (
	StartAlreadyRunning StartErrorKind = iota
	StartLaunchFailed
)

// StartError is returned by Supervisor.Start
type StartError struct {
	Kind StartErrorKind
	Err  error
}

func (e *StartError) Error() string {
	if e.Kind == StartAlreadyRunning {
		return e.Err.Error()
	}
	return fmt.Sprintf("launch failed: %v", e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

type StopErrorKind int

const (
	StopOsError StopErrorKind = iota
)

// StopError reports a signal that could not be delivered during Stop.
// The process is still brought down through the forced path.
type StopError struct {
	Kind StopErrorKind
	Err  error
}

func (e *StopError) Error() string {
	return fmt.Sprintf("stop failed: %v", e.Err)
}

func (e *StopError) Unwrap() error {
	return e.Err
}

// CrashError describes a spontaneous exit of the server process
type CrashError struct {
	Early    bool
	ExitCode int
	Err      error
}

func (e *CrashError) Error() string {
	base := ErrUnexpectedExit
	if e.Early {
		base = ErrEarlyExit
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", base, e.Err)
	}
	return fmt.Sprintf("%v (exit code %d)", base, e.ExitCode)
}

func (e *CrashError) Is(target error) bool {
	if target == ErrEarlyExit {
		return e.Early
	}
	return target == ErrUnexpectedExit
}

func (e *CrashError) Unwrap() error {
	return e.Err
}
