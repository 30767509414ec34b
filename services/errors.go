package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPortInUse = errors.New("port is already in use")
	// OS integration is only implemented for Windows
	ErrUnsupportedPlatform = errors.New("not supported on this platform")
)

type PreconditionKind int

const (
	PreconditionMissingBundle PreconditionKind = iota
	PreconditionInvalidPort
	PreconditionPortBusy
)

func (k PreconditionKind) String() string {
	switch k {
	case PreconditionMissingBundle:
		return "missing_bundle"
	case PreconditionInvalidPort:
		return "invalid_port"
	case PreconditionPortBusy:
		return "port_busy"
	default:
		return "unknown"
	}
}

// PreconditionError is returned before any process is started, the supervisor stays idle
type PreconditionError struct {
	Kind     PreconditionKind
	Problems []string
	Err      error
}

func (e *PreconditionError) Error() string {
	if len(e.Problems) > 0 {
		return "precondition failed: " + strings.Join(e.Problems, "; ")
	}
	return fmt.Sprintf("precondition failed: %v", e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
