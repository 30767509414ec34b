package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	MinPort = 1
	MaxPort = 65535
)

var ErrInvalidPort = errors.New("invalid port")

// ValidatePort checks that port is within [1, 65535]
func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%w '%d': must be between %d and %d", ErrInvalidPort, port, MinPort, MaxPort)
	}
	return nil
}

// ParsePort parses user input (CLI argument, prompt answer, panel field) into a valid port
func ParsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w '%s': must be between %d and %d", ErrInvalidPort, s, MinPort, MaxPort)
	}
	if err := ValidatePort(port); err != nil {
		return 0, err
	}
	return port, nil
}

/**
 * Check whether a TCP port can be bound exclusively on the loopback interface
 * @param {int} port - Port to check
 * @returns {bool} true when the bind succeeded (the listener is released immediately)
 * @description
 * - SO_REUSEADDR is disabled so that a port held by another process is reported as busy
 */
func CheckPortListenable(port int) bool {
	if ValidatePort(port) != nil {
		return false
	}
	lc := net.ListenConfig{Control: exclusiveControl}
	l, err := lc.Listen(context.Background(), "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

// CheckPortConnectable reports whether something accepts connections on localhost:port
func CheckPortConnectable(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
