//go:build !windows

package utils

import (
	"syscall"
	"time"
)

const dialTimeout = time.Second

// exclusiveControl disables SO_REUSEADDR to prevent address reuse (POSIX implementation)
func exclusiveControl(network, address string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 0)
	})
}
