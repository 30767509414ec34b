//go:build windows

package utils

import (
	"syscall"
	"time"
)

const dialTimeout = time.Second

// SO_EXCLUSIVEADDRUSE, not exported by the syscall package
const soExclusiveAddrUse = ^0x4

// exclusiveControl requests an exclusive bind (Windows implementation)
func exclusiveControl(network, address string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 0)
		syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, soExclusiveAddrUse, 1)
	})
}
