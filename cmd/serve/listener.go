package serve

import (
	"net"
	"os"
	"strings"

	"handover-launcher/internal/logger"
)

type ListenAddr struct {
	Network string
	Address string
}

/**
 * Parse the server.address setting
 * @param {string} address - "host:port", or "unix:<path>" for a unix socket
 * @returns {ListenAddr} Network and address for net.Listen
 * @example
 * ParseListenAddr("127.0.0.1:8499")            // tcp
 * ParseListenAddr("unix:/run/handover.sock")   // unix
 */
func ParseListenAddr(address string) ListenAddr {
	if path, ok := strings.CutPrefix(address, "unix:"); ok {
		return ListenAddr{Network: "unix", Address: strings.TrimPrefix(path, "//")}
	}
	return ListenAddr{Network: "tcp", Address: address}
}

/**
 * Create listeners for the control API
 * @param {[]ListenAddr} addrs - Listener addresses
 * @returns {[]net.Listener} Array of created listeners
 * @returns {error} Last listener creation error
 * @description
 * - Stale unix socket files are removed before listening
 * - A failing address is logged and skipped, the others are still created
 */
func CreateListeners(addrs []ListenAddr) ([]net.Listener, error) {
	var listeners []net.Listener

	var lastErr error
	for _, addr := range addrs {
		if addr.Network == "unix" {
			if err := os.Remove(addr.Address); err != nil && !os.IsNotExist(err) {
				logger.Errorf("Failed to remove existing socket file: %v", err)
				continue
			}
		}
		l, err := net.Listen(addr.Network, addr.Address)
		if err != nil {
			logger.Errorf("Failed to create listener on %s://%s: %v", addr.Network, addr.Address, err)
			lastErr = err
			continue
		}
		listeners = append(listeners, l)
	}
	return listeners, lastErr
}
