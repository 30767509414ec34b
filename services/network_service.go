package services

import (
	"errors"
	"fmt"
	"net"
)

var ErrNoLANAddress = errors.New("no LAN address found")

// interfaceAddrs is replaced in tests
var interfaceAddrs = net.InterfaceAddrs

/**
 * Discover the machine's LAN IPv4 address
 * @returns {string} First private, non-loopback IPv4 address
 * @returns {error} ErrNoLANAddress when the machine has none
 * @description
 * - Private ranges are preferred over other global unicast addresses
 */
func LANIP() (string, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("list interface addresses: %w", err)
	}

	var fallback string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if ip.IsPrivate() {
			return ip.String(), nil
		}
		if fallback == "" && ip.IsGlobalUnicast() {
			fallback = ip.String()
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoLANAddress
}

// LANURL is the address other machines use to reach the server
func LANURL(port int) (string, error) {
	ip, err := LANIP()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(ip, fmt.Sprint(port))), nil
}
