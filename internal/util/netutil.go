// Package util contains small networking helpers.
package util

import (
	"fmt"
	"net"
)

// LANAddresses returns the machine's private IPv4 addresses. Used for the
// startup banner so other devices on the LAN can be pointed at the
// server.
func LANAddresses() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interface addresses: %w", err)
	}

	var out []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || !ip.IsPrivate() {
			continue
		}
		out = append(out, ip.String())
	}
	return out, nil
}
