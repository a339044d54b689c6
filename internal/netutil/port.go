package netutil

import (
	"errors"
	"fmt"
	"net"
)

// SelectBindAddr returns the preferred address when it is free, or the
// first free candidate when fallback is enabled.
func SelectBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	if preferred != "" {
		if addrAvailable(preferred) {
			return preferred, nil
		}
		if !autoFallback {
			return "", fmt.Errorf("preferred bind address in use: %s", preferred)
		}
	}

	for _, addr := range candidates {
		if addrAvailable(addr) {
			return addr, nil
		}
	}
	return "", errors.New("no available control API bind addresses")
}

// addrAvailable reports whether addr can currently be listened on.
func addrAvailable(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
