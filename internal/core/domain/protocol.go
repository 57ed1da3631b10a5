package domain

import (
	"strconv"
	"strings"
)

// StartupMarker is the handshake prefix the worker writes to stdout once it
// is listening. The line carries the bound port: SERVER_STARTED:<port>.
// The gateway reuses the same contract toward its own parent process.
const StartupMarker = "SERVER_STARTED:"

// Worker endpoints. Each request is a single JSON object POSTed over
// loopback HTTP.
const (
	EndpointLoad    = "/load"
	EndpointInspect = "/inspect"
	EndpointRelease = "/release"
)

// ParseStartupLine extracts the port from a worker stdout line. It returns
// false when the line is not the handshake.
func ParseStartupLine(line string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), StartupMarker)
	if !ok {
		return 0, false
	}
	port, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || port <= 0 || port > 65535 {
		return 0, false
	}
	return port, true
}

// FormatStartupLine renders the handshake line for a bound port.
func FormatStartupLine(port int) string {
	return StartupMarker + strconv.Itoa(port)
}
