package trigger

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/scgolang/osc"
)

// MaxPort is the highest port Bind will try
const MaxPort = 65535

// Bind opens a local OSC connection on the first free port at or above basePort.
// It returns ErrBindExhausted when every port through MaxPort is taken.
func Bind(host string, basePort int) (*osc.UDPConn, error) {
	return BindRange(host, basePort, MaxPort)
}

// BindRange is Bind limited to ports basePort..maxPort inclusive
func BindRange(host string, basePort, maxPort int) (*osc.UDPConn, error) {
	if basePort < 1 {
		basePort = 1
	}
	if maxPort > MaxPort {
		maxPort = MaxPort
	}
	var lastErr error
	for port := basePort; port <= maxPort; port++ {
		laddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, errors.Wrap(err, "resolving bind address")
		}
		conn, err := osc.ListenUDP("udp", laddr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, errors.Wrapf(ErrBindExhausted, "%s ports %d..%d: %v", host, basePort, maxPort, lastErr)
	}
	return nil, errors.Wrapf(ErrBindExhausted, "%s ports %d..%d", host, basePort, maxPort)
}

// Destination resolves the UDP address triggers are sent to
func Destination(host string, port int) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, errors.Wrap(err, "resolving destination address")
	}
	return addr, nil
}

// Port returns the local port of conn
func Port(conn net.Conn) int {
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return 0
}
