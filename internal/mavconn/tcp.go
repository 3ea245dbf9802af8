package mavconn

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/netutil"

	"github.com/kstaniek/mavgw/internal/frame"
)

// dialTCPOut implements tcpout: dial a remote MAVLink endpoint.
func dialTCPOut(ctx context.Context, addr Address, reg frame.Registry, opts []Option) (Connection, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr.hostPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	return newEndpoint(ctx, conn, conn, conn, reg, opts), nil
}

// dialTCPIn implements tcpin: listen and accept exactly one peer, rejecting
// any further connection attempts while the first is alive — the single
// ground-control peer server mode; netutil.LimitListener enforces the cap
// without extra bookkeeping.
func dialTCPIn(ctx context.Context, addr Address, reg frame.Registry, opts []Option) (Connection, error) {
	ln, err := net.Listen("tcp", addr.hostPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	limited := netutil.LimitListener(ln, 1)
	go func() { <-ctx.Done(); _ = limited.Close() }()

	conn, err := limited.Accept()
	if err != nil {
		_ = limited.Close()
		return nil, fmt.Errorf("%w: %v", ErrAccept, err)
	}
	// Once the sole peer is accepted, stop accepting entirely: single-peer
	// tcpin mode rejects later connections outright rather than queuing them
	// behind the first peer's eventual disconnect, which is what
	// LimitListener's semaphore alone would do.
	_ = limited.Close()
	return newEndpoint(ctx, conn, conn, conn, reg, opts), nil
}
