package mavconn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/kstaniek/mavgw/internal/frame"
	mavio "github.com/kstaniek/mavgw/internal/ioutil"
	"github.com/kstaniek/mavgw/internal/metrics"
)

// udpPacketConn adapts a net.PacketConn (with a learned or fixed peer
// address) into the io.Reader/io.Writer pair newUDPEndpoint expects. Each
// Write targets the current peer; Read blocks for the next datagram and
// returns exactly that datagram's bytes, and for udpin latches the sender
// as the new peer.
type udpPacketConn struct {
	pc        net.PacketConn
	mu        sync.Mutex
	peer      net.Addr
	fixedPeer bool
}

func (u *udpPacketConn) Read(p []byte) (int, error) {
	n, addr, err := u.pc.ReadFrom(p)
	if err != nil {
		return n, err
	}
	if !u.fixedPeer {
		u.mu.Lock()
		u.peer = addr
		u.mu.Unlock()
	}
	return n, nil
}

func (u *udpPacketConn) Write(p []byte) (int, error) {
	u.mu.Lock()
	peer := u.peer
	u.mu.Unlock()
	if peer == nil {
		return 0, fmt.Errorf("mavconn: udp write with no known peer yet")
	}
	return u.pc.WriteTo(p, peer)
}

func (u *udpPacketConn) Close() error { return u.pc.Close() }

// dialUDPIn binds host:port and waits to learn its peer from the first
// inbound datagram.
func dialUDPIn(ctx context.Context, addr Address, reg frame.Registry, opts []Option) (Connection, error) {
	pc, err := net.ListenPacket("udp", addr.hostPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	go func() { <-ctx.Done(); _ = pc.Close() }()
	up := &udpPacketConn{pc: pc}
	return newUDPEndpoint(ctx, up, reg, opts), nil
}

// dialUDPOut sends to a fixed peer and listens on an ephemeral local port.
func dialUDPOut(ctx context.Context, addr Address, reg frame.Registry, opts []Option) (Connection, error) {
	pc, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	peer, err := net.ResolveUDPAddr("udp", addr.hostPort())
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	go func() { <-ctx.Done(); _ = pc.Close() }()
	up := &udpPacketConn{pc: pc, peer: peer, fixedPeer: true}
	return newUDPEndpoint(ctx, up, reg, opts), nil
}

// dialUDPBcast is dialUDPOut with SO_BROADCAST set on the underlying socket
// (see udp_bcast_unix.go / udp_bcast_windows.go), for link-local vehicle
// discovery without a known unicast address.
func dialUDPBcast(ctx context.Context, addr Address, reg frame.Registry, opts []Option) (Connection, error) {
	lc := net.ListenConfig{Control: setBroadcastSockopt}
	pc, err := lc.ListenPacket(ctx, "udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	peer, err := net.ResolveUDPAddr("udp", addr.hostPort())
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	go func() { <-ctx.Done(); _ = pc.Close() }()
	up := &udpPacketConn{pc: pc, peer: peer, fixedPeer: true}
	return newUDPEndpoint(ctx, up, reg, opts), nil
}

var _ io.ReadWriteCloser = (*udpPacketConn)(nil)

// newUDPEndpoint builds an endpoint whose Recv treats every inbound
// datagram as a standalone, self-contained buffer: one fresh PeekReader and
// frame.Parser per datagram, so a frame can never be assembled from bytes
// spanning two datagrams. A datagram too short to satisfy the frame it
// claims to start is discarded (ErrShortDatagram) rather than held back
// and combined with whatever arrives next.
func newUDPEndpoint(ctx context.Context, pc *udpPacketConn, reg frame.Registry, opts []Option) *endpoint {
	e := &endpoint{reg: reg, sysID: 1, compID: 1, txBuf: defaultTxBuffer, closer: pc}
	for _, o := range opts {
		o(e)
	}
	e.recv = func() (*frame.Raw, error) {
		buf := make([]byte, mavio.MinCapacity)
		n, err := pc.Read(buf)
		if err != nil {
			return nil, err
		}
		dr := mavio.New(bytes.NewReader(buf[:n]), mavio.MinCapacity)
		raw, err := frame.NewParser(dr, reg, e.verifier).Next()
		if errors.Is(err, mavio.ErrUnexpectedEof) {
			return nil, fmt.Errorf("%w: %d-byte datagram", ErrShortDatagram, n)
		}
		return raw, err
	}
	e.tx = newAsyncTx(ctx, e.txBuf,
		func(b []byte) error { _, err := pc.Write(b); return err },
		func(err error) { metrics.IncError(mapErrToMetric(fmt.Errorf("%w: %v", ErrWrite, err))) },
		func() { metrics.IncHubDrop() },
	)
	return e
}
