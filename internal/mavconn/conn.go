// Package mavconn is the connection abstraction: a single Connection
// interface over serial, TCP, UDP and file transports, each
// pairing a resynchronising frame.Parser with a sequence-numbered
// frame.Write sender.
package mavconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/mavgw/internal/frame"
	mavio "github.com/kstaniek/mavgw/internal/ioutil"
	"github.com/kstaniek/mavgw/internal/metrics"
)

// Connection is a single MAVLink link: a decoded frame stream in one
// direction, and a sequence-numbered frame sender in the other.
type Connection interface {
	// Recv returns the next frame, or a recoverable protocol error
	// (frame.ErrCRC, frame.ErrUnknownMessage, frame.ErrIncompatFlags,
	// frame.ErrSigningRejected) that the caller should treat as "try again",
	// or a terminal I/O error.
	Recv(ctx context.Context) (*frame.Raw, error)
	// Send serialises and transmits one message. MessageID, Payload and V2
	// must be set by the caller; Sequence, SystemID and ComponentID are
	// filled in from the connection's own identity and counter.
	Send(ctx context.Context, req OutgoingMessage) error
	Close() error
}

// OutgoingMessage is the subset of frame.WriteRequest a caller supplies;
// the connection fills in Sequence, SystemID, ComponentID and signing.
type OutgoingMessage struct {
	V2          bool
	CompatFlags byte
	MessageID   uint32
	Payload     []byte
	CRCExtra    byte
}

// Option configures a Connection at construction.
type Option func(*endpoint)

func WithIdentity(systemID, componentID byte) Option {
	return func(e *endpoint) { e.sysID, e.compID = systemID, componentID }
}

func WithSigner(signer frame.SignatureSigner, linkID byte) Option {
	return func(e *endpoint) { e.signer, e.linkID = signer, linkID }
}

func WithVerifier(v frame.SignatureVerifier) Option {
	return func(e *endpoint) { e.verifier = v }
}

// WithTxBuffer sets the outbound asyncTx queue depth (default 256).
func WithTxBuffer(n int) Option {
	return func(e *endpoint) {
		if n > 0 {
			e.txBuf = n
		}
	}
}

const defaultTxBuffer = 256

// endpoint is the shared implementation behind every concrete transport: a
// PeekReader-backed parser for Recv, and an asyncTx-backed writer for Send.
// Every transport's dialer returns one of these; transports only need to
// supply the raw io.Reader/io.Writer/io.Closer.
type endpoint struct {
	reg      frame.Registry
	verifier frame.SignatureVerifier
	signer   frame.SignatureSigner
	linkID   byte

	sysID, compID byte
	seq           atomic.Uint32

	txBuf  int
	tx     *asyncTx
	closer io.Closer
	closeOnce sync.Once

	// recv produces the next frame. Stream transports (TCP, serial, file)
	// share one long-lived frame.Parser over a continuous byte stream;
	// datagram transports (UDP) parse each datagram independently so a
	// frame can never span two datagrams (see newUDPEndpoint).
	recv func() (*frame.Raw, error)
}

func newEndpoint(ctx context.Context, r io.Reader, w io.Writer, c io.Closer, reg frame.Registry, opts []Option) *endpoint {
	e := &endpoint{reg: reg, sysID: 1, compID: 1, txBuf: defaultTxBuffer, closer: c}
	for _, o := range opts {
		o(e)
	}
	parser := frame.NewParser(mavio.New(r, mavio.MinCapacity), reg, e.verifier)
	e.recv = parser.Next
	e.tx = newAsyncTx(ctx, e.txBuf,
		func(b []byte) error { _, err := w.Write(b); return err },
		func(err error) { metrics.IncError(mapErrToMetric(fmt.Errorf("%w: %v", ErrWrite, err))) },
		func() { metrics.IncHubDrop() },
	)
	return e
}

func (e *endpoint) Recv(ctx context.Context) (*frame.Raw, error) {
	raw, err := e.recv()
	if err == nil && raw.IsV2() && !raw.Signed && e.verifier != nil {
		if p, ok := e.verifier.(interface{ AllowUnsigned() bool }); ok && !p.AllowUnsigned() {
			raw, err = nil, fmt.Errorf("%w: unsigned v2 frame", frame.ErrSigningRejected)
		}
	}
	switch {
	case err == nil:
		metrics.IncDecoded()
	default:
		classify(err)
	}
	_ = ctx // the underlying reader blocks synchronously; cancellation is the caller's job to enforce via a deadline-aware io.Reader
	return raw, err
}

func classify(err error) {
	switch {
	case errors.Is(err, frame.ErrCRC):
		metrics.IncCRCError()
	case errors.Is(err, frame.ErrUnknownMessage):
		metrics.IncUnknownMessage()
	case errors.Is(err, frame.ErrIncompatFlags):
		metrics.IncIncompatFlagError()
	case errors.Is(err, frame.ErrSigningRejected):
		metrics.IncSigningReject()
	case errors.Is(err, ErrShortDatagram):
		metrics.IncResync()
	}
}

func (e *endpoint) Send(ctx context.Context, msg OutgoingMessage) error {
	req := frame.WriteRequest{
		V2:          msg.V2,
		CompatFlags: msg.CompatFlags,
		Sequence:    byte(e.seq.Add(1) - 1),
		SystemID:    e.sysID,
		ComponentID: e.compID,
		MessageID:   msg.MessageID,
		Payload:     msg.Payload,
	}
	if msg.V2 && e.signer != nil {
		req.Signer = e.signer
		req.LinkID = e.linkID
	}
	wire, err := frame.Write(req, msg.CRCExtra)
	if err != nil {
		return err
	}
	if err := e.tx.enqueue(wire); err != nil {
		return err
	}
	metrics.IncEncoded()
	return nil
}

func (e *endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.tx.close()
		if e.closer != nil {
			err = e.closer.Close()
		}
	})
	return err
}
