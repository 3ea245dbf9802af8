// Package relay is the ground-control side of the gateway: one vehicle-side
// mavconn.Connection fanned out to many TCP ground-control clients through a
// hub.Hub, with frames flowing upstream from any client back to the vehicle.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kstaniek/mavgw/internal/frame"
	"github.com/kstaniek/mavgw/internal/hub"
	mavio "github.com/kstaniek/mavgw/internal/ioutil"
	"github.com/kstaniek/mavgw/internal/logging"
	"github.com/kstaniek/mavgw/internal/mavconn"
	"github.com/kstaniek/mavgw/internal/metrics"
)

// Sentinel errors used for wrapping so callers can classify via errors.Is.
var (
	ErrListen   = errors.New("relay: listen")
	ErrAccept   = errors.New("relay: accept")
	ErrConnRead = errors.New("relay: conn read")
)

func mapErrToMetric(err error) string {
	switch {
	case errors.Is(err, ErrConnRead):
		return metrics.ErrConnRead
	case errors.Is(err, ErrAccept), errors.Is(err, ErrListen):
		return metrics.ErrConnDial
	default:
		return "other"
	}
}

// Server accepts TCP ground-control clients, pushes every frame received
// from Vehicle to all of them via Hub, and forwards anything a client sends
// back up to Vehicle.
type Server struct {
	mu   sync.RWMutex
	addr string

	Vehicle mavconn.Connection
	Hub     *hub.Hub
	Reg     frame.Registry

	readDeadline time.Duration
	maxClients   int

	readyOnce sync.Once
	readyCh   chan struct{}
	listener  net.Listener

	clientsMu sync.RWMutex
	clients   map[*hub.Client]net.Conn

	wg         sync.WaitGroup
	logger     *slog.Logger
	nextConnID atomic.Uint64

	totalAccepted     atomic.Uint64
	totalConnected    atomic.Uint64
	totalDisconnected atomic.Uint64
	totalRejected     atomic.Uint64
}

const defaultReadDeadline = 60 * time.Second

type Option func(*Server)

func NewServer(opts ...Option) *Server {
	s := &Server{
		readDeadline: defaultReadDeadline,
		readyCh:      make(chan struct{}),
		clients:      make(map[*hub.Client]net.Conn),
		logger:       logging.L(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.addr == "" {
		s.addr = ":0"
	}
	return s
}

func WithListenAddr(a string) Option              { return func(s *Server) { s.addr = a } }
func WithVehicle(c mavconn.Connection) Option      { return func(s *Server) { s.Vehicle = c } }
func WithHub(h *hub.Hub) Option                    { return func(s *Server) { s.Hub = h } }
func WithRegistry(r frame.Registry) Option         { return func(s *Server) { s.Reg = r } }
func WithLogger(l *slog.Logger) Option             { return func(s *Server) { if l != nil { s.logger = l } } }
func WithMaxClients(n int) Option                  { return func(s *Server) { s.maxClients = n } }
func WithReadDeadline(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readDeadline = d
		}
	}
}

func (s *Server) Addr() string           { s.mu.RLock(); defer s.mu.RUnlock(); return s.addr }
func (s *Server) setAddr(a string)       { s.mu.Lock(); s.addr = a; s.mu.Unlock() }
func (s *Server) Ready() <-chan struct{} { return s.readyCh }

// Serve accepts ground-control clients until ctx is cancelled or the
// listener fails. It also runs the vehicle->clients pump for the lifetime
// of the call.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	addr := s.addr
	s.mu.Unlock()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		wrap := fmt.Errorf("%w: %v", ErrListen, err)
		metrics.IncError(mapErrToMetric(wrap))
		return wrap
	}
	s.setAddr(ln.Addr().String())
	s.listener = ln
	s.readyOnce.Do(func() { close(s.readyCh) })
	s.logger.Info("tcp_listen", "addr", s.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pumpVehicle(ctx)
	}()

	go func() { <-ctx.Done(); _ = ln.Close() }()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			wrap := fmt.Errorf("%w: %v", ErrAccept, err)
			metrics.IncError(mapErrToMetric(wrap))
			return wrap
		}
		s.totalAccepted.Add(1)
		s.acceptClient(ctx, conn)
	}
}

// pumpVehicle reads frames arriving from the vehicle link, re-encodes each
// one with frame.Write from its header fields and payload (any signature is
// not carried over), and broadcasts the result to every connected
// ground-control client.
func (s *Server) pumpVehicle(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		raw, err := s.Vehicle.Recv(ctx)
		if err != nil {
			if errors.Is(err, mavio.ErrUnexpectedEof) {
				s.logger.Warn("vehicle_closed")
				return
			}
			// every other error, protocol or transport, is skipped: keep reading.
			continue
		}
		payload := raw.Payload
		crcExtra, _ := s.Reg.CRCExtra(raw.MessageID)
		wire, err := frame.Write(frame.WriteRequest{
			V2:          raw.IsV2(),
			CompatFlags: raw.CompatFlags,
			Sequence:    raw.Sequence,
			SystemID:    raw.SystemID,
			ComponentID: raw.ComponentID,
			MessageID:   raw.MessageID,
			Payload:     payload,
		}, crcExtra)
		if err != nil {
			continue
		}
		if s.Hub != nil {
			s.Hub.Broadcast(wire)
		}
	}
}

func (s *Server) acceptClient(ctx context.Context, conn net.Conn) {
	connLogger := s.logger.With("conn_id", s.nextConnID.Add(1), "remote", conn.RemoteAddr().String())
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetKeepAlive(true)
		_ = tcp.SetKeepAlivePeriod(30 * time.Second)
	}
	if s.maxClients > 0 && s.Hub != nil && s.Hub.Count() >= s.maxClients {
		s.totalRejected.Add(1)
		metrics.IncHubReject()
		connLogger.Warn("client_reject_max", "max_clients", s.maxClients)
		_ = conn.Close()
		return
	}
	bufSize := 512
	if s.Hub != nil && s.Hub.OutBufSize > 0 {
		bufSize = s.Hub.OutBufSize
	}
	cl := &hub.Client{Out: make(chan []byte, bufSize), Closed: make(chan struct{})}
	if s.Hub != nil {
		s.Hub.Add(cl)
	}
	s.clientsMu.Lock()
	s.clients[cl] = conn
	s.clientsMu.Unlock()
	s.totalConnected.Add(1)
	connLogger.Info("client_connected")
	s.startWriter(ctx, conn, cl, connLogger)
	s.startReader(ctx, conn, cl, connLogger)
}

// startWriter forwards frames the hub broadcasts to this one client socket.
func (s *Server) startWriter(ctx context.Context, conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.disconnect(conn, cl, logger)
		for {
			select {
			case wire := <-cl.Out:
				if _, err := conn.Write(wire); err != nil {
					return
				}
			case <-cl.Closed:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// startReader parses frames a ground-control client sends and re-transmits
// them upstream on the vehicle link, re-signed and re-sequenced by the
// vehicle connection's own identity.
func (s *Server) startReader(ctx context.Context, conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = conn.Close() }()
		parser := frame.NewParser(mavio.New(conn, mavio.MinCapacity), s.Reg, nil)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.readDeadline))
			raw, err := parser.Next()
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					select {
					case <-ctx.Done():
						return
					case <-cl.Closed:
						return
					default:
						continue
					}
				}
				wrap := fmt.Errorf("%w: %v", ErrConnRead, err)
				metrics.IncError(mapErrToMetric(wrap))
				return
			}
			if s.Vehicle == nil {
				continue
			}
			crcExtra, _ := s.Reg.CRCExtra(raw.MessageID)
			if err := s.Vehicle.Send(ctx, mavconn.OutgoingMessage{
				V2:          raw.IsV2(),
				CompatFlags: raw.CompatFlags,
				MessageID:   raw.MessageID,
				Payload:     raw.Payload,
				CRCExtra:    crcExtra,
			}); err != nil {
				logger.Warn("vehicle_send_error", "error", err)
			}
		}
	}()
}

func (s *Server) disconnect(conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	_ = conn.Close()
	if s.Hub != nil {
		s.Hub.Remove(cl)
	}
	s.clientsMu.Lock()
	delete(s.clients, cl)
	s.clientsMu.Unlock()
	s.totalDisconnected.Add(1)
	logger.Info("client_disconnected")
}

// Shutdown closes the listener and every client connection, then waits for
// all reader/writer goroutines to exit or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	s.clientsMu.Lock()
	for cl, conn := range s.clients {
		_ = conn.Close()
		if s.Hub != nil {
			s.Hub.Remove(cl)
		}
		delete(s.clients, cl)
	}
	s.clientsMu.Unlock()
	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	case <-done:
		s.logger.Info("shutdown_summary",
			"accepted", s.totalAccepted.Load(),
			"connected", s.totalConnected.Load(),
			"disconnected", s.totalDisconnected.Load(),
			"rejected", s.totalRejected.Load())
		return nil
	}
}
