package asyncnet

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/asyncnet/dispatch"
)

// Server lifecycle errors
var (
	// ErrServerStarted indicates Start was called on a running server
	ErrServerStarted = errors.New("server already started")

	// ErrServerStopped indicates Stop was called on a stopped server
	ErrServerStopped = errors.New("server not started")
)

// Server accepts connections and owns the resulting sessions: it is the
// container sessions register with while connected and deregister from
// exactly once at teardown. A nil TLS configuration makes a plain TCP
// server; otherwise every session runs the server-role TLS handshake
// before data flow.
type Server struct {
	service   *dispatch.Service
	handler   Handler
	address   string
	opts      Options
	tlsConfig *tls.Config

	listener net.Listener
	started  atomic.Bool

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	// stats aggregates byte counters across all sessions.
	stats Stats

	log *logrus.Entry
}

// NewTCPServer creates a plain TCP server listening on address once
// started. handler receives every session's callbacks; opts may be nil.
func NewTCPServer(service *dispatch.Service, handler Handler, address string, opts *Options) (*Server, error) {
	return newServer(service, handler, address, nil, opts)
}

// NewTLSServer creates a TLS server; sessions assume the server role of
// the handshake using config's certificate material.
func NewTLSServer(service *dispatch.Service, handler Handler, address string, config *tls.Config, opts *Options) (*Server, error) {
	if config == nil {
		return nil, ErrTLSConfigRequired
	}
	return newServer(service, handler, address, config, opts)
}

func newServer(service *dispatch.Service, handler Handler, address string, config *tls.Config, opts *Options) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	if address == "" {
		return nil, ErrAddressRequired
	}
	if handler == nil {
		handler = NopHandler{}
	}
	return &Server{
		service:   service,
		handler:   handler,
		address:   address,
		opts:      defaultOptions(opts),
		tlsConfig: config,
		sessions:  make(map[uuid.UUID]*Session),
		log:       logrus.WithField("address", address),
	}, nil
}

// Start opens the listener and begins accepting sessions.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServerStarted
	}

	lc := net.ListenConfig{Control: s.opts.control()}
	listener, err := lc.Listen(context.Background(), "tcp", s.address)
	if err != nil {
		s.started.Store(false)
		return &NetError{Op: "listen", Addr: s.address, Err: err}
	}
	s.listener = listener
	s.log.Info("server started")

	go s.acceptLoop()
	return nil
}

// Stop closes the listener and disconnects every session.
func (s *Server) Stop() error {
	if !s.started.CompareAndSwap(true, false) {
		return ErrServerStopped
	}
	err := s.listener.Close()
	s.DisconnectAll()
	s.log.Info("server stopped")
	return err
}

// IsStarted reports whether the server is accepting connections.
func (s *Server) IsStarted() bool { return s.started.Load() }

// ListenAddr returns the listener's bound address, nil before Start.
// Useful with a ":0" configured address.
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stats returns byte counters aggregated across all sessions.
func (s *Server) Stats() *Stats { return &s.stats }

func (s *Server) acceptLoop() {
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.WithError(err).Warn("accept failed")
			continue
		}
		s.register(raw)
	}
}

// register creates a session around an accepted connection, adds it to
// the lookup table, and starts its connect sequence.
func (s *Server) register(raw net.Conn) {
	var transport Transport
	if s.tlsConfig != nil {
		transport = &tlsTransport{address: raw.RemoteAddr().String(), config: s.tlsConfig, server: true, raw: raw}
	} else {
		transport = &tcpTransport{address: raw.RemoteAddr().String(), accepted: true, conn: raw}
	}

	session, err := newSession(s, transport, raw.RemoteAddr().String())
	if err != nil {
		s.log.WithError(err).Warn("session setup failed")
		raw.Close()
		return
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	s.log.WithField("session", session.ID().String()).Debug("session registered")

	session.Connect()
}

// Unregister removes the session with the given identity from the
// lookup table. Sessions call it exactly once at the end of teardown.
func (s *Server) Unregister(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.WithField("session", id.String()).Debug("session unregistered")
}

// FindSession returns the connected session with the given identity,
// or nil.
func (s *Server) FindSession(id uuid.UUID) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// SessionCount returns the number of registered sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) snapshot() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Multicast queues p on every registered session's send pipeline. It
// returns false when the server is not started.
func (s *Server) Multicast(p []byte) bool {
	if !s.IsStarted() {
		return false
	}
	for _, session := range s.snapshot() {
		session.Send(p)
	}
	return true
}

// DisconnectAll starts teardown of every registered session.
func (s *Server) DisconnectAll() {
	for _, session := range s.snapshot() {
		session.Disconnect(false)
	}
}

var _ Container = (*Server)(nil)
