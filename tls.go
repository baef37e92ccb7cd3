package asyncnet

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/opd-ai/asyncnet/dispatch"
)

// tlsTransport wraps a TCP stream with TLS. Outbound connections dial
// and take the client role; session variants wrap an accepted net.Conn
// in the server role. Data flow is gated on Handshake, and Shutdown
// performs the graceful close-notify phase before Close.
type tlsTransport struct {
	address string
	config  *tls.Config
	server  bool
	raw     net.Conn
	conn    *tls.Conn
}

func (t *tlsTransport) Open(opts Options) error {
	if !t.server {
		// Dial a fresh socket on every Open so a reconnect never reuses
		// a closed handle.
		dialer := net.Dialer{Control: opts.control()}
		raw, err := dialer.Dial("tcp", t.address)
		if err != nil {
			return &NetError{Op: "dial", Addr: t.address, Err: err}
		}
		t.raw = raw
	}
	if opts.NoDelay {
		if tcp, ok := t.raw.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				t.raw.Close()
				t.raw = nil
				t.conn = nil
				return err
			}
		}
	}
	if t.server {
		t.conn = tls.Server(t.raw, t.config)
	} else {
		t.conn = tls.Client(t.raw, t.config)
	}
	return nil
}

func (t *tlsTransport) Handshake() error {
	return t.conn.HandshakeContext(context.Background())
}

func (t *tlsTransport) Read(p []byte) (int, net.Addr, error) {
	n, err := t.conn.Read(p)
	return n, nil, err
}

func (t *tlsTransport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// Shutdown sends the close-notify alert. Errors here are classified by
// the caller but never block teardown.
func (t *tlsTransport) Shutdown() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.CloseWrite()
}

func (t *tlsTransport) Close() error {
	if t.conn == nil {
		if t.raw == nil {
			return nil
		}
		return t.raw.Close()
	}
	return t.conn.Close()
}

func (t *tlsTransport) LocalAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

func (t *tlsTransport) RemoteAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.RemoteAddr()
}

func (t *tlsTransport) Secure() bool { return true }

// TLSClient is an outbound TLS connection. The Connected state is
// followed by an asynchronous handshake; data flow begins at
// OnHandshaked.
type TLSClient struct {
	*Conn
}

// NewTLSClient creates a TLS client targeting address ("host:port") with
// the given TLS configuration. opts may be nil for defaults.
func NewTLSClient(service *dispatch.Service, handler Handler, address string, config *tls.Config, opts *Options) (*TLSClient, error) {
	if config == nil {
		return nil, ErrTLSConfigRequired
	}
	transport := &tlsTransport{address: address, config: config}
	conn, err := newConn(service, handler, address, transport, opts)
	if err != nil {
		return nil, err
	}
	return &TLSClient{Conn: conn}, nil
}
