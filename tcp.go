package asyncnet

import (
	"net"

	"github.com/opd-ai/asyncnet/dispatch"
)

// tcpTransport is the plain stream transport. Outbound connections dial
// a fresh socket on every Open, so a reconnect never reuses a closed
// handle; session variants are created around an already-accepted
// net.Conn, for which Open only applies socket options.
type tcpTransport struct {
	address  string
	accepted bool
	conn     net.Conn
}

func (t *tcpTransport) Open(opts Options) error {
	if !t.accepted {
		dialer := net.Dialer{Control: opts.control()}
		conn, err := dialer.Dial("tcp", t.address)
		if err != nil {
			return &NetError{Op: "dial", Addr: t.address, Err: err}
		}
		t.conn = conn
	}
	if opts.NoDelay {
		if tcp, ok := t.conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				t.conn.Close()
				t.conn = nil
				return err
			}
		}
	}
	return nil
}

func (t *tcpTransport) Handshake() error { return nil }

func (t *tcpTransport) Read(p []byte) (int, net.Addr, error) {
	n, err := t.conn.Read(p)
	return n, nil, err
}

func (t *tcpTransport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *tcpTransport) Shutdown() error { return nil }

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

func (t *tcpTransport) LocalAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

func (t *tcpTransport) RemoteAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.RemoteAddr()
}

func (t *tcpTransport) Secure() bool { return false }

// TCPClient is an outbound plain TCP connection.
type TCPClient struct {
	*Conn
}

// NewTCPClient creates a TCP client targeting address ("host:port").
// opts may be nil for defaults. The client starts disconnected; call
// Connect to establish the connection.
func NewTCPClient(service *dispatch.Service, handler Handler, address string, opts *Options) (*TCPClient, error) {
	conn, err := newConn(service, handler, address, &tcpTransport{address: address}, opts)
	if err != nil {
		return nil, err
	}
	return &TCPClient{Conn: conn}, nil
}
