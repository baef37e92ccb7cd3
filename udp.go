package asyncnet

import (
	"context"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/opd-ai/asyncnet/dispatch"
)

// udpTransport is the datagram transport. Outbound clients bind a
// wildcard local endpoint and remember the resolved target; in multicast
// mode the socket binds the explicit endpoint so it can receive group
// traffic. Group membership is managed through the x/net packet conn
// wrappers.
type udpTransport struct {
	address string
	conn    net.PacketConn
	remote  net.Addr
	conn4   *ipv4.PacketConn
	conn6   *ipv6.PacketConn
}

func (t *udpTransport) Open(opts Options) error {
	remote, err := net.ResolveUDPAddr("udp", t.address)
	if err != nil {
		return &NetError{Op: "resolve", Addr: t.address, Err: err}
	}

	listenAddr := ":0"
	if opts.Multicast {
		listenAddr = t.address
	}
	lc := net.ListenConfig{Control: opts.control()}
	conn, err := lc.ListenPacket(context.Background(), "udp", listenAddr)
	if err != nil {
		return &NetError{Op: "bind", Addr: listenAddr, Err: err}
	}

	t.conn = conn
	t.remote = remote
	t.conn4 = ipv4.NewPacketConn(conn)
	t.conn6 = ipv6.NewPacketConn(conn)
	return nil
}

func (t *udpTransport) Handshake() error { return nil }

func (t *udpTransport) Read(p []byte) (int, net.Addr, error) {
	return t.conn.ReadFrom(p)
}

func (t *udpTransport) Write(p []byte) (int, error) {
	return t.conn.WriteTo(p, t.remote)
}

func (t *udpTransport) WriteTo(p []byte, addr net.Addr) (int, error) {
	return t.conn.WriteTo(p, addr)
}

func (t *udpTransport) JoinGroup(group net.IP) error {
	addr := &net.UDPAddr{IP: group}
	if group.To4() != nil {
		return t.conn4.JoinGroup(nil, addr)
	}
	return t.conn6.JoinGroup(nil, addr)
}

func (t *udpTransport) LeaveGroup(group net.IP) error {
	addr := &net.UDPAddr{IP: group}
	if group.To4() != nil {
		return t.conn4.LeaveGroup(nil, addr)
	}
	return t.conn6.LeaveGroup(nil, addr)
}

func (t *udpTransport) Shutdown() error { return nil }

func (t *udpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

func (t *udpTransport) LocalAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

func (t *udpTransport) RemoteAddr() net.Addr { return t.remote }

func (t *udpTransport) Secure() bool { return false }

// UDPClient is a datagram connection. Sends are immediate, preserving
// datagram boundaries; Send targets the connect-time endpoint and
// SendTo an explicit one. In multicast mode the client binds its
// endpoint and can join groups once connected.
type UDPClient struct {
	*Conn
	transport *udpTransport
}

// NewUDPClient creates a UDP client targeting address ("host:port").
// opts may be nil for defaults; set opts.Multicast to bind the explicit
// endpoint for group reception.
func NewUDPClient(service *dispatch.Service, handler Handler, address string, opts *Options) (*UDPClient, error) {
	transport := &udpTransport{address: address}
	conn, err := newConn(service, handler, address, transport, opts)
	if err != nil {
		return nil, err
	}
	return &UDPClient{Conn: conn, transport: transport}, nil
}

// SendTo sends one datagram to an explicit endpoint. It returns the
// datagram size, or 0 when the client is not connected or the buffer is
// empty.
func (u *UDPClient) SendTo(addr net.Addr, p []byte) int {
	return u.sendDatagram(addr, p)
}

// JoinGroup joins a multicast group. An unparsable or non-multicast
// address fails synchronously; when not connected the call is a silent
// no-op. On success OnJoinedMulticastGroup fires from the connection's
// strand.
func (u *UDPClient) JoinGroup(group string) error {
	return u.membership(group, "join group", u.transport.JoinGroup, u.handler.OnJoinedMulticastGroup)
}

// LeaveGroup leaves a multicast group, with the same contract as
// JoinGroup. On success OnLeftMulticastGroup fires.
func (u *UDPClient) LeaveGroup(group string) error {
	return u.membership(group, "leave group", u.transport.LeaveGroup, u.handler.OnLeftMulticastGroup)
}

func (u *UDPClient) membership(group, op string, apply func(net.IP) error, notify func(*Conn, string)) error {
	ip := net.ParseIP(group)
	if ip == nil || !ip.IsMulticast() {
		return &NetError{Op: op, Addr: group, Err: ErrInvalidMulticastGroup}
	}
	if !u.IsConnected() {
		return nil
	}
	u.strand.Dispatch(func() {
		// Re-check: a disconnect may have raced the dispatch.
		if !u.IsConnected() {
			return
		}
		if err := apply(ip); err != nil {
			u.closeOnError(err)
			return
		}
		notify(u.Conn, group)
	})
	return nil
}
