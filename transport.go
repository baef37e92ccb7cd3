package asyncnet

import "net"

// Transport is the capability set the connection core drives. One
// generic core serves every variant: TCP supplies no-op handshake and
// shutdown, UDP additionally implements PacketTransport, TLS supplies a
// real handshake and graceful shutdown.
//
// All methods are blocking; the core wraps them in asynchronous
// operations completing on the connection's strand.
type Transport interface {
	// Open dials or binds the transport and applies socket options.
	Open(opts Options) error

	// Handshake performs the secure-transport handshake. Plain
	// transports return nil immediately.
	Handshake() error

	// Read blocks for the next chunk of inbound data. For packet
	// transports the returned address is the datagram's sender.
	Read(p []byte) (int, net.Addr, error)

	// Write blocks until p is written or an error occurs.
	Write(p []byte) (int, error)

	// Shutdown performs the graceful close phase preceding Close.
	// Plain transports return nil immediately.
	Shutdown() error

	// Close releases the underlying socket. Safe to call with
	// operations in flight; they complete with an error.
	Close() error

	// LocalAddr returns the bound local address, nil before Open.
	LocalAddr() net.Addr

	// RemoteAddr returns the peer address, nil before Open and for
	// unconnected packet transports.
	RemoteAddr() net.Addr

	// Secure reports whether data flow is gated on a handshake.
	Secure() bool
}

// PacketTransport extends Transport with datagram capabilities: sends to
// explicit endpoints and multicast group membership.
type PacketTransport interface {
	Transport

	// WriteTo sends one datagram to the given endpoint.
	WriteTo(p []byte, addr net.Addr) (int, error)

	// JoinGroup joins a multicast group on the transport's socket.
	JoinGroup(group net.IP) error

	// LeaveGroup leaves a previously joined multicast group.
	LeaveGroup(group net.IP) error
}
