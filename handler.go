package asyncnet

import "net"

// Handler is the callback surface a connection's owner implements.
// Callbacks for one connection are invoked from that connection's strand
// and never run concurrently with each other, with one exception: on
// datagram transports, where sends complete immediately, OnSent fires
// inline on the goroutine that called Send or SendTo.
//
// Embed NopHandler to implement only the callbacks of interest:
//
//	type echoHandler struct {
//	    asyncnet.NopHandler
//	}
//
//	func (echoHandler) OnReceived(c *asyncnet.Conn, from net.Addr, data []byte) {
//	    c.Send(data)
//	}
type Handler interface {
	// OnConnected fires when the transport is open and, for plain
	// transports, data flow may begin.
	OnConnected(c *Conn)

	// OnHandshaked fires when a secure transport completed its
	// handshake and data flow may begin. Never fires for plain
	// transports.
	OnHandshaked(c *Conn)

	// OnDisconnected fires once teardown completed and the connection
	// is fully disconnected.
	OnDisconnected(c *Conn)

	// OnReceived fires with the bytes of one completed read. For UDP,
	// from is the datagram's sender endpoint; nil otherwise. The data
	// slice is only valid for the duration of the callback.
	OnReceived(c *Conn, from net.Addr, data []byte)

	// OnSent fires after a completed write with the written size and
	// the bytes still pending in the flush buffer. Datagram sends
	// complete immediately, so their OnSent fires inline on the sending
	// goroutine with remaining always 0.
	OnSent(c *Conn, sent int, remaining int)

	// OnEmpty fires when the send queue fully drained.
	OnEmpty(c *Conn)

	// OnError fires for reportable transport errors only; suppressed
	// teardown noise never reaches it. A forced disconnect follows.
	OnError(c *Conn, event ErrorEvent)

	// OnJoinedMulticastGroup fires after a UDP connection joined a
	// multicast group.
	OnJoinedMulticastGroup(c *Conn, group string)

	// OnLeftMulticastGroup fires after a UDP connection left a
	// multicast group.
	OnLeftMulticastGroup(c *Conn, group string)
}

// NopHandler implements Handler with no-ops for embedding.
type NopHandler struct{}

func (NopHandler) OnConnected(*Conn)                    {}
func (NopHandler) OnHandshaked(*Conn)                   {}
func (NopHandler) OnDisconnected(*Conn)                 {}
func (NopHandler) OnReceived(*Conn, net.Addr, []byte)   {}
func (NopHandler) OnSent(*Conn, int, int)               {}
func (NopHandler) OnEmpty(*Conn)                        {}
func (NopHandler) OnError(*Conn, ErrorEvent)            {}
func (NopHandler) OnJoinedMulticastGroup(*Conn, string) {}
func (NopHandler) OnLeftMulticastGroup(*Conn, string)   {}

var _ Handler = NopHandler{}
