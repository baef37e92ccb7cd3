package asyncnet

import (
	"net"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/asyncnet/dispatch"
)

// State describes where a connection is in its lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateHandshaking
	StateHandshaked
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateHandshaking:
		return "handshaking"
	case StateHandshaked:
		return "handshaked"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Container is the owning registry session variants deregister from on
// full disconnect. Servers implement it; clients have no container.
type Container interface {
	// Unregister removes the session with the given identity. Called
	// exactly once per session, from the session's strand, at the end
	// of teardown.
	Unregister(id uuid.UUID)
}

// Conn is the generic connection core shared by every transport variant.
// It owns the lifecycle state machine, the double-buffered send
// pipeline, and the continuous receive pump. All state mutation runs as
// tasks on the connection's strand; Send is the one operation callable
// directly from arbitrary goroutines.
type Conn struct {
	id        uuid.UUID
	address   string
	service   *dispatch.Service
	strand    *dispatch.Strand
	handler   Handler
	opts      Options
	transport Transport
	packet    PacketTransport // non-nil for datagram transports

	state atomic.Int32

	sendBuf sendBuffer
	recvBuf *recvBuffer
	stats   Stats

	// aggregate receives a copy of this connection's byte counters,
	// letting a server total traffic across its sessions.
	aggregate *Stats

	// container/unregistered implement the deregister-exactly-once
	// contract for session variants. unregistered is strand-serialized.
	container    Container
	unregistered bool

	// Single-flight guards for the two pipelines. Strand-serialized, so
	// plain bools suffice.
	sending   bool
	receiving bool

	log *logrus.Entry
}

func newConn(service *dispatch.Service, handler Handler, address string, transport Transport, opts *Options) (*Conn, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	if address == "" {
		return nil, ErrAddressRequired
	}
	if handler == nil {
		handler = NopHandler{}
	}

	id := uuid.New()
	c := &Conn{
		id:        id,
		address:   address,
		service:   service,
		strand:    service.NewStrand(),
		handler:   handler,
		opts:      defaultOptions(opts),
		transport: transport,
		log: logrus.WithFields(logrus.Fields{
			"id":      id.String(),
			"address": address,
		}),
	}
	c.packet, _ = transport.(PacketTransport)
	c.recvBuf = newRecvBuffer(c.opts.ReceiveCapacity)
	return c, nil
}

// ID returns the connection's opaque unique identity.
func (c *Conn) ID() uuid.UUID { return c.id }

// Address returns the target endpoint the connection was created for.
func (c *Conn) Address() string { return c.address }

// State returns the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// IsConnected reports whether the connection is established, including
// the handshake phase of secure transports.
func (c *Conn) IsConnected() bool {
	switch c.State() {
	case StateConnected, StateHandshaking, StateHandshaked:
		return true
	default:
		return false
	}
}

// IsHandshaked reports whether a secure transport completed its
// handshake.
func (c *Conn) IsHandshaked() bool { return c.State() == StateHandshaked }

// Stats returns the connection's transfer counters.
func (c *Conn) Stats() *Stats { return &c.stats }

// LocalAddr returns the transport's bound local address, nil when not
// connected.
func (c *Conn) LocalAddr() net.Addr { return c.transport.LocalAddr() }

// RemoteAddr returns the transport's peer address, nil when not
// connected.
func (c *Conn) RemoteAddr() net.Addr { return c.transport.RemoteAddr() }

// Options returns the socket options the connection was created with.
func (c *Conn) Options() Options { return c.opts }

// Service returns the execution-context provider the connection runs on.
func (c *Conn) Service() *dispatch.Service { return c.service }

// isActive reports whether data flow is permitted: handshaked for
// secure transports, connected otherwise.
func (c *Conn) isActive() bool {
	if c.transport.Secure() {
		return c.State() == StateHandshaked
	}
	return c.State() == StateConnected
}

// Connect starts the asynchronous connect. It returns false when the
// connection is already connecting or connected; true when the connect
// task was scheduled. Completion is reported through OnConnected (and
// OnHandshaked for secure transports) or, on failure, OnDisconnected
// preceded by OnError for reportable errors.
func (c *Conn) Connect() bool {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return false
	}
	// Post, not Dispatch: Connect is callable from any goroutine.
	c.strand.Post(c.connectTask)
	return true
}

func (c *Conn) connectTask() {
	if c.State() != StateConnecting {
		return
	}
	// The open itself (dial/bind) may block; run it off the strand and
	// complete like any other asynchronous operation.
	go func() {
		err := c.transport.Open(c.opts)
		c.strand.Dispatch(func() { c.onOpenDone(err) })
	}()
}

func (c *Conn) onOpenDone(err error) {
	if c.State() != StateConnecting {
		return
	}

	if err != nil {
		c.log.WithError(err).Debug("connect failed")
		c.state.Store(int32(StateDisconnected))
		if event, reportable := classify(err, c.transport.Secure()); reportable {
			c.handler.OnError(c, event)
		}
		c.handler.OnDisconnected(c)
		return
	}

	c.stats.reset()
	c.state.Store(int32(StateConnected))
	c.log.Debug("connected")
	c.handler.OnConnected(c)

	if c.transport.Secure() {
		c.state.Store(int32(StateHandshaking))
		c.asyncHandshake()
		return
	}

	if c.packet == nil {
		// Stream transports report the drained send queue right away.
		c.sendBuf.mu.Lock()
		empty := len(c.sendBuf.main) == 0
		c.sendBuf.mu.Unlock()
		if empty {
			c.handler.OnEmpty(c)
		}
	}
	c.tryReceive()
}

func (c *Conn) asyncHandshake() {
	go func() {
		err := c.transport.Handshake()
		c.strand.Dispatch(func() { c.onHandshakeDone(err) })
	}()
}

func (c *Conn) onHandshakeDone(err error) {
	if c.State() != StateHandshaking {
		return
	}
	if err != nil {
		c.log.WithError(err).Debug("handshake failed")
		c.closeOnError(err)
		return
	}
	c.state.Store(int32(StateHandshaked))
	c.log.Debug("handshaked")
	c.handler.OnHandshaked(c)
	c.handler.OnEmpty(c)
	c.tryReceive()
}

// Disconnect starts the asynchronous teardown. It returns false when the
// connection is not connected. With dispatch true the teardown task is
// scheduled with Dispatch semantics, the path used when reacting to an
// error inside an already-serialized completion; external callers use
// the default Post path.
func (c *Conn) Disconnect(dispatch bool) bool {
	if !c.IsConnected() {
		return false
	}
	if dispatch {
		c.strand.Dispatch(c.disconnectTask)
	} else {
		c.strand.Post(c.disconnectTask)
	}
	return true
}

func (c *Conn) disconnectTask() {
	if !c.IsConnected() {
		return
	}
	handshaked := c.State() == StateHandshaked
	c.state.Store(int32(StateDisconnecting))

	if c.transport.Secure() && handshaked {
		// Graceful shutdown handshake first; teardown proceeds whether
		// or not it succeeds.
		go func() {
			err := c.transport.Shutdown()
			c.strand.Dispatch(func() { c.finishDisconnect(err) })
		}()
		return
	}
	c.finishDisconnect(nil)
}

func (c *Conn) finishDisconnect(shutdownErr error) {
	if c.State() != StateDisconnecting {
		return
	}

	if shutdownErr != nil {
		if event, reportable := classify(shutdownErr, c.transport.Secure()); reportable {
			c.handler.OnError(c, event)
		}
	}

	if err := c.transport.Close(); err != nil {
		c.log.WithError(err).Debug("transport close failed")
	}
	c.sendBuf.clear()
	c.state.Store(int32(StateDisconnected))
	c.log.Debug("disconnected")
	c.handler.OnDisconnected(c)

	if c.container != nil && !c.unregistered {
		c.unregistered = true
		c.container.Unregister(c.id)
	}
}

// Reconnect disconnects, waits for teardown to fully complete, then
// connects again. It returns false when there was nothing to disconnect.
// The wait is a yielding busy-wait; it does not return before buffers
// are cleared and the disconnected callback fired.
func (c *Conn) Reconnect() bool {
	if !c.Disconnect(false) {
		return false
	}
	for c.State() != StateDisconnected {
		runtime.Gosched()
	}
	return c.Connect()
}

// Send queues p for asynchronous delivery and returns the total number
// of bytes pending in the main send buffer after the append. It returns
// 0 when p is empty or data flow is not permitted yet. Safe to call
// from any goroutine.
//
// Datagram transports send immediately instead of queueing; the return
// value is then the size of the sent datagram.
func (c *Conn) Send(p []byte) int {
	if c.packet != nil {
		// The connected-state load orders this goroutine after Open's
		// writes; check it before touching any transport field.
		if !c.IsConnected() {
			return 0
		}
		return c.sendDatagram(c.transport.RemoteAddr(), p)
	}
	if len(p) == 0 {
		return 0
	}
	if !c.isActive() {
		return 0
	}

	queued := c.sendBuf.append(p)
	c.strand.Dispatch(c.trySend)
	return queued
}

// trySend drains the send pipeline. Single-flight: the sending guard
// ensures at most one write is in flight per connection.
func (c *Conn) trySend() {
	if c.sending {
		return
	}
	if !c.isActive() {
		return
	}

	c.sendBuf.swap()
	chunk := c.sendBuf.pending()
	if len(chunk) == 0 {
		c.handler.OnEmpty(c)
		return
	}

	c.sending = true
	go func() {
		n, err := c.transport.Write(chunk)
		c.strand.Dispatch(func() { c.onWriteDone(n, err) })
	}()
}

func (c *Conn) onWriteDone(n int, err error) {
	c.sending = false

	if !c.isActive() {
		return
	}

	if n > 0 {
		c.stats.addSent(n)
		if c.aggregate != nil {
			c.aggregate.addSent(n)
		}
		remaining := c.sendBuf.advance(n)
		c.handler.OnSent(c, n, remaining)
	}

	if err == nil {
		c.trySend()
		return
	}
	c.closeOnError(err)
}

func (c *Conn) sendDatagram(to net.Addr, p []byte) int {
	if len(p) == 0 || to == nil {
		return 0
	}
	if !c.IsConnected() {
		return 0
	}

	n, err := c.packet.WriteTo(p, to)
	if n > 0 {
		c.stats.addDatagramSent(n)
		c.handler.OnSent(c, n, 0)
	}
	if err != nil {
		c.strand.Dispatch(func() { c.closeOnError(err) })
		return 0
	}
	return n
}

// tryReceive starts the continuous read pump. Single-flight: the
// receiving guard ensures at most one read is in flight per connection.
// The pump re-issues itself from each completion until disconnect or
// error.
func (c *Conn) tryReceive() {
	if c.receiving {
		return
	}
	if !c.isActive() {
		return
	}

	c.receiving = true
	buf := c.recvBuf.slice()
	go func() {
		n, from, err := c.transport.Read(buf)
		c.strand.Dispatch(func() { c.onReadDone(buf, n, from, err) })
	}()
}

func (c *Conn) onReadDone(buf []byte, n int, from net.Addr, err error) {
	// Clear the guard before any recursive re-issue.
	c.receiving = false

	if !c.isActive() {
		return
	}

	if n > 0 {
		if c.packet != nil {
			c.stats.addDatagramReceived(n)
		} else {
			c.stats.addReceived(n)
			if c.aggregate != nil {
				c.aggregate.addReceived(n)
			}
		}
		// A read that filled the buffer exactly doubles the capacity
		// for the next one. buf still references the old array, so the
		// callback slice stays valid.
		c.recvBuf.grow(n)
		c.handler.OnReceived(c, from, buf[:n])
	}

	if err == nil {
		c.tryReceive()
		return
	}
	c.closeOnError(err)
}

// closeOnError classifies err, reports it when reportable, and forces a
// disconnect. Always called from within the connection's strand.
func (c *Conn) closeOnError(err error) {
	if event, reportable := classify(err, c.transport.Secure()); reportable {
		c.log.WithFields(logrus.Fields{
			"code":     event.Code,
			"category": event.Category,
		}).Warn(event.Message)
		c.handler.OnError(c, event)
	}
	c.Disconnect(true)
}
