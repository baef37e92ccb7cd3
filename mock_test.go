package asyncnet

import (
	"net"
	"sync"
	"sync/atomic"
)

type scriptedRead struct {
	data []byte
	from net.Addr
	err  error
}

// mockTransport scripts reads and records writes while tracking how many
// operations of each kind are in flight, so tests can verify the
// at-most-one-read / at-most-one-write invariant. Like the real client
// transports, every Open produces a fresh handle.
type mockTransport struct {
	mu      sync.Mutex
	written []byte
	closed  chan struct{}

	reads chan scriptedRead

	readsInFlight  atomic.Int32
	maxReads       atomic.Int32
	writesInFlight atomic.Int32
	maxWrites      atomic.Int32

	openErr      error
	handshakeErr error
	shutdownErr  error
	writeErr     atomic.Value // error
	writeGate    chan struct{}

	secure bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		reads:  make(chan scriptedRead, 64),
		closed: make(chan struct{}),
	}
}

func updateMax(max *atomic.Int32, current int32) {
	for {
		old := max.Load()
		if current <= old || max.CompareAndSwap(old, current) {
			return
		}
	}
}

func (m *mockTransport) closedCh() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockTransport) Open(Options) error {
	if m.openErr != nil {
		return m.openErr
	}
	m.mu.Lock()
	m.closed = make(chan struct{})
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) Handshake() error { return m.handshakeErr }

func (m *mockTransport) Read(p []byte) (int, net.Addr, error) {
	updateMax(&m.maxReads, m.readsInFlight.Add(1))
	defer m.readsInFlight.Add(-1)

	select {
	case r := <-m.reads:
		if r.err != nil {
			return 0, r.from, r.err
		}
		return copy(p, r.data), r.from, nil
	case <-m.closedCh():
		return 0, nil, net.ErrClosed
	}
}

func (m *mockTransport) Write(p []byte) (int, error) {
	updateMax(&m.maxWrites, m.writesInFlight.Add(1))
	defer m.writesInFlight.Add(-1)

	if m.writeGate != nil {
		select {
		case <-m.writeGate:
		case <-m.closedCh():
			return 0, net.ErrClosed
		}
	}
	if err, ok := m.writeErr.Load().(error); ok && err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.written = append(m.written, p...)
	m.mu.Unlock()
	return len(p), nil
}

func (m *mockTransport) Shutdown() error { return m.shutdownErr }

func (m *mockTransport) Close() error {
	m.mu.Lock()
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}
}

func (m *mockTransport) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2}
}

func (m *mockTransport) Secure() bool { return m.secure }

func (m *mockTransport) writtenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written...)
}

func (m *mockTransport) pushRead(data []byte) {
	m.reads <- scriptedRead{data: data}
}

func (m *mockTransport) pushReadError(err error) {
	m.reads <- scriptedRead{err: err}
}
