package asyncnet

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), msg)
}

// recordingHandler captures every callback for assertions. Callbacks of
// one connection are strand-serialized but may arrive from different
// goroutines over time, so everything is mutex-protected.
type recordingHandler struct {
	mu           sync.Mutex
	connected    int
	handshaked   int
	disconnected int
	empties      int
	received     bytes.Buffer
	receives     int
	sentBytes    int
	sentCalls    int
	events       []ErrorEvent
	joined       []string
	left         []string
}

func (h *recordingHandler) OnConnected(*Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected++
}

func (h *recordingHandler) OnHandshaked(*Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handshaked++
}

func (h *recordingHandler) OnDisconnected(*Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected++
}

func (h *recordingHandler) OnReceived(_ *Conn, _ net.Addr, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received.Write(data)
	h.receives++
}

func (h *recordingHandler) OnSent(_ *Conn, sent, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sentBytes += sent
	h.sentCalls++
}

func (h *recordingHandler) OnEmpty(*Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.empties++
}

func (h *recordingHandler) OnError(_ *Conn, event ErrorEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHandler) OnJoinedMulticastGroup(_ *Conn, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joined = append(h.joined, group)
}

func (h *recordingHandler) OnLeftMulticastGroup(_ *Conn, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.left = append(h.left, group)
}

func (h *recordingHandler) connectedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

func (h *recordingHandler) handshakedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handshaked
}

func (h *recordingHandler) disconnectedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disconnected
}

func (h *recordingHandler) emptyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.empties
}

func (h *recordingHandler) receivedBytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.received.Bytes()...)
}

func (h *recordingHandler) receiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.receives
}

func (h *recordingHandler) totalSent() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sentBytes
}

func (h *recordingHandler) errorEvents() []ErrorEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ErrorEvent(nil), h.events...)
}

func (h *recordingHandler) joinedGroups() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.joined...)
}

func (h *recordingHandler) leftGroups() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.left...)
}
