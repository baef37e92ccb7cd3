package asyncnet

// DefaultReceiveCapacity is the initial size of the receive buffer when
// Options does not override it.
const DefaultReceiveCapacity = 8192

// recvBuffer is the growable inbound buffer driving the read pump. Only
// the connection's strand touches it.
type recvBuffer struct {
	data []byte
}

func newRecvBuffer(capacity int) *recvBuffer {
	if capacity <= 0 {
		capacity = DefaultReceiveCapacity
	}
	return &recvBuffer{data: make([]byte, capacity)}
}

func (b *recvBuffer) slice() []byte {
	return b.data
}

func (b *recvBuffer) capacity() int {
	return len(b.data)
}

// grow doubles the capacity if and only if a completed read filled the
// buffer exactly. The old array stays untouched, so slices handed to a
// receive callback before the grow remain valid.
func (b *recvBuffer) grow(size int) {
	if size == len(b.data) {
		b.data = make([]byte, 2*size)
	}
}
