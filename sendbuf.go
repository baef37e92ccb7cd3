package asyncnet

import "sync"

// sendBuffer is the double-buffered outbound queue. Producers append to
// main under the lock from any goroutine; the single writer owns flush
// and only takes the lock to swap the two when flush is drained. The
// flush offset marks bytes of flush already written to the transport.
type sendBuffer struct {
	mu          sync.Mutex
	main        []byte
	flush       []byte
	flushOffset int
}

// append adds p to the main buffer and returns the total size of main
// after the append.
func (b *sendBuffer) append(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.main = append(b.main, p...)
	return len(b.main)
}

// swap exchanges flush and main when flush is fully drained. The writer
// never swaps a partially written flush buffer, so flushOffset resets to
// zero exactly when flush is replaced.
func (b *sendBuffer) swap() {
	if len(b.flush) != 0 {
		return
	}
	b.mu.Lock()
	b.main, b.flush = b.flush[:0], b.main
	b.mu.Unlock()
	b.flushOffset = 0
}

// pending returns the not-yet-written tail of the flush buffer. Only the
// writer calls this; no lock is needed once the buffers are swapped.
func (b *sendBuffer) pending() []byte {
	return b.flush[b.flushOffset:]
}

// advance records n written bytes and returns how many remain in flush.
// A fully written flush buffer is cleared for the next swap.
func (b *sendBuffer) advance(n int) int {
	b.flushOffset += n
	if b.flushOffset == len(b.flush) {
		b.flush = b.flush[:0]
		b.flushOffset = 0
		return 0
	}
	return len(b.flush) - b.flushOffset
}

// clear drops both buffers on full disconnect.
func (b *sendBuffer) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.main = b.main[:0]
	b.flush = b.flush[:0]
	b.flushOffset = 0
}
