package asyncnet

import "sync/atomic"

// Stats aggregates transfer counters for a connection or server. All
// counters are monotonically increasing between connects; a successful
// (re)connect resets them to zero. Counters reflect bytes actually
// observed as transferred, never requested sizes.
type Stats struct {
	bytesSent         atomic.Uint64
	bytesReceived     atomic.Uint64
	datagramsSent     atomic.Uint64
	datagramsReceived atomic.Uint64
}

// BytesSent returns the total bytes written to the transport.
func (s *Stats) BytesSent() uint64 { return s.bytesSent.Load() }

// BytesReceived returns the total bytes read from the transport.
func (s *Stats) BytesReceived() uint64 { return s.bytesReceived.Load() }

// DatagramsSent returns the number of datagrams sent (UDP only).
func (s *Stats) DatagramsSent() uint64 { return s.datagramsSent.Load() }

// DatagramsReceived returns the number of datagrams received (UDP only).
func (s *Stats) DatagramsReceived() uint64 { return s.datagramsReceived.Load() }

func (s *Stats) addSent(n int) {
	s.bytesSent.Add(uint64(n))
}

func (s *Stats) addReceived(n int) {
	s.bytesReceived.Add(uint64(n))
}

func (s *Stats) addDatagramSent(n int) {
	s.datagramsSent.Add(1)
	s.bytesSent.Add(uint64(n))
}

func (s *Stats) addDatagramReceived(n int) {
	s.datagramsReceived.Add(1)
	s.bytesReceived.Add(uint64(n))
}

func (s *Stats) reset() {
	s.bytesSent.Store(0)
	s.bytesReceived.Store(0)
	s.datagramsSent.Store(0)
	s.datagramsReceived.Store(0)
}
