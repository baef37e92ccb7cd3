package dispatch

// Service is the execution-context provider for the connection engine.
// It carries the threading mode and hands out serialization contexts.
type Service struct {
	multithread bool
	shared      *Strand
}

// NewService creates a Service. With multithread true every connection
// receives its own strand; with multithread false all connections share
// one strand, forming a single cooperative execution loop.
func NewService(multithread bool) *Service {
	return &Service{
		multithread: multithread,
		shared:      newStrand(),
	}
}

// Multithread reports whether connections run on independent strands.
func (s *Service) Multithread() bool {
	return s.multithread
}

// NewStrand returns the serialization context for a new connection:
// a fresh strand in multi-threaded mode, the shared strand otherwise.
func (s *Service) NewStrand() *Strand {
	if s.multithread {
		return newStrand()
	}
	return s.shared
}
