package dispatch

import (
	"sync"

	"github.com/eapache/queue"
)

// Task is a unit of work executed on a Strand.
type Task func()

// Strand serializes tasks for a single connection. At most one task runs
// at any instant; posted tasks run in FIFO order. The zero value is not
// usable; obtain strands from a Service.
type Strand struct {
	mu    sync.Mutex
	tasks *queue.Queue
	busy  bool
}

func newStrand() *Strand {
	return &Strand{tasks: queue.New()}
}

// Post enqueues task for execution on the strand. It never runs the task
// on the caller's stack, which makes it safe for operations initiated
// from arbitrary goroutines that must not reenter connection state.
func (s *Strand) Post(task Task) {
	s.mu.Lock()
	s.tasks.Add(task)
	if s.busy {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()
	go s.drain()
}

// Dispatch runs task inline when the strand is idle, and enqueues it
// otherwise. A Dispatch from within a running task therefore executes
// right after the current task returns instead of growing the stack.
func (s *Strand) Dispatch(task Task) {
	s.mu.Lock()
	if s.busy {
		s.tasks.Add(task)
		s.mu.Unlock()
		return
	}
	// busy == false implies the queue is empty, so running inline cannot
	// overtake previously posted tasks.
	s.busy = true
	s.mu.Unlock()
	task()
	s.drain()
}

// drain runs queued tasks until none remain, then releases the strand.
// The busy flag is owned by exactly one drainer at a time.
func (s *Strand) drain() {
	for {
		s.mu.Lock()
		if s.tasks.Length() == 0 {
			s.busy = false
			s.mu.Unlock()
			return
		}
		task := s.tasks.Remove().(Task)
		s.mu.Unlock()
		task()
	}
}
