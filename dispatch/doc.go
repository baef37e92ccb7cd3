// Package dispatch provides the execution-context layer of the asyncnet
// connection engine: a Service describing how the engine is driven
// (single-threaded cooperative or multi-threaded) and a Strand that
// serializes tasks touching one connection's state.
//
// # Service
//
// A Service is created once and shared by every client, server, and
// session that should run on the same execution context:
//
//	service := dispatch.NewService(true) // multi-threaded
//	client, err := asyncnet.NewTCPClient(service, handler, "127.0.0.1:8080", nil)
//
// In multi-threaded mode each call to NewStrand returns an independent
// serialization context, so different connections make progress in
// parallel while each connection's tasks stay serialized. In
// single-threaded mode NewStrand always returns the service's one shared
// strand: every connection's tasks funnel through a single logical
// execution loop and never run concurrently with each other.
//
// # Strand
//
// A Strand guarantees that at most one submitted task executes at any
// instant, and that tasks submitted with Post run in FIFO order relative
// to other posted tasks.
//
// Post always enqueues. Dispatch runs the task inline when the strand is
// idle and can be acquired immediately; otherwise it enqueues, including
// when called from within a task already running on the strand, where
// the enqueued task runs right after the current one returns. This
// bounds stack growth from reentrant completion handlers while keeping
// the common idle-path fast.
package dispatch
