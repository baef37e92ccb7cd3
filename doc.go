// Package asyncnet is an asynchronous network I/O engine providing
// symmetric client/session primitives over plain TCP, UDP, and
// TLS-wrapped TCP. One generic connection core (lifecycle state
// machine, double-buffered outbound pipeline, growable inbound pump)
// serves every transport variant; transports only supply the capability
// set {open, read, write, handshake, shutdown, close}.
//
// # Getting Started
//
// Create a dispatch service, implement the callbacks of interest, and
// connect:
//
//	service := dispatch.NewService(true)
//
//	type handler struct {
//	    asyncnet.NopHandler
//	}
//
//	func (handler) OnReceived(c *asyncnet.Conn, _ net.Addr, data []byte) {
//	    fmt.Printf("received %d bytes\n", len(data))
//	}
//
//	client, err := asyncnet.NewTCPClient(service, handler{}, "127.0.0.1:8080", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client.Connect()
//	client.Send([]byte("hello"))
//
// Servers are symmetric: an accepted connection becomes a Session
// carrying the same callback surface and pipelines, registered in the
// server's lookup table until teardown:
//
//	server, err := asyncnet.NewTCPServer(service, handler{}, ":8080", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.Start()
//
// # Concurrency Model
//
// Every connection owns a serialization context (a dispatch.Strand);
// all state mutation and every callback run as tasks on it. Send is the
// one operation callable directly from arbitrary goroutines: it takes
// only a short-lived lock around the shared main buffer, then schedules
// the flush. At most one read and at most one write are in flight per
// connection at any instant, though one of each may be in flight
// concurrently.
//
// There is no cancellation API: Disconnect lets in-flight operations
// run to completion, and their completion handlers no-op once the
// connection has left the active state. Scheduled tasks hold a strong
// reference to the connection, so it stays alive for the lifetime of
// every outstanding operation.
//
// # Error Model
//
// Usage errors (empty buffer, wrong state) surface as zero/false
// results. Transport errors are classified: expected teardown artifacts
// (connection reset, EOF, closed-connection, and the benign TLS
// shutdown races) are suppressed, anything else reaches OnError exactly
// once. Either way the connection is force-disconnected; retry policy
// belongs to the caller, built from Reconnect.
package asyncnet
