package asyncnet

// Session is the server-side counterpart of a client connection. It
// shares the full connection core (state machine, send pipeline,
// receive pump, callbacks) and is additionally registered in its owning
// server's lookup table for the duration of the connection. Teardown
// deregisters it exactly once.
type Session struct {
	*Conn
	server *Server
}

func newSession(server *Server, transport Transport, address string) (*Session, error) {
	conn, err := newConn(server.service, server.handler, address, transport, &server.opts)
	if err != nil {
		return nil, err
	}
	conn.container = server
	conn.aggregate = &server.stats
	return &Session{Conn: conn, server: server}, nil
}

// Server returns the owning server container.
func (s *Session) Server() *Server { return s.server }
