package asyncnet

import "syscall"

// Options carries the socket-level configuration applied when a
// connection's transport opens. The zero value is a usable default.
type Options struct {
	// ReuseAddress sets SO_REUSEADDR before binding.
	ReuseAddress bool

	// ReusePort sets SO_REUSEPORT before binding. Best effort: ignored
	// on platforms without the option.
	ReusePort bool

	// NoDelay disables Nagle's algorithm on stream transports.
	NoDelay bool

	// Multicast binds a UDP socket to its explicit endpoint so it can
	// receive group traffic, instead of the wildcard bind outbound
	// clients use.
	Multicast bool

	// ReceiveCapacity is the initial receive buffer size.
	// DefaultReceiveCapacity when zero.
	ReceiveCapacity int
}

func defaultOptions(opts *Options) Options {
	if opts == nil {
		return Options{}
	}
	return *opts
}

// control returns a Control callback for net.Dialer/net.ListenConfig
// applying the reuse options, or nil when none are set.
func (o Options) control() func(network, address string, rc syscall.RawConn) error {
	if !o.ReuseAddress && !o.ReusePort {
		return nil
	}
	return func(network, address string, rc syscall.RawConn) error {
		var optErr error
		if err := rc.Control(func(fd uintptr) {
			optErr = setReuseOptions(fd, o.ReuseAddress, o.ReusePort)
		}); err != nil {
			return err
		}
		return optErr
	}
}
