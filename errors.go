package asyncnet

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

// Common errors for the connection engine
var (
	// ErrServiceRequired indicates a nil dispatch service was passed to a constructor
	ErrServiceRequired = errors.New("dispatch service is required")

	// ErrAddressRequired indicates an empty endpoint address was passed to a constructor
	ErrAddressRequired = errors.New("endpoint address is required")

	// ErrTLSConfigRequired indicates a nil TLS configuration was passed to a secure constructor
	ErrTLSConfigRequired = errors.New("TLS configuration is required")

	// ErrInvalidMulticastGroup indicates a multicast group address failed to parse
	ErrInvalidMulticastGroup = errors.New("invalid multicast group address")

	// ErrNotConnected indicates the operation requires an established connection
	ErrNotConnected = errors.New("not connected")
)

// NetError represents a transport error with operation context.
type NetError struct {
	Op   string // operation that caused the error
	Addr string // address if relevant
	Err  error  // underlying error
}

func (e *NetError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("asyncnet %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("asyncnet %s: %v", e.Op, e.Err)
}

func (e *NetError) Unwrap() error {
	return e.Err
}

// ErrorEvent describes a reportable transport error delivered to
// Handler.OnError. Suppressed teardown noise never produces one.
type ErrorEvent struct {
	Code     int    // numeric errno when available, otherwise 0
	Category string // "system", "net", "tls" or "generic"
	Message  string
}

func (e ErrorEvent) String() string {
	return fmt.Sprintf("%s error %d: %s", e.Category, e.Code, e.Message)
}

// suppressedErrnos are the expected artifacts of connection teardown.
// They force a disconnect but are never surfaced through OnError.
var suppressedErrnos = []syscall.Errno{
	syscall.ECONNABORTED,
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
}

// tlsTeardownNoise matches the benign alerts a TLS stack raises when a
// shutdown races a close. Matched on message text because crypto/tls
// does not export sentinel errors for them.
var tlsTeardownNoise = []string{
	"bad record MAC",
	"protocol is shutdown",
	"wrong version number",
	"close notify",
}

// suppressed reports whether err is expected teardown noise. Secure
// transports suppress a wider set covering TLS shutdown races.
func suppressed(err error, secure bool) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	for _, errno := range suppressedErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	if secure {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return true
		}
		msg := err.Error()
		for _, noise := range tlsTeardownNoise {
			if strings.Contains(msg, noise) {
				return true
			}
		}
	}
	return false
}

// classify maps a transport error to an ErrorEvent. The second result is
// false for suppressed errors, which produce no event.
func classify(err error, secure bool) (ErrorEvent, bool) {
	if suppressed(err, secure) {
		return ErrorEvent{}, false
	}

	event := ErrorEvent{Category: "generic", Message: err.Error()}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		event.Code = int(errno)
		event.Category = "system"
		return event, true
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		event.Category = "tls"
		return event, true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		event.Code = int(alertErr)
		event.Category = "tls"
		return event, true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		event.Category = "tls"
		return event, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		event.Category = "net"
		return event, true
	}

	return event, true
}
