package mysqlnative

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"
)

// Transport is the narrow stream-socket interface spec.md §6 describes:
// connect, read, write, close. TCP is the only supported family (spec.md
// §1's Non-goals exclude Unix-domain sockets and named pipes);
// implementations may swap the transport behind this interface for testing.
type Transport = io.ReadWriteCloser

// Dialer opens a Transport to host:port. It is an injected function, not a
// process-wide singleton (spec.md §9), so tests and alternative transports
// can be substituted without touching Connection.
type Dialer func(ctx context.Context, host string, port int) (Transport, error)

// DialTCP is the default Dialer, backed by net.Dial. It is the only
// transport family this driver supports, per spec.md §1.
func DialTCP(ctx context.Context, host string, port int) (Transport, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// DialTCPTimeout builds a Dialer that bounds the connect call itself; per
// spec.md §5, once a command byte has been sent no operation is internally
// cancellable, so this timeout only ever applies to the initial TCP
// handshake, not to subsequent packet I/O.
func DialTCPTimeout(timeout time.Duration) Dialer {
	return func(ctx context.Context, host string, port int) (Transport, error) {
		d := net.Dialer{Timeout: timeout}
		return d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	}
}
