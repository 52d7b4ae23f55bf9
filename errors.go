package mysqlnative

import "fmt"

// TransportError wraps a failure from the underlying socket: a failed
// write, a short read, or EOF where more bytes were expected. Per spec.md
// §7 it is always fatal: the Connection is killed before this is returned.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("mysqlnative: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means bytes received violate the documented wire protocol:
// wrong sequence number, a malformed packet, an unexpected marker byte, or
// running out of bytes where a value was expected. Fatal per spec.md §7.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "mysqlnative: protocol error: " + e.Msg }

func protoErrf(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

// AuthError means the server sent an ERR packet during handshake or login.
type AuthError struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mysqlnative: authentication failed (%d %s): %s", e.Code, e.SQLState, e.Message)
}

// ReceivedError is an ERR packet the server sent mid-session, outside the
// handshake. Recoverable per spec.md §7: the connection remains usable once
// the result queue (if any) is drained.
type ReceivedError struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e *ReceivedError) Error() string {
	return fmt.Sprintf("mysqlnative: server error %d (%s): %s", e.Code, e.SQLState, e.Message)
}

// DataPendingError means a new command was attempted while a prior result
// was still outstanding (spec.md §3's has_pending invariant). Recoverable:
// drain or close the outstanding ResultStream and retry.
type DataPendingError struct{}

func (e *DataPendingError) Error() string {
	return "mysqlnative: a result is still pending on this connection"
}

// InvalidatedRangeError means a ResultStream was read after a newer command
// invalidated it (spec.md §3). Recoverable on the new cursor, not the old
// one.
type InvalidatedRangeError struct{}

func (e *InvalidatedRangeError) Error() string {
	return "mysqlnative: result stream invalidated by a newer command"
}

// NotPreparedError means an operation was attempted on a released (or never
// successfully prepared) statement handle.
type NotPreparedError struct{}

func (e *NotPreparedError) Error() string {
	return "mysqlnative: prepared statement handle is not valid"
}

// ResultReceivedError means Exec was called on a statement that produced a
// result set. The spurious result set has already been purged by the time
// this is returned.
type ResultReceivedError struct{}

func (e *ResultReceivedError) Error() string {
	return "mysqlnative: statement unexpectedly produced a result set; use Query"
}

// NoResultReceivedError means Query was called on a statement that produced
// no result set.
type NoResultReceivedError struct{}

func (e *NoResultReceivedError) Error() string {
	return "mysqlnative: statement produced no result set; use Exec"
}

// UnsupportedParameterError means a prepared-statement argument's Go/Value
// kind is not among the ~15 wire types spec.md §4.G's execute packet can
// encode.
type UnsupportedParameterError struct {
	Kind ValueKind
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("mysqlnative: unsupported prepared-statement parameter kind %s", e.Kind)
}
