// Package mysqlnative is a native client driver for the MySQL/MariaDB wire
// protocol (server versions 4.1.1 and later, protocol version 10). It speaks
// the client/server protocol directly over a byte-stream transport; it does
// not wrap any existing native client library.
//
// The package exposes a Connection, which performs the handshake and
// mysql_native_password authentication, then accepts commands one at a time:
// unprepared queries via Exec/Query, and prepared statements via Prepare.
// Results stream out through a ResultStream, or can be materialized eagerly
// into a ResultSet.
//
// A Connection is a single-owner, non-reentrant resource: callers must not
// issue commands on the same Connection from two goroutines concurrently,
// and must fully consume or close one result before starting the next
// command. See DataPendingError and InvalidatedRangeError.
package mysqlnative
