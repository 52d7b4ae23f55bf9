package mysqlnative

import (
	"context"
	"errors"
)

// errConnectionClosed is wrapped in a TransportError when a command is
// attempted on a connection that has already been killed or quit.
var errConnectionClosed = errors.New("mysqlnative: connection is closed")

// connState tracks the coarse lifecycle spec.md §5 describes: a Connection
// is constructed, handshakes into authenticated, and eventually transitions
// to closed either by an explicit Quit or by a fatal transport/protocol
// error (kill). There is no half-open state: any I/O failure kills the
// connection outright rather than leaving it in an ambiguous condition a
// caller might retry against.
type connState uint8

const (
	stateConstructed connState = iota
	stateAuthenticated
	stateClosed
)

// Connection is a single, non-reentrant, synchronously-blocking session
// against one MySQL or MariaDB server, per spec.md §5: there is no internal
// goroutine-safety machinery, and no command is cancellable once its first
// byte has been written.
type Connection struct {
	cfg       Config
	transport Transport
	buf       *buffer
	sequence  uint8
	state     connState

	serverCapabilities Capability
	capabilities       Capability
	threadID           uint32
	serverVersion      string
	charset            uint8

	headersPending bool
	rowsPending    bool
	binaryPending  bool

	affectedRows uint64
	lastInsertID uint64
	serverStatus uint16
	warnings     uint16

	// commandID increments every time a new command is dispatched. A
	// ResultStream captures its value at creation; if the two disagree, a
	// newer command has run since and the stream is invalidated (spec.md
	// §3), rather than the stream holding a back-pointer into the
	// Connection's mutable cursor state the way the D-language source's
	// ResultRange did.
	commandID uint64
}

// Connect dials cfg.Host:cfg.Port and performs the initial handshake and
// authentication. The returned Connection is ready for commands.
func Connect(ctx context.Context, cfg *Config) (*Connection, error) {
	c := &Connection{cfg: *cfg}
	if err := c.dialAndHandshake(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) dialAndHandshake(ctx context.Context) error {
	transport, err := c.cfg.dialer()(ctx, c.cfg.Host, c.cfg.port())
	if err != nil {
		return &TransportError{Err: err}
	}
	c.transport = transport
	c.buf = newBuffer(transport)
	c.sequence = 0
	c.headersPending, c.rowsPending, c.binaryPending = false, false, false

	if err := c.handshake(); err != nil {
		c.kill(err)
		return err
	}
	c.state = stateAuthenticated
	return nil
}

// handshake reads the initial greeting, negotiates capabilities, and sends
// the login packet, per spec.md §4.H.
func (c *Connection) handshake() error {
	data, err := c.readPacket()
	if err != nil {
		return err
	}
	if firstByte(data) == 0xff {
		recErr, perr := parseErrPacket(data)
		if perr != nil {
			return perr
		}
		return &AuthError{Code: recErr.Code, SQLState: recErr.SQLState, Message: recErr.Message}
	}

	r := NewReader(data)
	protocolVersion, err := r.ConsumeU8()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	if protocolVersion < minProtocolVersion {
		return protoErrf("unsupported protocol version %d", protocolVersion)
	}
	serverVersion, err := r.ConsumeNulTerminated()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	threadID, err := r.ConsumeU32()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	saltPart1, err := r.ConsumeFixed(8)
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	if _, err := r.ConsumeU8(); err != nil { // filler, always 0x00
		return protoErrf("malformed greeting: %v", err)
	}
	capLow, err := r.ConsumeU16()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	serverCharset, err := r.ConsumeU8()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	if _, err := r.ConsumeU16(); err != nil { // server status
		return protoErrf("malformed greeting: %v", err)
	}
	capHigh, err := r.ConsumeU16()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}
	if _, err := r.ConsumeU8(); err != nil { // scramble length, ignored
		return protoErrf("malformed greeting: %v", err)
	}
	if _, err := r.ConsumeFixed(10); err != nil { // reserved filler
		return protoErrf("malformed greeting: %v", err)
	}
	saltPart2, err := r.ConsumeNulTerminated()
	if err != nil {
		return protoErrf("malformed greeting: %v", err)
	}

	serverCaps := Capability(uint32(capLow) | uint32(capHigh)<<16)
	if serverCaps&requiredCapabilities != requiredCapabilities {
		return protoErrf("server does not support required capabilities (PROTOCOL_41, SECURE_CONNECTION)")
	}

	challenge := make([]byte, 0, len(saltPart1)+len(saltPart2))
	challenge = append(challenge, saltPart1...)
	challenge = append(challenge, saltPart2...)

	c.serverCapabilities = serverCaps
	c.capabilities = negotiateCapabilities(serverCaps, c.cfg.capabilities())
	c.threadID = threadID
	c.serverVersion = string(serverVersion)
	c.charset = serverCharset

	token := scrambleNativePassword(challenge, c.cfg.Password)

	payload := appendU32(nil, uint32(c.capabilities))
	payload = appendU32(payload, maxPacketSize) // max packet size advertised to the server
	payload = appendU8(payload, 0x21) // utf8_general_ci
	payload = append(payload, make([]byte, 23)...) // reserved filler
	payload = appendNulTerminated(payload, c.cfg.User)
	if token == nil {
		payload = appendU8(payload, 0)
	} else {
		payload = appendU8(payload, uint8(len(token)))
		payload = append(payload, token...)
	}
	payload = appendNulTerminated(payload, c.cfg.Database)

	if err := c.writePacket(payload); err != nil {
		return &TransportError{Err: err}
	}

	reply, err := c.readPacket()
	if err != nil {
		return err
	}
	switch firstByte(reply) {
	case 0x00:
		return nil
	case 0xff:
		recErr, perr := parseErrPacket(reply)
		if perr != nil {
			return perr
		}
		return &AuthError{Code: recErr.Code, SQLState: recErr.SQLState, Message: recErr.Message}
	default:
		return protoErrf("unexpected login reply, first byte 0x%x", firstByte(reply))
	}
}

// kill marks the connection dead and closes the transport. Per spec.md §7,
// every TransportError and ProtocolError kills the connection before it is
// returned. reason is logged via errLog when non-nil; Quit and other
// deliberate shutdowns pass nil since there is nothing unexpected to report.
func (c *Connection) kill(reason error) {
	c.state = stateClosed
	if c.transport != nil {
		c.transport.Close()
	}
	if reason != nil {
		errLog.Printf("connection killed: %v", reason)
	}
}

// Closed reports whether the connection is dead, either from an explicit
// Quit or a fatal error.
func (c *Connection) Closed() bool { return c.state == stateClosed }

// ServerVersion returns the server's version string from the handshake
// greeting.
func (c *Connection) ServerVersion() string { return c.serverVersion }

// ThreadID returns the server-assigned connection id from the handshake
// greeting.
func (c *Connection) ThreadID() uint32 { return c.threadID }

// AffectedRows returns the affected-row count from the most recent OK
// packet.
func (c *Connection) AffectedRows() uint64 { return c.affectedRows }

// LastInsertID returns the auto-increment id from the most recent OK
// packet.
func (c *Connection) LastInsertID() uint64 { return c.lastInsertID }

// Warnings returns the warning count from the most recent OK or terminating
// EOF packet.
func (c *Connection) Warnings() uint16 { return c.warnings }

// HasPending reports whether a result is still outstanding on this
// connection (spec.md §3's has_pending invariant).
func (c *Connection) HasPending() bool { return c.headersPending || c.rowsPending }

func (c *Connection) requireNoPending() error {
	if c.Closed() {
		return &TransportError{Err: errConnectionClosed}
	}
	if c.HasPending() {
		return &DataPendingError{}
	}
	return nil
}

// beginCommand resets the packet sequence counter to 0 and bumps commandID,
// invalidating any ResultStream still referencing the prior command. Every
// command entry point calls this exactly once before writing its first
// packet.
func (c *Connection) beginCommand() {
	c.sequence = 0
	c.commandID++
}

// sendCommand writes a one-byte command code plus arg as a single command
// packet, after enforcing that no result is pending.
func (c *Connection) sendCommand(cmd commandType, arg []byte) error {
	if err := c.requireNoPending(); err != nil {
		return err
	}
	c.beginCommand()
	payload := make([]byte, 0, 1+len(arg))
	payload = appendU8(payload, byte(cmd))
	payload = append(payload, arg...)
	if err := c.writePacket(payload); err != nil {
		return err
	}
	return nil
}

func (c *Connection) readOKOrErr() error {
	data, err := c.readPacket()
	if err != nil {
		return err
	}
	switch firstByte(data) {
	case 0x00:
		aff, lastID, status, warnings, perr := parseOK(data)
		if perr != nil {
			c.kill(perr)
			return perr
		}
		c.affectedRows, c.lastInsertID, c.serverStatus, c.warnings = aff, lastID, status, warnings
		return nil
	case 0xff:
		recErr, perr := parseErrPacket(data)
		if perr != nil {
			c.kill(perr)
			return perr
		}
		return recErr
	default:
		err := protoErrf("expected OK or ERR, got first byte 0x%x", firstByte(data))
		c.kill(err)
		return err
	}
}

// SelectDB issues COM_INIT_DB, changing the connection's default database.
func (c *Connection) SelectDB(name string) error {
	if err := c.sendCommand(comInitDB, []byte(name)); err != nil {
		return err
	}
	return c.readOKOrErr()
}

// Ping issues COM_PING, a round-trip liveness check.
func (c *Connection) Ping() error {
	if err := c.sendCommand(comPing, nil); err != nil {
		return err
	}
	return c.readOKOrErr()
}

// Refresh issues COM_REFRESH with the given subcommand flag byte (e.g.
// flushing tables, logs, or privileges).
func (c *Connection) Refresh(flags byte) error {
	if err := c.sendCommand(comRefresh, []byte{flags}); err != nil {
		return err
	}
	return c.readOKOrErr()
}

// Stats issues COM_STATISTICS, returning the server's raw human-readable
// status line. Unlike every other command, the reply carries no OK/ERR
// framing: it is the status text, verbatim.
func (c *Connection) Stats() (string, error) {
	if err := c.sendCommand(comStatistics, nil); err != nil {
		return "", err
	}
	data, err := c.readPacket()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EnableMultiStatements issues COM_SET_OPTION, toggling whether a single
// query string may contain more than one statement. The server's reply is
// an unusual 5-byte EOF-shaped packet (spec.md §5); it carries no useful
// payload and is discarded once validated.
func (c *Connection) EnableMultiStatements(enable bool) error {
	// Wire values for MYSQL_OPTION_MULTI_STATEMENTS_ON/OFF.
	val := uint16(1)
	if enable {
		val = 0
	}
	if err := c.sendCommand(comSetOption, appendU16(nil, val)); err != nil {
		return err
	}
	data, err := c.readPacket()
	if err != nil {
		return err
	}
	if !isEOFPacket(data) {
		err := protoErrf("expected EOF-shaped COM_SET_OPTION reply, got first byte 0x%x", firstByte(data))
		c.kill(err)
		return err
	}
	return nil
}

// Quit issues COM_QUIT, which the server never replies to, then closes the
// transport.
func (c *Connection) Quit() error {
	if c.Closed() {
		return nil
	}
	c.beginCommand()
	err := c.writePacket([]byte{byte(comQuit)})
	c.kill(nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// Close is the io.Closer-compatible alias for Quit.
func (c *Connection) Close() error { return c.Quit() }

// Reconnect reopens the connection using the last-used capability flags. It
// is a no-op if the connection is still open, per spec.md §5.
func (c *Connection) Reconnect(ctx context.Context) error {
	if !c.Closed() {
		return nil
	}
	return c.dialAndHandshake(ctx)
}
