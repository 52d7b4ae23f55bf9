package mysqlnative

import "testing"

// framePacket wraps payload in a single physical frame with the given
// sequence number, mirroring the wire shape packet_test.go's other tests
// build by hand.
func framePacket(seq byte, payload []byte) []byte {
	frame := appendU24(nil, uint32(len(payload)))
	frame = appendU8(frame, seq)
	return append(frame, payload...)
}

func buildGreeting(serverCaps Capability, serverVersion string) []byte {
	capLow := uint16(serverCaps)
	capHigh := uint16(serverCaps >> 16)

	payload := appendU8(nil, minProtocolVersion)
	payload = appendNulTerminated(payload, serverVersion)
	payload = appendU32(payload, 99) // thread id
	payload = append(payload, []byte("saltpart")...) // 8-byte salt part 1
	payload = appendU8(payload, 0)                   // filler
	payload = appendU16(payload, capLow)
	payload = appendU8(payload, 0x21) // server charset
	payload = appendU16(payload, 0x0002) // server status
	payload = appendU16(payload, capHigh)
	payload = appendU8(payload, 21)                // scramble length, ignored
	payload = append(payload, make([]byte, 10)...) // reserved filler
	payload = appendNulTerminated(payload, "saltpart2ab") // salt part 2
	return payload
}

func buildOKPacket() []byte {
	ok := appendU8(nil, 0x00)
	ok = appendLCB(ok, 0)
	ok = appendLCB(ok, 0)
	ok = appendU16(ok, 0)
	ok = appendU16(ok, 0)
	return ok
}

func newHandshakeTestConnection(transport *mockTransport) *Connection {
	return &Connection{
		cfg:       Config{User: "root", Password: "s3cr3t", Database: "app"},
		transport: transport,
		buf:       newBuffer(transport),
	}
}

func TestHandshakeSuccess(t *testing.T) {
	serverCaps := baseRequestedCapabilities | capCompress | CapMultiStatements
	data := framePacket(0, buildGreeting(serverCaps, "5.7.44-test"))
	// Sequence 1 is consumed by the login packet this driver sends in
	// reply; the server's next frame carries sequence 2.
	data = append(data, framePacket(2, buildOKPacket())...)

	transport := &mockTransport{data: data}
	c := newHandshakeTestConnection(transport)

	if err := c.handshake(); err != nil {
		t.Fatal(err)
	}
	if c.ServerVersion() != "5.7.44-test" {
		t.Fatalf("got server version %q", c.ServerVersion())
	}
	if c.ThreadID() != 99 {
		t.Fatalf("got thread id %d", c.ThreadID())
	}
	if c.capabilities&capCompress != 0 {
		t.Fatal("a capability this driver never requests must not survive negotiation")
	}
	if c.capabilities&CapMultiStatements != 0 {
		t.Fatal("CapMultiStatements is negotiated off and must not survive")
	}
	if c.capabilities&requiredCapabilities != requiredCapabilities {
		t.Fatal("required capabilities must always be set after a successful handshake")
	}
}

func TestHandshakeRejectsOldProtocolVersion(t *testing.T) {
	greeting := buildGreeting(baseRequestedCapabilities, "3.23.0")
	greeting[0] = 9 // below minProtocolVersion
	data := framePacket(0, greeting)

	transport := &mockTransport{data: data}
	c := newHandshakeTestConnection(transport)

	err := c.handshake()
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("expected *ProtocolError, got %v (%T)", err, err)
	}
}

func TestHandshakeRejectsMissingRequiredCapabilities(t *testing.T) {
	// Server offers neither PROTOCOL_41 nor SECURE_CONNECTION.
	data := framePacket(0, buildGreeting(CapLongPassword, "old-server"))

	transport := &mockTransport{data: data}
	c := newHandshakeTestConnection(transport)

	err := c.handshake()
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("expected *ProtocolError, got %v (%T)", err, err)
	}
}

func TestHandshakeLoginErrorBecomesAuthError(t *testing.T) {
	data := framePacket(0, buildGreeting(baseRequestedCapabilities, "5.7.44-test"))
	errPkt := appendU8(nil, 0xff)
	errPkt = appendU16(errPkt, 1045)
	errPkt = append(errPkt, '#')
	errPkt = append(errPkt, []byte("28000")...)
	errPkt = append(errPkt, []byte("Access denied")...)
	data = append(data, framePacket(2, errPkt)...)

	transport := &mockTransport{data: data}
	c := newHandshakeTestConnection(transport)

	err := c.handshake()
	authErr, ok := err.(*AuthError)
	if !ok {
		t.Fatalf("expected *AuthError, got %v (%T)", err, err)
	}
	if authErr.Code != 1045 {
		t.Fatalf("got code %d", authErr.Code)
	}
}

func TestHandshakeGreetingErrPacket(t *testing.T) {
	errPkt := appendU8(nil, 0xff)
	errPkt = appendU16(errPkt, 1040)
	errPkt = append(errPkt, '#')
	errPkt = append(errPkt, []byte("08004")...)
	errPkt = append(errPkt, []byte("Too many connections")...)
	data := framePacket(0, errPkt)

	transport := &mockTransport{data: data}
	c := newHandshakeTestConnection(transport)

	err := c.handshake()
	authErr, ok := err.(*AuthError)
	if !ok {
		t.Fatalf("expected *AuthError, got %v (%T)", err, err)
	}
	if authErr.Code != 1040 {
		t.Fatalf("got code %d", authErr.Code)
	}
}

func TestNegotiateCapabilitiesMasksUnsupportedServerBit(t *testing.T) {
	serverCaps := baseRequestedCapabilities | capCompress | CapSSL
	got := negotiateCapabilities(serverCaps, baseRequestedCapabilities)
	if got&capCompress != 0 || got&CapSSL != 0 {
		t.Fatalf("expected never-requested bits to be masked out, got 0x%x", got)
	}
	if got&requiredCapabilities != requiredCapabilities {
		t.Fatal("required capabilities must always be forced on")
	}
}

func TestNegotiateCapabilitiesForcesRequiredEvenIfUnrequested(t *testing.T) {
	got := negotiateCapabilities(requiredCapabilities, CapLongPassword)
	if got&requiredCapabilities != requiredCapabilities {
		t.Fatal("required capabilities must be present even when not in the requested mask")
	}
	if got&CapLongPassword != 0 {
		t.Fatal("a requested bit the server never offered must not appear")
	}
}

func TestExecReportsResultReceivedErrorAndPurges(t *testing.T) {
	header := appendLCB(nil, 1) // one column

	fd := appendLCS(nil, []byte("def"))
	fd = appendLCS(fd, []byte("db"))
	fd = appendLCS(fd, []byte("t"))
	fd = appendLCS(fd, []byte("t"))
	fd = appendLCS(fd, []byte("c"))
	fd = appendLCS(fd, []byte("c"))
	fd = appendU8(fd, 0x0c)
	fd = appendU16(fd, charsetBinary)
	fd = appendU32(fd, 11)
	fd = appendU8(fd, byte(TypeLong))
	fd = appendU16(fd, 0)
	fd = appendU8(fd, 0)

	fieldsEOF := appendU8(nil, 0xfe)
	fieldsEOF = appendU16(fieldsEOF, 0)
	fieldsEOF = appendU16(fieldsEOF, 0)

	row := appendLCS(nil, []byte("1"))

	rowsEOF := appendU8(nil, 0xfe)
	rowsEOF = appendU16(rowsEOF, 0)
	rowsEOF = appendU16(rowsEOF, 0)

	var data []byte
	data = append(data, framePacket(1, header)...)
	data = append(data, framePacket(2, fd)...)
	data = append(data, framePacket(3, fieldsEOF)...)
	data = append(data, framePacket(4, row)...)
	data = append(data, framePacket(5, rowsEOF)...)

	transport := &mockTransport{data: data}
	c := newTestConnection(transport)

	_, _, err := c.Exec("select 1")
	if _, ok := err.(*ResultReceivedError); !ok {
		t.Fatalf("expected *ResultReceivedError, got %v (%T)", err, err)
	}
	if c.HasPending() {
		t.Fatal("Exec must purge the spurious result set before returning")
	}
}

func TestQueryReportsNoResultReceivedError(t *testing.T) {
	ok := appendU8(nil, 0x00)
	ok = appendLCB(ok, 0)
	ok = appendLCB(ok, 0)
	ok = appendU16(ok, 0)
	ok = appendU16(ok, 0)

	transport := &mockTransport{data: framePacket(1, ok)}
	c := newTestConnection(transport)

	_, err := c.Query("set @x = 1")
	if _, ok := err.(*NoResultReceivedError); !ok {
		t.Fatalf("expected *NoResultReceivedError, got %v (%T)", err, err)
	}
}
