package mysqlnative

import "testing"

func TestParseOK(t *testing.T) {
	data := appendU8(nil, 0x00)
	data = appendLCB(data, 7)    // affected rows
	data = appendLCB(data, 42)   // last insert id
	data = appendU16(data, 0x0002) // server status
	data = appendU16(data, 1)      // warnings

	aff, lastID, status, warnings, err := parseOK(data)
	if err != nil {
		t.Fatal(err)
	}
	if aff != 7 || lastID != 42 || status != 2 || warnings != 1 {
		t.Fatalf("got aff=%d lastID=%d status=%d warnings=%d", aff, lastID, status, warnings)
	}
}

func TestParseErrPacket(t *testing.T) {
	data := appendU8(nil, 0xff)
	data = appendU16(data, 1046)
	data = append(data, '#')
	data = append(data, []byte("3D000")...)
	data = append(data, []byte("No database selected")...)

	recErr, err := parseErrPacket(data)
	if err != nil {
		t.Fatal(err)
	}
	if recErr.Code != 1046 {
		t.Fatalf("got code %d", recErr.Code)
	}
	if recErr.SQLState != "3D000" {
		t.Fatalf("got sqlstate %q", recErr.SQLState)
	}
	if recErr.Message != "No database selected" {
		t.Fatalf("got message %q", recErr.Message)
	}
}

func TestParseErrPacketMissingMarker(t *testing.T) {
	data := appendU8(nil, 0xff)
	data = appendU16(data, 1046)
	data = append(data, []byte("not a marker")...)
	if _, err := parseErrPacket(data); err == nil {
		t.Fatal("expected an error when the sqlstate marker is missing")
	}
}

func TestParseEOF(t *testing.T) {
	data := appendU8(nil, 0xfe)
	data = appendU16(data, 3)
	data = appendU16(data, 0x0022)
	warnings, status, err := parseEOF(data)
	if err != nil {
		t.Fatal(err)
	}
	if warnings != 3 || status != 0x0022 {
		t.Fatalf("got warnings=%d status=%x", warnings, status)
	}
}

func TestParseFieldDescription(t *testing.T) {
	data := appendLCS(nil, []byte("def"))
	data = appendLCS(data, []byte("testdb"))
	data = appendLCS(data, []byte("users"))
	data = appendLCS(data, []byte("users"))
	data = appendLCS(data, []byte("id"))
	data = appendLCS(data, []byte("id"))
	data = appendU8(data, 0x0c)
	data = appendU16(data, charsetBinary)
	data = appendU32(data, 11)
	data = appendU8(data, byte(TypeLong))
	data = appendU16(data, uint16(FlagNotNull|FlagPriKey|FlagAutoIncrement))
	data = appendU8(data, 0)

	fd, err := parseFieldDescription(data)
	if err != nil {
		t.Fatal(err)
	}
	if fd.Schema != "testdb" || fd.Table != "users" || fd.Name != "id" {
		t.Fatalf("unexpected field description: %+v", fd)
	}
	if fd.Type != TypeLong {
		t.Fatalf("expected TypeLong, got %v", fd.Type)
	}
	if fd.Flags&FlagPriKey == 0 {
		t.Fatal("expected FlagPriKey to survive decoding")
	}
}

func TestDispatchResultOK(t *testing.T) {
	ok := appendU8(nil, 0x00)
	ok = appendLCB(ok, 1)
	ok = appendLCB(ok, 5)
	ok = appendU16(ok, 0)
	ok = appendU16(ok, 0)

	frame := appendU24(nil, uint32(len(ok)))
	frame = appendU8(frame, 0)
	frame = append(frame, ok...)

	transport := &mockTransport{data: frame}
	c := newTestConnection(transport)
	stream, aff, lastID, err := c.dispatchResult(false)
	if err != nil {
		t.Fatal(err)
	}
	if stream != nil {
		t.Fatal("expected no result stream for an OK reply")
	}
	if aff != 1 || lastID != 5 {
		t.Fatalf("got aff=%d lastID=%d", aff, lastID)
	}
}

func TestDispatchResultErr(t *testing.T) {
	errPkt := appendU8(nil, 0xff)
	errPkt = appendU16(errPkt, 1064)
	errPkt = append(errPkt, '#')
	errPkt = append(errPkt, []byte("42000")...)
	errPkt = append(errPkt, []byte("syntax error")...)

	frame := appendU24(nil, uint32(len(errPkt)))
	frame = appendU8(frame, 0)
	frame = append(frame, errPkt...)

	transport := &mockTransport{data: frame}
	c := newTestConnection(transport)
	_, _, _, err := c.dispatchResult(false)
	recErr, ok := err.(*ReceivedError)
	if !ok {
		t.Fatalf("expected *ReceivedError, got %v (%T)", err, err)
	}
	if recErr.Code != 1064 {
		t.Fatalf("got code %d", recErr.Code)
	}
}
