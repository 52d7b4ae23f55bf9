package mysqlnative

import (
	"fmt"
	"io"
)

// Prepared statements: COM_STMT_PREPARE/EXECUTE/SEND_LONG_DATA/CLOSE, per
// spec.md §4.G.

// LongDataProducer supplies a chunk of a parameter's value on each call,
// for streaming a value too large to bind as a single in-memory byte slice.
// A short read (n < len(buf)) or io.EOF signals the final chunk; the
// producer is not called again afterward.
type LongDataProducer func(buf []byte) (n int, err error)

type paramSpec struct {
	longData LongDataProducer
}

// PreparedStatement is a server-side prepared statement handle. It is not
// safe for concurrent use, and becomes invalid once Close is called or the
// owning Connection is killed.
type PreparedStatement struct {
	conn        *Connection
	id          uint32
	paramCount  int
	columnCount int
	params      []Value
	specs       []paramSpec
}

// Prepare sends sql as COM_STMT_PREPARE and returns the resulting handle.
func (c *Connection) Prepare(sql string) (*PreparedStatement, error) {
	if err := c.requireNoPending(); err != nil {
		return nil, err
	}
	c.beginCommand()
	if err := c.writePacket(append([]byte{byte(comStmtPrepare)}, sql...)); err != nil {
		return nil, &TransportError{Err: err}
	}

	data, err := c.readPacket()
	if err != nil {
		return nil, err
	}
	fail := func(perr error) (*PreparedStatement, error) {
		c.kill(perr)
		return nil, perr
	}
	if firstByte(data) == 0xff {
		recErr, perr := parseErrPacket(data)
		if perr != nil {
			return fail(perr)
		}
		return nil, recErr
	}

	r := NewReader(data)
	marker, err := r.ConsumeU8()
	if err != nil || marker != 0x00 {
		return fail(protoErrf("malformed prepare-ok packet"))
	}
	stmtID, err := r.ConsumeU32()
	if err != nil {
		return fail(protoErrf("malformed prepare-ok packet: %v", err))
	}
	columnCount, err := r.ConsumeU16()
	if err != nil {
		return fail(protoErrf("malformed prepare-ok packet: %v", err))
	}
	paramCount, err := r.ConsumeU16()
	if err != nil {
		return fail(protoErrf("malformed prepare-ok packet: %v", err))
	}
	if _, err := r.ConsumeU8(); err != nil { // filler
		return fail(protoErrf("malformed prepare-ok packet: %v", err))
	}
	if _, err := r.ConsumeU16(); err != nil { // warnings
		return fail(protoErrf("malformed prepare-ok packet: %v", err))
	}

	stmt := &PreparedStatement{
		conn:        c,
		id:          stmtID,
		paramCount:  int(paramCount),
		columnCount: int(columnCount),
		params:      make([]Value, paramCount),
		specs:       make([]paramSpec, paramCount),
	}

	// The server's per-parameter descriptors carry no information this
	// driver acts on (spec.md §4.G); read and discard them, then the
	// terminating EOF.
	if stmt.paramCount > 0 {
		for i := 0; i < stmt.paramCount; i++ {
			if _, err := c.readPacket(); err != nil {
				return nil, err
			}
		}
		eofData, err := c.readPacket()
		if err != nil {
			return nil, err
		}
		if !isEOFPacket(eofData) {
			err := protoErrf("expected EOF after parameter descriptions")
			c.kill(err)
			return nil, err
		}
	}
	if stmt.columnCount > 0 {
		for i := 0; i < stmt.columnCount; i++ {
			if _, err := c.readPacket(); err != nil {
				return nil, err
			}
		}
		eofData, err := c.readPacket()
		if err != nil {
			return nil, err
		}
		if !isEOFPacket(eofData) {
			err := protoErrf("expected EOF after column descriptions")
			c.kill(err)
			return nil, err
		}
	}
	return stmt, nil
}

// ParamCount returns the number of bind parameters this statement declares.
func (s *PreparedStatement) ParamCount() int { return s.paramCount }

// ColumnCount returns the number of result columns this statement declares
// (0 if it never produces a result set).
func (s *PreparedStatement) ColumnCount() int { return s.columnCount }

func (s *PreparedStatement) checkIndex(i int) {
	if i < 0 || i >= s.paramCount {
		panic(fmt.Sprintf("mysqlnative: parameter index %d out of range [0,%d)", i, s.paramCount))
	}
}

// Bind sets parameter i to v, clearing any long-data producer previously
// bound to that index.
func (s *PreparedStatement) Bind(i int, v Value) {
	s.checkIndex(i)
	s.params[i] = v
	s.specs[i].longData = nil
}

// BindNull sets parameter i to SQL NULL.
func (s *PreparedStatement) BindNull(i int) {
	s.checkIndex(i)
	s.params[i] = NullValue()
	s.specs[i].longData = nil
}

// BindLongData arranges for parameter i's value to be streamed via producer
// ahead of the next Exec or Query, through one or more COM_STMT_SEND_LONG_DATA
// packets, per spec.md §4.G.
func (s *PreparedStatement) BindLongData(i int, producer LongDataProducer) {
	s.checkIndex(i)
	s.specs[i].longData = producer
	s.params[i] = NullValue()
}

// Close releases the statement handle via COM_STMT_CLOSE. It is idempotent,
// and tolerant of a dead connection: the server never replies to
// COM_STMT_CLOSE, so a transport failure sending it is swallowed rather than
// surfaced, per spec.md §4.G. The swallowed failure is still logged, since
// the caller has no other way of learning the statement may not have been
// released server-side.
func (s *PreparedStatement) Close() error {
	if s.id == 0 {
		return nil
	}
	id := s.id
	s.id = 0
	err := s.conn.sendCommand(comStmtClose, appendU32(nil, id))
	if _, ok := err.(*TransportError); ok {
		errLog.Printf("mysqlnative: error closing statement %d: %v", id, err)
		return nil
	}
	return err
}

const longDataChunkSize = 4096

// sendLongDataForParams streams every BindLongData-bound parameter's value
// ahead of the execute packet. Each chunk is its own command frame with its
// own sequence number starting at 0, per spec.md §4.G.
func (s *PreparedStatement) sendLongDataForParams() error {
	buf := make([]byte, longDataChunkSize)
	for i := range s.specs {
		producer := s.specs[i].longData
		if producer == nil {
			continue
		}
		for {
			n, rerr := producer(buf)
			if n > 0 {
				s.conn.beginCommand()
				payload := make([]byte, 0, 1+4+2+n)
				payload = appendU8(payload, byte(comStmtSendLongData))
				payload = appendU32(payload, s.id)
				payload = appendU16(payload, uint16(i))
				payload = append(payload, buf[:n]...)
				if werr := s.conn.writePacket(payload); werr != nil {
					return &TransportError{Err: werr}
				}
			}
			if rerr == io.EOF || n < len(buf) {
				break
			}
			if rerr != nil {
				return rerr
			}
		}
	}
	return nil
}

// encodeParam returns the wire type, unsigned flag byte, and encoded value
// bytes for v, per spec.md §4.G's required type dispatch. v.IsNull callers
// must not call this; null parameters contribute no value bytes at all.
func encodeParam(v Value) (SQLType, byte, []byte, error) {
	switch v.Kind() {
	case KindBool:
		b, _ := v.Bool()
		ch := byte('0')
		if b {
			ch = '1'
		}
		return TypeBit, 0, appendLCS(nil, []byte{ch}), nil
	case KindI64:
		i, _ := v.Int64()
		switch v.width {
		case 8:
			return TypeTiny, 0, []byte{byte(int8(i))}, nil
		case 16:
			return TypeShort, 0, appendU16(nil, uint16(int16(i))), nil
		case 32:
			return TypeLong, 0, appendU32(nil, uint32(int32(i))), nil
		default:
			return TypeLongLong, 0, appendU64(nil, uint64(i)), nil
		}
	case KindU64:
		u, _ := v.Uint64()
		switch v.width {
		case 8:
			return TypeTiny, 0x80, []byte{byte(u)}, nil
		case 16:
			return TypeShort, 0x80, appendU16(nil, uint16(u)), nil
		case 32:
			return TypeLong, 0x80, appendU32(nil, uint32(u)), nil
		default:
			return TypeLongLong, 0x80, appendU64(nil, u), nil
		}
	case KindF32:
		f, _ := v.Float32()
		return TypeFloat, 0, appendU32(nil, float32Bits(f)), nil
	case KindF64:
		f, _ := v.Float64()
		return TypeDouble, 0, appendU64(nil, float64Bits(f)), nil
	case KindDecimal:
		// Not among spec.md §4.G's required wire types; bind it as its
		// canonical decimal text so a Decimal value read from one row can
		// still be rebound as a parameter on another statement.
		d, _ := v.Decimal()
		return TypeVarChar, 0, appendLCS(nil, []byte(d.String())), nil
	case KindString:
		s, _ := v.StringValueOK()
		return TypeVarChar, 0, appendLCS(nil, []byte(s)), nil
	case KindBytes:
		b, _ := v.Bytes()
		return TypeTinyBlob, 0, appendLCS(nil, b), nil
	case KindDate:
		d, _ := v.Date()
		return TypeDate, 0, appendBinaryDate(nil, d), nil
	case KindTime:
		t, _ := v.Time()
		return TypeTime, 0, appendBinaryTime(nil, t), nil
	case KindDateTime:
		dt, _ := v.DateTime()
		return TypeDateTime, 0, appendBinaryDateTime(nil, dt), nil
	default:
		return 0, 0, nil, &UnsupportedParameterError{Kind: v.Kind()}
	}
}

// buildExecutePayload constructs the COM_STMT_EXECUTE packet body per
// spec.md §4.G steps 2-9.
func (s *PreparedStatement) buildExecutePayload() ([]byte, error) {
	payload := make([]byte, 0, 10)
	payload = appendU8(payload, byte(comStmtExecute))
	payload = appendU32(payload, s.id)
	payload = appendU8(payload, 0) // flags: CURSOR_TYPE_NO_CURSOR
	payload = appendU32(payload, 1) // iteration count, always 1

	if s.paramCount == 0 {
		return payload, nil
	}

	nullBitmap := make([]byte, (s.paramCount+7)/8)
	for i, v := range s.params {
		if v.IsNull() {
			nullBitmap[i/8] |= 1 << uint(i%8)
		}
	}
	payload = append(payload, nullBitmap...)
	payload = appendU8(payload, 1) // new-types-bound flag, always set

	typeBytes := make([]byte, 0, s.paramCount*2)
	valueBytes := make([]byte, 0, 32)
	for _, v := range s.params {
		if v.IsNull() {
			typeBytes = appendU8(typeBytes, byte(TypeNull))
			typeBytes = appendU8(typeBytes, 0)
			continue
		}
		typ, unsignedFlag, encoded, err := encodeParam(v)
		if err != nil {
			return nil, err
		}
		typeBytes = appendU8(typeBytes, byte(typ))
		typeBytes = appendU8(typeBytes, unsignedFlag)
		valueBytes = append(valueBytes, encoded...)
	}
	payload = append(payload, typeBytes...)
	payload = append(payload, valueBytes...)
	return payload, nil
}

func (s *PreparedStatement) execute() (*ResultStream, uint64, uint64, error) {
	if s.id == 0 {
		return nil, 0, 0, &NotPreparedError{}
	}
	if err := s.conn.requireNoPending(); err != nil {
		return nil, 0, 0, err
	}
	if err := s.sendLongDataForParams(); err != nil {
		return nil, 0, 0, err
	}
	payload, err := s.buildExecutePayload()
	if err != nil {
		return nil, 0, 0, err
	}
	s.conn.beginCommand()
	if err := s.conn.writePacket(payload); err != nil {
		return nil, 0, 0, &TransportError{Err: err}
	}
	return s.conn.dispatchResult(true)
}

// Exec runs the statement expecting no result set, purging and failing with
// ResultReceivedError if one is produced.
func (s *PreparedStatement) Exec() (affectedRows, lastInsertID uint64, err error) {
	stream, aff, lastID, err := s.execute()
	if err != nil {
		return 0, 0, err
	}
	if stream != nil {
		if _, perr := s.conn.purge(stream.headers, true); perr != nil {
			return 0, 0, perr
		}
		return 0, 0, &ResultReceivedError{}
	}
	return aff, lastID, nil
}

// Query runs the statement expecting a result set, returning a lazy
// ResultStream of binary-encoded rows.
func (s *PreparedStatement) Query() (*ResultStream, error) {
	stream, _, _, err := s.execute()
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, &NoResultReceivedError{}
	}
	return stream, nil
}
