package mysqlnative

// Result ingest: the post-command packet sequence described in spec.md
// §4.E. A command reply is one of three shapes, dispatched on its first
// byte: an OK packet (0x00), an ERR packet (0xFF), or a column-count LCB
// opening a result set (N FieldDescription packets, EOF, row packets, EOF).
// Grounded on go-sql-driver-mysql/packets.go's handleOkPacket/
// handleErrorPacket/readResultSetHeaderPacket three-way dispatch, with EOF
// handling folded in the way the teacher's older, non-deprecate-EOF era did.

// FieldDescription describes one result-set column, parsed from a
// FieldDescription packet.
type FieldDescription struct {
	Schema    string
	Table     string
	OrigTable string
	Name      string
	OrigName  string
	Charset   uint16
	Length    uint32
	Type      SQLType
	Flags     FieldFlag
	Decimals  uint8
}

// ResultSetHeaders is the parsed field-description list for one result set,
// plus the warning count carried by the EOF that terminates it.
type ResultSetHeaders struct {
	Fields   []FieldDescription
	Warnings uint16
}

// Names returns the column names in order, for callers that want a parallel
// name array alongside a Row's values.
func (h ResultSetHeaders) Names() []string {
	names := make([]string, len(h.Fields))
	for i, f := range h.Fields {
		names[i] = f.Name
	}
	return names
}

func parseFieldDescription(data []byte) (FieldDescription, error) {
	r := NewReader(data)
	if _, _, err := r.ConsumeLCS(); err != nil { // catalog, always "def"
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	schema, _, err := r.ConsumeLCS()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	table, _, err := r.ConsumeLCS()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	origTable, _, err := r.ConsumeLCS()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	name, _, err := r.ConsumeLCS()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	origName, _, err := r.ConsumeLCS()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	if _, err := r.ConsumeU8(); err != nil { // filler, length of fixed fields (0x0c)
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	charset, err := r.ConsumeU16()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	length, err := r.ConsumeU32()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	typ, err := r.ConsumeU8()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	flags, err := r.ConsumeU16()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	decimals, err := r.ConsumeU8()
	if err != nil {
		return FieldDescription{}, protoErrf("malformed field description: %v", err)
	}
	return FieldDescription{
		Schema:    string(schema),
		Table:     string(table),
		OrigTable: string(origTable),
		Name:      string(name),
		OrigName:  string(origName),
		Charset:   charset,
		Length:    length,
		Type:      SQLType(typ),
		Flags:     FieldFlag(flags),
		Decimals:  decimals,
	}, nil
}

// parseOK decodes an OK packet's body (the leading 0x00 byte already
// identified by the caller but still present in data).
func parseOK(data []byte) (affectedRows, lastInsertID uint64, serverStatus, warnings uint16, err error) {
	r := NewReader(data)
	if _, err = r.ConsumeU8(); err != nil {
		return
	}
	affectedRows, _, err = r.ConsumeLCB()
	if err != nil {
		err = protoErrf("malformed OK packet: %v", err)
		return
	}
	lastInsertID, _, err = r.ConsumeLCB()
	if err != nil {
		err = protoErrf("malformed OK packet: %v", err)
		return
	}
	serverStatus, err = r.ConsumeU16()
	if err != nil {
		err = protoErrf("malformed OK packet: %v", err)
		return
	}
	warnings, err = r.ConsumeU16()
	if err != nil {
		err = protoErrf("malformed OK packet: %v", err)
		return
	}
	return affectedRows, lastInsertID, serverStatus, warnings, nil
}

// parseEOF decodes an EOF packet's warning count and server status.
func parseEOF(data []byte) (warnings, serverStatus uint16, err error) {
	r := NewReader(data)
	if _, err = r.ConsumeU8(); err != nil { // 0xFE marker
		return
	}
	warnings, err = r.ConsumeU16()
	if err != nil {
		err = protoErrf("malformed EOF packet: %v", err)
		return
	}
	serverStatus, err = r.ConsumeU16()
	if err != nil {
		err = protoErrf("malformed EOF packet: %v", err)
		return
	}
	return warnings, serverStatus, nil
}

// parseErrPacket decodes an ERR packet into a ReceivedError. The sqlstate
// marker byte ('#') is only present from MySQL 4.1 onward; spec.md targets
// 4.1.1+ exclusively, so its absence is a protocol violation rather than a
// fallback to the pre-4.1 format.
func parseErrPacket(data []byte) (*ReceivedError, error) {
	r := NewReader(data)
	if _, err := r.ConsumeU8(); err != nil { // 0xFF marker
		return nil, protoErrf("malformed ERR packet: %v", err)
	}
	code, err := r.ConsumeU16()
	if err != nil {
		return nil, protoErrf("malformed ERR packet: %v", err)
	}
	marker, err := r.ConsumeU8()
	if err != nil {
		return nil, protoErrf("malformed ERR packet: %v", err)
	}
	if marker != '#' {
		return nil, protoErrf("malformed ERR packet: missing sqlstate marker")
	}
	state, err := r.ConsumeFixed(5)
	if err != nil {
		return nil, protoErrf("malformed ERR packet: %v", err)
	}
	message := r.Rest()
	return &ReceivedError{Code: code, SQLState: string(state), Message: string(message)}, nil
}

// readFieldDescriptions reads exactly n FieldDescription packets followed by
// the terminating EOF, accumulating the EOF's warning count.
func (c *Connection) readFieldDescriptions(n int) (ResultSetHeaders, error) {
	fields := make([]FieldDescription, 0, n)
	for i := 0; i < n; i++ {
		data, err := c.readPacket()
		if err != nil {
			return ResultSetHeaders{}, err
		}
		fd, err := parseFieldDescription(data)
		if err != nil {
			c.kill(err)
			return ResultSetHeaders{}, err
		}
		fields = append(fields, fd)
	}
	eofData, err := c.readPacket()
	if err != nil {
		return ResultSetHeaders{}, err
	}
	if !isEOFPacket(eofData) {
		perr := protoErrf("expected EOF after field descriptions, got first byte 0x%x", firstByte(eofData))
		c.kill(perr)
		return ResultSetHeaders{}, perr
	}
	warnings, _, err := parseEOF(eofData)
	if err != nil {
		c.kill(err)
		return ResultSetHeaders{}, err
	}
	c.headersPending = false
	return ResultSetHeaders{Fields: fields, Warnings: warnings}, nil
}

func firstByte(data []byte) byte {
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

// dispatchResult reads the single reply packet after a command and performs
// the three-way dispatch: OK, ERR, or the opening of a result set. binary
// selects which row encoding the resulting ResultStream (if any) will use.
func (c *Connection) dispatchResult(binary bool) (*ResultStream, uint64, uint64, error) {
	data, err := c.readPacket()
	if err != nil {
		return nil, 0, 0, err
	}
	switch firstByte(data) {
	case 0x00:
		aff, lastID, status, warnings, perr := parseOK(data)
		if perr != nil {
			c.kill(perr)
			return nil, 0, 0, perr
		}
		c.affectedRows, c.lastInsertID, c.serverStatus, c.warnings = aff, lastID, status, warnings
		return nil, aff, lastID, nil
	case 0xff:
		recErr, perr := parseErrPacket(data)
		if perr != nil {
			c.kill(perr)
			return nil, 0, 0, perr
		}
		return nil, 0, 0, recErr
	default:
		r := NewReader(data)
		fieldCount, ok, lerr := r.ConsumeLCB()
		if lerr != nil || !ok {
			err := protoErrf("malformed result header")
			c.kill(err)
			return nil, 0, 0, err
		}
		c.headersPending = true
		headers, herr := c.readFieldDescriptions(int(fieldCount))
		if herr != nil {
			return nil, 0, 0, herr
		}
		c.rowsPending = true
		c.binaryPending = binary
		stream := &ResultStream{conn: c, commandID: c.commandID, headers: headers, binary: binary}
		return stream, 0, 0, nil
	}
}

// nextRow reads the next row packet for a pending result set, or detects the
// terminating EOF and clears rows_pending/binary_pending.
func (c *Connection) nextRow(headers ResultSetHeaders, binary bool) (Row, bool, error) {
	data, err := c.readPacket()
	if err != nil {
		return Row{}, false, err
	}
	if isEOFPacket(data) {
		warnings, status, eerr := parseEOF(data)
		if eerr != nil {
			c.kill(eerr)
			return Row{}, false, eerr
		}
		c.serverStatus, c.warnings = status, warnings
		c.rowsPending = false
		c.binaryPending = false
		return Row{}, true, nil
	}
	row, derr := decodeRow(headers, data, binary, c.readPacket)
	if derr != nil {
		c.kill(derr)
		return Row{}, false, derr
	}
	return row, false, nil
}

// purge drains remaining row packets for an abandoned result set up to and
// including the terminating EOF, returning the count of rows discarded.
func (c *Connection) purge(headers ResultSetHeaders, binary bool) (int, error) {
	count := 0
	for c.rowsPending {
		_, eof, err := c.nextRow(headers, binary)
		if err != nil {
			return count, err
		}
		if eof {
			break
		}
		count++
	}
	return count, nil
}

// ResultStream is a lazy row cursor over a pending result set. It is only
// valid while no newer command has been issued on the owning Connection;
// spec.md §3 calls this invalidation rather than letting the cursor hold a
// cyclic back-reference the way the D-language source's ResultRange did.
type ResultStream struct {
	conn      *Connection
	commandID uint64
	headers   ResultSetHeaders
	binary    bool
	row       Row
	err       error
	done      bool
}

// valid reports whether the owning Connection is still on the command this
// stream was created for.
func (rs *ResultStream) valid() bool {
	return rs.conn != nil && !rs.conn.Closed() && rs.conn.commandID == rs.commandID
}

// Columns returns the result set's field descriptions.
func (rs *ResultStream) Columns() []FieldDescription { return rs.headers.Fields }

// Next advances to the next row, returning false at end of stream or on
// error (distinguish the two with Err). Validity is checked ahead of the
// exhausted flag so that a stream which reached natural EOF still reports
// InvalidatedRangeError if a newer command has since run on the connection.
func (rs *ResultStream) Next() bool {
	if !rs.valid() {
		rs.err = &InvalidatedRangeError{}
		rs.done = true
		return false
	}
	if rs.done {
		return false
	}
	row, eof, err := rs.conn.nextRow(rs.headers, rs.binary)
	if err != nil {
		rs.err = err
		rs.done = true
		return false
	}
	if eof {
		rs.done = true
		return false
	}
	rs.row = row
	return true
}

// Row returns the row most recently produced by Next. It does not check
// whether a newer command has invalidated the stream; only Next does.
func (rs *ResultStream) Row() Row { return rs.row }

// Err returns the error, if any, that ended iteration.
func (rs *ResultStream) Err() error { return rs.err }

// Close drains any remaining rows so the connection can accept its next
// command. It is a no-op if the stream already reached EOF, errored, or was
// invalidated by a newer command (whose own dispatch is responsible for any
// draining in that case).
func (rs *ResultStream) Close() error {
	if rs.done {
		return nil
	}
	if !rs.valid() {
		rs.done = true
		return nil
	}
	_, err := rs.conn.purge(rs.headers, rs.binary)
	rs.done = true
	return err
}

// Collect drains the stream into a materialized ResultSet.
func (rs *ResultStream) Collect() (*ResultSet, error) {
	rows := make([]Row, 0, 8)
	for rs.Next() {
		rows = append(rows, rs.Row())
	}
	if rs.Err() != nil {
		return nil, rs.Err()
	}
	return &ResultSet{headers: rs.headers, rows: rows}, nil
}

// ResultSet is a fully materialized result set: every row already decoded
// and held in memory.
type ResultSet struct {
	headers ResultSetHeaders
	rows    []Row
}

// Len returns the number of rows.
func (s *ResultSet) Len() int { return len(s.rows) }

// Row returns the row at index i.
func (s *ResultSet) Row(i int) Row { return s.rows[i] }

// Columns returns the result set's field descriptions.
func (s *ResultSet) Columns() []FieldDescription { return s.headers.Fields }
