package mysqlnative

// Packet framing: 4-byte header (u24 payload length, u8 sequence number)
// followed by the payload. A logical packet whose payload is exactly
// maxPacketSize bytes continues into the next physical frame, which carries
// the next sequence number; the logical packet ends at the first frame whose
// payload is shorter than maxPacketSize. Grounded on
// go-sql-driver-mysql/packets.go's readPacket/writePacket split, generalized
// from its fixed split-at-(1<<24-1) loop to spec.md §4.B's named contract.

// readPhysicalFrame reads one 4-byte header plus its payload, enforcing the
// sequence-number discipline: the header's sequence byte must equal the
// connection's expected next value, or the connection is dead.
func (c *Connection) readPhysicalFrame() ([]byte, error) {
	header, err := c.buf.readNext(4)
	if err != nil {
		terr := &TransportError{Err: err}
		c.kill(terr)
		return nil, terr
	}
	length := decodeU24(header[0:3])
	seq := header[3]
	if seq != c.sequence {
		perr := protoErrf("server packet out of order: expected sequence %d, got %d", c.sequence, seq)
		c.kill(perr)
		return nil, perr
	}
	c.sequence++

	if length == 0 {
		return nil, nil
	}
	payload, err := c.buf.readNext(int(length))
	if err != nil {
		terr := &TransportError{Err: err}
		c.kill(terr)
		return nil, terr
	}
	// buffer's returned slice is only valid until the next readNext call, so
	// copy it out before the caller accumulates it across frames.
	out := make([]byte, length)
	copy(out, payload)
	return out, nil
}

// readPacket reads one logical packet, reassembling it across as many
// maxPacketSize-sized physical frames as the server split it into.
func (c *Connection) readPacket() ([]byte, error) {
	var result []byte
	for {
		frame, err := c.readPhysicalFrame()
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = frame
		} else {
			result = append(result, frame...)
		}
		if len(frame) < maxPacketSize {
			return result, nil
		}
	}
}

// writePacket sends payload as one logical packet, splitting it into
// maxPacketSize-sized physical frames and, per spec.md §4.B, sending a
// trailing zero-length frame when the final chunk was itself exactly
// maxPacketSize bytes, so the receiver's continuation rule terminates.
func (c *Connection) writePacket(payload []byte) error {
	for {
		chunkLen := len(payload)
		if chunkLen > maxPacketSize {
			chunkLen = maxPacketSize
		}
		frame := make([]byte, 0, 4+chunkLen)
		frame = appendU24(frame, uint32(chunkLen))
		frame = appendU8(frame, c.sequence)
		frame = append(frame, payload[:chunkLen]...)

		if err := c.buf.write(c.transport, frame); err != nil {
			terr := &TransportError{Err: err}
			c.kill(terr)
			return terr
		}
		c.sequence++
		payload = payload[chunkLen:]
		if chunkLen < maxPacketSize {
			return nil
		}
	}
}

// isEOFPacket reports whether data is wire-distinguishable as an EOF packet:
// first byte 0xFE and payload shorter than 9 bytes, per spec.md §4.E — this
// is what tells an EOF-shaped packet apart from a row whose first column
// happens to encode to a leading 0xFE byte.
func isEOFPacket(data []byte) bool {
	return len(data) > 0 && data[0] == 0xfe && len(data) < 9
}
