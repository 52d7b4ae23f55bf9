package mysqlnative

// Unprepared command dispatch: COM_QUERY, per spec.md §4.F. Exec is for
// statements expected to produce no result set; Query is for statements
// expected to produce one. Each enforces the other's outcome as an error
// rather than silently accepting it, so a caller's choice of method
// documents its expectation of the statement.

// Exec sends sql as a COM_QUERY expecting no result set. If the statement
// unexpectedly produces one, it is purged before returning
// ResultReceivedError.
func (c *Connection) Exec(sql string) (affectedRows, lastInsertID uint64, err error) {
	if err := c.requireNoPending(); err != nil {
		return 0, 0, err
	}
	c.beginCommand()
	if err := c.writePacket(append([]byte{byte(comQuery)}, sql...)); err != nil {
		return 0, 0, &TransportError{Err: err}
	}
	stream, aff, lastID, err := c.dispatchResult(false)
	if err != nil {
		return 0, 0, err
	}
	if stream != nil {
		if _, perr := c.purge(stream.headers, false); perr != nil {
			return 0, 0, perr
		}
		return 0, 0, &ResultReceivedError{}
	}
	return aff, lastID, nil
}

// Query sends sql as a COM_QUERY expecting a result set, returning a lazy
// ResultStream. If the statement produces no result set, NoResultReceivedError
// is returned instead.
func (c *Connection) Query(sql string) (*ResultStream, error) {
	if err := c.requireNoPending(); err != nil {
		return nil, err
	}
	c.beginCommand()
	if err := c.writePacket(append([]byte{byte(comQuery)}, sql...)); err != nil {
		return nil, &TransportError{Err: err}
	}
	stream, _, _, err := c.dispatchResult(false)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, &NoResultReceivedError{}
	}
	return stream, nil
}
