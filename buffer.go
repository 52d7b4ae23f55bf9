package mysqlnative

import "io"

const defaultBufSize = 4096

// buffer is a read buffer similar to bufio.Reader but zero-copy-ish and
// tailored to this driver's read patterns, kept close to
// go-sql-driver-mysql/buffer.go's fill/readNext split: fill grows the
// backing array and pulls in at least the requested number of bytes;
// readNext hands back a slice into that array without copying.
type buffer struct {
	buf    []byte
	rd     io.Reader
	idx    int
	length int
}

func newBuffer(rd io.Reader) *buffer {
	return &buffer{
		buf: make([]byte, defaultBufSize),
		rd:  rd,
	}
}

// fill reads into the buffer until at least need bytes are available,
// compacting and, if need still doesn't fit, growing the backing array
// first.
func (b *buffer) fill(need int) error {
	if b.idx > 0 && b.length > 0 {
		copy(b.buf[0:b.length], b.buf[b.idx:b.idx+b.length])
	}
	b.idx = 0

	if grown := need; grown > len(b.buf) {
		bigger := make([]byte, grown)
		copy(bigger, b.buf[:b.length])
		b.buf = bigger
	}

	for b.length < need {
		read, err := b.rd.Read(b.buf[b.length:])
		b.length += read
		if err != nil {
			return err
		}
	}
	return nil
}

// readNext returns the next n bytes from the buffer, refilling from the
// underlying reader as necessary. The returned slice is only valid until the
// next call to readNext.
func (b *buffer) readNext(n int) ([]byte, error) {
	if b.length < n {
		if err := b.fill(n); err != nil {
			return nil, err
		}
	}
	p := b.buf[b.idx : b.idx+n]
	b.idx += n
	b.length -= n
	return p, nil
}

// write writes all of data to the underlying writer, which must also
// implement io.Writer (the transport is bidirectional).
func (b *buffer) write(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}
