package rmarshal

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// minReadBuf is the minimum refill size for the read side, per spec.md
// §4.1 ("refills an internal buffer of at least 1 KiB on exhaustion").
// bufio.Reader's default (4096) already satisfies this; we ask for it
// explicitly so the invariant is visible at the call site rather than
// implicit in a stdlib default.
const minReadBuf = 1024

// byteReader is the read half of the byte I/O buffer (spec.md §4.1),
// grounded on samcday-rmarsh/decoder.go and parser.go's use of
// bufio.Reader for exactly this purpose.
type byteReader struct {
	r   *bufio.Reader
	off int64
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: bufio.NewReaderSize(r, minReadBuf)}
}

// nextByte returns the next byte or an end condition.
func (b *byteReader) nextByte(op string) (byte, error) {
	c, err := b.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, errors.Wrapf(TruncatedError{Offset: b.off, Op: op}, "reading %s", op)
		}
		return 0, errors.Wrapf(err, "I/O error while reading %s at offset %d", op, b.off)
	}
	b.off++
	return c, nil
}

// nextBytes copies the next n bytes into a freshly allocated slice,
// refilling across buffer boundaries (io.ReadFull does this already over
// bufio.Reader). Fails with TruncatedError if fewer than n bytes remain.
func (b *byteReader) nextBytes(n int64, op string) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("rmarshal: negative length %d while reading %s", n, op)
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(TruncatedError{Offset: b.off, Op: op}, "reading %s", op)
		}
		return nil, errors.Wrapf(err, "I/O error while reading %s at offset %d", op, b.off)
	}
	b.off += n
	return buf, nil
}

func (b *byteReader) offset() int64 { return b.off }

// byteWriter is the write half of the byte I/O buffer (spec.md §4.1),
// adapting samcday-rmarsh/generator.go's growable buf/bufn scheme: append
// to an internal slice, grow it by doubling when it would overflow, and
// flush synchronously to the underlying sink on request.
type byteWriter struct {
	w    io.Writer
	buf  []byte
	bufn int
}

const writeBufInit = 512

func newByteWriter(w io.Writer) *byteWriter {
	return &byteWriter{w: w, buf: make([]byte, writeBufInit)}
}

func (b *byteWriter) ensure(extra int) {
	need := b.bufn + extra
	if need <= len(b.buf) {
		return
	}
	newCap := len(b.buf) * 2
	if newCap < need {
		newCap = need
	}
	newBuf := make([]byte, newCap)
	copy(newBuf, b.buf[:b.bufn])
	b.buf = newBuf
}

func (b *byteWriter) putByte(c byte) error {
	b.ensure(1)
	b.buf[b.bufn] = c
	b.bufn++
	return nil
}

func (b *byteWriter) putBytes(p []byte) error {
	b.ensure(len(p))
	copy(b.buf[b.bufn:], p)
	b.bufn += len(p)
	return nil
}

// flush synchronously drains the write buffer to the underlying sink.
func (b *byteWriter) flush() error {
	if b.bufn == 0 {
		return nil
	}
	if _, err := b.w.Write(b.buf[:b.bufn]); err != nil {
		return errors.Wrap(err, "rmarshal: flushing write buffer")
	}
	b.bufn = 0
	return nil
}
