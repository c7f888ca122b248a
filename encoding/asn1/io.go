package asn1

import (
	"bufio"
	"bytes"
	"io"
)

// ValueReader is the interface for reading a value.
type ValueReader interface {
	io.Reader
	io.ByteScanner
}

// ValueWriter is the interface for writing a value.
type ValueWriter interface {
	io.Writer
	io.ByteWriter
}

// NewValueReader returns r if it already is a ValueReader, otherwise a
// buffered reader over r.
func NewValueReader(r io.Reader) ValueReader {
	if vr, ok := r.(ValueReader); ok {
		return vr
	}
	return bufio.NewReader(r)
}

// limitedValueReader limits the amount of data returned.
type limitedValueReader struct {
	io.LimitedReader
	S io.ByteScanner
}

// LimitValueReader returns a ValueReader, which limits the amount of data returned.
func LimitValueReader(r ValueReader, n int64) ValueReader {
	return limit(r, n)
}

func limit(r ValueReader, n int64) *limitedValueReader {
	return &limitedValueReader{
		LimitedReader: io.LimitedReader{
			R: r,
			N: n,
		},
		S: r,
	}
}

func (l *limitedValueReader) ReadByte() (c byte, err error) {
	if l.N <= 0 {
		return 0, io.EOF
	}
	c, err = l.S.ReadByte()
	if err == nil {
		l.N--
	}
	return
}

func (l *limitedValueReader) UnreadByte() (err error) {
	err = l.S.UnreadByte()
	if err == nil {
		l.N++
	}
	return
}

// remaining reports how many bytes a limited reader may still return. It
// returns -1 for readers without a limit.
func remaining(r ValueReader) int64 {
	switch l := r.(type) {
	case *limitedValueReader:
		return l.N
	case *recordingReader:
		return remaining(l.r)
	case *bytes.Reader:
		return int64(l.Len())
	}
	return -1
}

// recordingReader keeps a copy of every byte read through it.
type recordingReader struct {
	r   ValueReader
	buf []byte
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	rr.buf = append(rr.buf, p[:n]...)
	return n, err
}

func (rr *recordingReader) ReadByte() (byte, error) {
	c, err := rr.r.ReadByte()
	if err == nil {
		rr.buf = append(rr.buf, c)
	}
	return c, err
}

func (rr *recordingReader) UnreadByte() error {
	if err := rr.r.UnreadByte(); err != nil {
		return err
	}
	rr.buf = rr.buf[:len(rr.buf)-1]
	return nil
}
