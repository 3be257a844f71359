package iolib

import "io"

// CountingWriter counts bytes that were accepted by the underlying writer.
type CountingWriter struct {
	W io.Writer
	N uint
}

func NewCountingWriter(w io.Writer) *CountingWriter { return &CountingWriter{W: w} }

func (cw *CountingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.W.Write(p)
	cw.N += uint(n)
	return n, err
}

// Committed reports whether any byte has reached the underlying writer.
func (cw *CountingWriter) Committed() bool { return cw.N > 0 }

// ExactReader reads exactly n bytes from r.
// If r ends early, it returns [io.ErrUnexpectedEOF] instead of [io.EOF].
func ExactReader(r io.Reader, n uint) io.Reader { return &exactReader{r: r, left: n} }

type exactReader struct {
	r    io.Reader
	left uint
}

func (e *exactReader) Read(p []byte) (int, error) {
	if e.left == 0 {
		return 0, io.EOF
	}
	if uint(len(p)) > e.left {
		p = p[:e.left]
	}

	n, err := e.r.Read(p)
	e.left -= uint(n)
	if err == io.EOF && e.left > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}
