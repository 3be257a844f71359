package iolib

import (
	"bytes"
	"errors"
	"io"
)

const chunkSize = 1024

// UntilReader reads from an underlying reader up to a delimiter.
// Bytes read past the delimiter are kept and served by the next call.
type UntilReader struct {
	r       io.Reader
	pending []byte
}

func NewUntilReader(r io.Reader) *UntilReader { return &UntilReader{r: r} }

func (ur *UntilReader) Read(p []byte) (int, error) {
	if len(ur.pending) == 0 {
		return ur.r.Read(p)
	}
	n := copy(p, ur.pending)
	ur.pending = ur.pending[n:]
	return n, nil
}

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("limit exceeded before delim")
)

// ReadUntil returns the bytes up to and including delim.
// If the underlying reader fails first, the bytes read so far are returned with its error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.readUntil(delim, -1)
}

// ReadUntilLimit is [UntilReader.ReadUntil] that pulls at most limit bytes from the
// underlying reader. Pending bytes left by earlier calls are not counted.
// A limit of 0 means no limit.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if limit == 0 {
		return ur.ReadUntil(delim)
	}
	return ur.readUntil(delim, int(limit))
}

// readUntil scans pending for delim, pulling chunks while budget allows. A negative budget is unbounded.
func (ur *UntilReader) readUntil(delim []byte, budget int) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	scanned := 0
	for {
		if i := bytes.Index(ur.pending[scanned:], delim); i >= 0 {
			return ur.take(scanned + i + len(delim)), nil
		}
		// Overlap so a delim split across chunks is still found.
		scanned = max(0, len(ur.pending)-len(delim)+1)

		if budget == 0 {
			return ur.take(len(ur.pending)), ErrLimitExceeded
		}

		size := chunkSize
		if budget > 0 {
			size = min(size, budget)
		}

		buf := make([]byte, size)
		n, err := ur.r.Read(buf)
		ur.pending = append(ur.pending, buf[:n]...)
		if budget > 0 {
			budget -= n
		}

		if err != nil {
			if i := bytes.Index(ur.pending[scanned:], delim); i >= 0 {
				return ur.take(scanned + i + len(delim)), nil
			}
			return ur.take(len(ur.pending)), err
		}
	}
}

// take removes and returns the first n pending bytes.
func (ur *UntilReader) take(n int) []byte {
	out := bytes.Clone(ur.pending[:n])
	ur.pending = ur.pending[n:]
	if len(ur.pending) == 0 {
		ur.pending = nil
	}
	return out
}
