package semantic

import (
	"io"
	"static-httpd/application/http"
	"strconv"

	"github.com/pkg/errors"
)

type Message struct {
	Version http.Version
	Headers Headers

	// ContentLength is the length of the representation, nil if unknown.
	// A response to HEAD announces it while leaving Body empty.
	ContentLength *uint

	Body io.Reader
}

var ErrInvalidContentLength = errors.New("invalid Content-Length")

// EnsureHeadersSet writes ContentLength into headers.
func (m *Message) EnsureHeadersSet() {
	if m.ContentLength != nil {
		m.Headers.Set("Content-Length", strconv.FormatUint(uint64(*m.ContentLength), 10))
	}
}

// contentLength reads Content-Length from h. It is nil if absent.
// Repeated lines must agree.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6
func contentLength(h Headers) (*uint, error) {
	values := h.Values("Content-Length")
	if len(values) == 0 {
		return nil, nil
	}

	var length *uint
	for _, v := range values {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidContentLength, "%q", v)
		}

		if length != nil && *length != uint(n) {
			return nil, errors.Wrapf(ErrInvalidContentLength, "conflicting values: %q", values)
		}
		l := uint(n)
		length = &l
	}

	return length, nil
}
