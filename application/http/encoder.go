package http

import (
	"bufio"
	"io"
	"strconv"

	"static-httpd/application/util/rule"

	"github.com/pkg/errors"
)

type EncodeOptions struct {
	// UseSoleLF terminates lines with LF only.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	UseSoleLF bool
}

var DefaultEncodeOptions = EncodeOptions{}

type ResponseEncoder struct {
	bw   *bufio.Writer
	opts EncodeOptions
}

func NewResponseEncoder(w io.Writer, opts EncodeOptions) *ResponseEncoder {
	return &ResponseEncoder{bw: bufio.NewWriter(w), opts: opts}
}

// Encode writes res. The head is flushed before the body is read,
// so a failing body still leaves a complete head on the wire.
func (e *ResponseEncoder) Encode(res Response) error {
	if _, err := e.bw.Write(e.appendHead(nil, res)); err != nil {
		return errors.Wrap(err, "writing head")
	}

	if err := e.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing head")
	}

	if res.Body == nil {
		return nil
	}

	if _, err := e.bw.ReadFrom(res.Body); err != nil {
		// Whatever was read still goes out.
		_ = e.bw.Flush()
		return errors.Wrap(err, "writing body")
	}

	if err := e.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing body")
	}

	return nil
}

func (e *ResponseEncoder) appendHead(b []byte, res Response) []byte {
	b = append(b, res.Version.Text()...)
	b = append(b, rule.SP)
	b = strconv.AppendUint(b, uint64(res.StatusCode), 10)
	b = append(b, rule.SP)
	b = append(b, res.ReasonPhrase...)
	b = e.appendEOL(b)

	for _, field := range res.Headers {
		b = field.AppendText(b)
		b = e.appendEOL(b)
	}

	return e.appendEOL(b)
}

func (e *ResponseEncoder) appendEOL(b []byte) []byte {
	if e.opts.UseSoleLF {
		return append(b, rule.LF)
	}
	return append(b, rule.CR, rule.LF)
}
