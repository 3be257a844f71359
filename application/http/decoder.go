package http

import (
	"bytes"

	"static-httpd/application/util/rule"
	iolib "static-httpd/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF accepts a bare LF as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxRequestLineLength limits the request line, terminator included.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxRequestLineLength uint

	// MaxFieldLineLength limits every field line, terminator included.
	MaxFieldLineLength uint

	// MaxHeaderBytes limits the whole head: request line, field lines and the
	// empty line after them.
	MaxHeaderBytes uint

	// Zero means no limit for all of the above.
}

var DefaultDecodeOptions = DecodeOptions{
	MaxHeaderBytes: 8 << 10,
}

var (
	ErrMissingCRBeforeLF = errors.New("missing CR before LF")
	ErrHeaderTooLarge    = errors.New("header section exceeds limit")

	ErrRequestLineTooLong   = errors.New("request line length exceeds limit")
	ErrMalformedRequestLine = errors.New("request line is malformed")

	ErrFieldLineTooLong   = errors.New("field line length exceeds limit")
	ErrMalformedFieldLine = errors.New("field line is malformed")

	errLineTooLong = errors.New("line too long")
)

// RequestDecoder reads the head of a request.
type RequestDecoder struct {
	r    *iolib.UntilReader
	opts DecodeOptions

	// read is the size of the head so far.
	read uint
}

func NewRequestDecoder(r *iolib.UntilReader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{r: r, opts: opts}
}

func (d *RequestDecoder) DecodeRequestLine(line *RequestLine) error {
	var b []byte

	// Empty lines before a request are ignored.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
	for len(b) == 0 {
		var err error
		if b, err = d.nextLine(d.opts.MaxRequestLineLength); err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrRequestLineTooLong
			}
			return err
		}
	}

	parsed, err := parseRequestLine(b)
	if err != nil {
		return errors.Wrap(ErrMalformedRequestLine, err.Error())
	}

	*line = parsed

	return nil
}

// DecodeHeaders reads field lines up to and including the empty line.
func (d *RequestDecoder) DecodeHeaders(headers *[]Field) error {
	var fields []Field

	for {
		b, err := d.nextLine(d.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrFieldLineTooLong
			}
			return err
		}

		if len(b) == 0 {
			break
		}

		field, err := ParseField(b)
		if err != nil {
			return errors.Wrap(ErrMalformedFieldLine, err.Error())
		}

		fields = append(fields, field)
	}

	*headers = fields

	return nil
}

// nextLine reads a line and strips its terminator.
func (d *RequestDecoder) nextLine(limit uint) ([]byte, error) {
	b, err := d.readThroughLF()
	if err != nil {
		return nil, err
	}

	if limit > 0 && uint(len(b)) > limit {
		return nil, errLineTooLong
	}

	b, hasCR := bytes.CutSuffix(b[:len(b)-1], []byte{rule.CR})
	if !hasCR && !d.opts.AllowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
	return bytes.ReplaceAll(b, []byte{rule.CR}, []byte{rule.SP}), nil
}

// readThroughLF reads up to and including LF, within MaxHeaderBytes.
func (d *RequestDecoder) readThroughLF() ([]byte, error) {
	budget := d.opts.MaxHeaderBytes
	if budget == 0 {
		return d.r.ReadUntil([]byte{rule.LF})
	}

	if d.read >= budget {
		return nil, ErrHeaderTooLarge
	}

	b, err := d.r.ReadUntilLimit([]byte{rule.LF}, budget-d.read)
	if errors.Is(err, iolib.ErrLimitExceeded) {
		return nil, ErrHeaderTooLarge
	}
	if err != nil {
		return nil, err
	}

	d.read += uint(len(b))
	if d.read > budget {
		return nil, ErrHeaderTooLarge
	}

	return b, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3
func parseRequestLine(b []byte) (RequestLine, error) {
	method, rest, ok1 := bytes.Cut(b, []byte{rule.SP})
	target, version, ok2 := bytes.Cut(rest, []byte{rule.SP})
	if !ok1 || !ok2 || bytes.IndexByte(version, rule.SP) >= 0 {
		return RequestLine{}, errors.Errorf("expected three parts separated by SP: %q", b)
	}

	if !rule.IsValidToken(string(method)) {
		return RequestLine{}, errors.Errorf("method is not a token: %q", method)
	}

	if len(target) == 0 {
		return RequestLine{}, errors.New("empty request target")
	}

	ver, err := ParseVersion(version)
	if err != nil {
		return RequestLine{}, err
	}

	return RequestLine{Method: string(method), Target: string(target), Version: ver}, nil
}
