package http

import (
	"bytes"
	"io"
	"static-httpd/application/util/rule"
	"strconv"

	"github.com/pkg/errors"
)

// RequestLine is the first line of a request, as received.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3
type RequestLine struct {
	Method  string
	Target  string
	Version Version
}

type Request struct {
	RequestLine
	// Headers are in the order they were received.
	Headers []Field

	Body io.Reader
}

// StatusLine is the first line of a response.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
type StatusLine struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
}

type Response struct {
	StatusLine
	// Headers are written in order.
	Headers []Field

	// Body is copied after the head. nil means no body.
	Body io.Reader
}

// Version is [major, minor].
type Version [2]uint

var versionPrefix = []byte("HTTP/")

// ParseVersion parses HTTP-version, e.g. "HTTP/1.1".
// Both numbers are a single digit.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.3
func ParseVersion(b []byte) (Version, error) {
	digits, ok := bytes.CutPrefix(b, versionPrefix)
	if !ok {
		return Version{}, errors.Errorf("missing %q in version: %q", versionPrefix, b)
	}

	if len(digits) != 3 || digits[1] != '.' || !rule.IsDigit(rune(digits[0])) || !rule.IsDigit(rune(digits[2])) {
		return Version{}, errors.Errorf("version should be DIGIT.DIGIT: %q", b)
	}

	return Version{uint(digits[0] - '0'), uint(digits[2] - '0')}, nil
}

func (ver Version) Text() []byte {
	b := append([]byte(nil), versionPrefix...)
	b = strconv.AppendUint(b, uint64(ver[0]), 10)
	b = append(b, '.')
	return strconv.AppendUint(b, uint64(ver[1]), 10)
}

func (ver Version) String() string { return string(ver.Text()) }

// Field is a single field line, name and value as they were on the wire.
type Field struct{ Name, Value []byte }

// ParseField parses field-line without its terminator.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5
func ParseField(line []byte) (Field, error) {
	name, value, ok := bytes.Cut(line, []byte{':'})
	if !ok {
		return Field{}, errors.Errorf("no colon in field line: %q", line)
	}

	// Whitespace around the name is rejected, which also rejects obs-fold.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	if !rule.IsValidToken(string(name)) {
		return Field{}, errors.Errorf("field name is not a token: %q", name)
	}

	return Field{Name: name, Value: bytes.Trim(value, string(rule.OWS))}, nil
}

// AppendText appends the field line, without a terminator.
func (f Field) AppendText(b []byte) []byte {
	b = append(b, f.Name...)
	b = append(b, ':', rule.SP)
	return append(b, f.Value...)
}
