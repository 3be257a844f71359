package http

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ResponseEncoderTestSuite struct {
	suite.Suite

	buf *bytes.Buffer
}

func TestResponseEncoderTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseEncoderTestSuite))
}

func (s *ResponseEncoderTestSuite) SetupTest() {
	s.buf = new(bytes.Buffer)
}

func okResponse(body string) Response {
	res := Response{
		StatusLine: StatusLine{Version: Version{1, 1}, StatusCode: 200, ReasonPhrase: "OK"},
		Headers: []Field{
			field("Content-Type", "text/html"),
			field("Content-Length", "5"),
		},
	}
	if body != "" {
		res.Body = strings.NewReader(body)
	}
	return res
}

func (s *ResponseEncoderTestSuite) TestEncode() {
	err := NewResponseEncoder(s.buf, DefaultEncodeOptions).Encode(okResponse("hello"))
	s.Require().NoError(err)

	s.Equal("HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/html\r\n"+
		"Content-Length: 5\r\n"+
		"\r\n"+
		"hello", s.buf.String())
}

func (s *ResponseEncoderTestSuite) TestEncodeSoleLF() {
	err := NewResponseEncoder(s.buf, EncodeOptions{UseSoleLF: true}).Encode(okResponse(""))
	s.Require().NoError(err)

	s.Equal("HTTP/1.1 200 OK\nContent-Type: text/html\nContent-Length: 5\n\n", s.buf.String())
}

func (s *ResponseEncoderTestSuite) TestEncodeWithoutBody() {
	res := Response{StatusLine: StatusLine{Version: Version{1, 1}, StatusCode: 404, ReasonPhrase: "Not Found"}}

	s.Require().NoError(NewResponseEncoder(s.buf, DefaultEncodeOptions).Encode(res))
	s.Equal("HTTP/1.1 404 Not Found\r\n\r\n", s.buf.String())
}

func (s *ResponseEncoderTestSuite) TestEmptyReasonPhrase() {
	res := Response{StatusLine: StatusLine{Version: Version{1, 1}, StatusCode: 599}}

	s.Require().NoError(NewResponseEncoder(s.buf, DefaultEncodeOptions).Encode(res))
	s.Equal("HTTP/1.1 599 \r\n\r\n", s.buf.String())
}

func (s *ResponseEncoderTestSuite) TestHeadWrittenBeforeBodyFails() {
	res := okResponse("")
	res.Body = &failingReader{data: []byte("he")}

	err := NewResponseEncoder(s.buf, DefaultEncodeOptions).Encode(res)
	s.ErrorIs(err, assert.AnError)

	s.Equal("HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/html\r\n"+
		"Content-Length: 5\r\n"+
		"\r\n"+
		"he", s.buf.String())
}

// failingReader returns data, then fails.
type failingReader struct{ data []byte }

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, assert.AnError
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestEncodeDecodeFieldLine(t *testing.T) {
	f := field("Allow", "GET, HEAD")

	parsed, err := ParseField(f.AppendText(nil))
	require.NoError(t, err)
	assert.Equal(t, f, parsed)
}
