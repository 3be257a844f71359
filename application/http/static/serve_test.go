package static_test

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	nethttp "net/http"
	"os"
	"path/filepath"
	"static-httpd/application/http/actor/server"
	"static-httpd/application/http/semantic/status"
	"static-httpd/application/http/static"
	"static-httpd/transport"
	"static-httpd/transport/pipe"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

const page = "<html><body>hello</body></html>\n"

type ServeTestSuite struct {
	suite.Suite

	transport *pipe.Network
	addr      pipe.Addr
	server    *server.Server
}

func TestServeTestSuite(t *testing.T) {
	suite.Run(t, new(ServeTestSuite))
}

func (s *ServeTestSuite) SetupTest() {
	root := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o644))

	h, err := static.New(static.Options{Root: root})
	s.Require().NoError(err)
	s.T().Cleanup(func() { h.Close() })

	s.transport = pipe.NewNetwork(clock.NewMock())
	s.addr = pipe.Addr{Name: "httpd"}

	l, err := s.transport.Listen(s.addr)
	s.Require().NoError(err)

	s.server = server.New(l, slog.New(slog.DiscardHandler), clock.NewMock(), h.Handle, server.DefaultOptions())
	s.server.Start()

	s.T().Cleanup(func() { l.Close() })
}

func (s *ServeTestSuite) TearDownTest() {
	s.Require().NoError(s.server.Close())
	goleak.VerifyNone(s.T())
}

// roundTrip writes request on a new connection and reads until the server closes it.
func (s *ServeTestSuite) roundTrip(request string) []byte {
	conn, err := s.transport.Dial(context.Background(), s.addr)
	s.Require().NoError(err)
	defer conn.Close()

	_, err = conn.Write([]byte(request))
	s.Require().NoError(err)

	b, err := io.ReadAll(conn)
	if !errors.Is(err, transport.ErrConnClosed) {
		s.Require().NoError(err)
	}

	return b
}

func parse(b []byte) (*nethttp.Response, []byte, error) {
	res, err := nethttp.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}

	return res, body, nil
}

func (s *ServeTestSuite) TestGetRoot() {
	b := s.roundTrip("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")

	expected := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Length: 32\r\n" +
		"Date: Thu, 01 Jan 1970 00:00:00 GMT\r\n" +
		"Connection: close\r\n" +
		"\r\n" + page
	s.Equal(expected, string(b))
}

func (s *ServeTestSuite) TestHeadMatchesGet() {
	get := s.roundTrip("GET /index.html HTTP/1.1\r\n\r\n")
	head := s.roundTrip("HEAD /index.html HTTP/1.1\r\n\r\n")

	s.Equal(string(get[:len(get)-len(page)]), string(head))
}

func (s *ServeTestSuite) TestErrors() {
	testdata := []struct {
		name    string
		request string
		status  status.Status
		allow   string
	}{
		{name: "traversal", request: "GET /../etc/passwd HTTP/1.1\r\n\r\n", status: status.BadRequest},
		{name: "encoded traversal", request: "GET /%2e%2e/etc/passwd HTTP/1.1\r\n\r\n", status: status.BadRequest},
		{name: "missing", request: "GET /missing.html HTTP/1.1\r\n\r\n", status: status.NotFound},
		{name: "post", request: "POST / HTTP/1.1\r\nContent-Length: 0\r\n\r\n", status: status.MethodNotAllowed, allow: "GET, HEAD"},
		{name: "bad version", request: "GET / HTTP/2.0\r\n\r\n", status: status.BadRequest},
		{name: "bad request line", request: "GET /\r\n\r\n", status: status.BadRequest},
	}

	for _, td := range testdata {
		s.Run(td.name, func() {
			res, body, err := parse(s.roundTrip(td.request))
			s.Require().NoError(err)

			s.Equal(int(td.status.Code), res.StatusCode)
			s.Equal(string(server.StatusPage(td.status)), string(body))
			s.Equal(int64(len(body)), res.ContentLength)
			s.Equal(td.allow, res.Header.Get("Allow"))
			s.True(res.Close)
		})
	}
}
