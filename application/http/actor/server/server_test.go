package server

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"static-httpd/application/http/semantic"
	"static-httpd/application/http/semantic/status"
	"static-httpd/transport"
	"static-httpd/transport/pipe"
	"sync/atomic"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type ServerTestSuite struct {
	suite.Suite

	transport *pipe.Network
	logger    *slog.Logger

	transportAddr pipe.Addr
	listener      transport.ConnListener

	clock *clock.Mock
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.clock = clock.NewMock()

	s.transport = pipe.NewNetwork(s.clock)
	s.logger = slog.New(slog.DiscardHandler)

	s.transportAddr = pipe.Addr{Name: "addr"}

	lis, err := s.transport.Listen(s.transportAddr)
	s.Require().NoError(err)
	s.listener = lis
}

func (s *ServerTestSuite) TearDownTest() {
	s.listener.Close()
	goleak.VerifyNone(s.T())
}

// get sends a GET request on a new connection and reads the whole response.
func (s *ServerTestSuite) get(path string) (*nethttp.Response, []byte) {
	conn, err := s.transport.Dial(context.Background(), s.transportAddr)
	s.Require().NoError(err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET " + path + " HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	s.Require().NoError(err)

	b, err := readAll(conn)
	s.Require().NoError(err)

	res, body, err := parseResponse(b)
	s.Require().NoError(err)

	return res, body
}

func (s *ServerTestSuite) TestStart() {
	handle := func(c *HandleContext, request *semantic.Request) *semantic.Response {
		return textResponse(request.URI.Path)
	}

	server := New(s.listener, s.logger, s.clock, handle, DefaultOptions())
	server.Start()

	for _, path := range []string{"/a", "/b", "/c"} {
		res, body := s.get(path)
		s.Equal(status.OK, statusOf(res))
		s.Equal(path, string(body))
	}

	s.NoError(server.Close())
}

func (s *ServerTestSuite) TestCloseBeforeStart() {
	server := New(s.listener, s.logger, s.clock, nil, DefaultOptions())
	s.Error(server.Close())
}

func (s *ServerTestSuite) TestPanicDoesNotStopServer() {
	var calls atomic.Int32
	handle := func(c *HandleContext, request *semantic.Request) *semantic.Response {
		if calls.Add(1) == 1 {
			panic("first request panics")
		}
		return textResponse("ok")
	}

	server := New(s.listener, s.logger, s.clock, handle, DefaultOptions())
	server.Start()

	res, _ := s.get("/")
	s.Equal(status.InternalServerError, statusOf(res))

	res, body := s.get("/")
	s.Equal(status.OK, statusOf(res))
	s.Equal("ok", string(body))

	s.NoError(server.Close())
}

func (s *ServerTestSuite) TestMaxConns() {
	release := make(chan struct{})
	entered := make(chan string, 2)
	handle := func(c *HandleContext, request *semantic.Request) *semantic.Response {
		entered <- request.URI.Path
		if request.URI.Path == "/slow" {
			<-release
		}
		return textResponse(request.URI.Path)
	}

	opts := DefaultOptions()
	opts.MaxConns = 1

	server := New(s.listener, s.logger, s.clock, handle, opts)
	server.Start()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		res, body := s.get("/slow")
		s.Equal(status.OK, statusOf(res))
		s.Equal("/slow", string(body))
	}()
	s.Equal("/slow", <-entered)

	// Accepted, but not served while the slot is taken.
	conn, err := s.transport.Dial(context.Background(), s.transportAddr)
	s.Require().NoError(err)
	defer conn.Close()

	writeDone := make(chan error, 1)
	go func() {
		_, err := conn.Write([]byte("GET /fast HTTP/1.1\r\n\r\n"))
		writeDone <- err
	}()

	select {
	case path := <-entered:
		s.Failf("served beyond limit", "path: %s", path)
	case <-writeDone:
		s.Fail("request read beyond limit")
	default:
	}

	close(release)
	<-slowDone

	s.NoError(<-writeDone)
	s.Equal("/fast", <-entered)

	b, err := readAll(conn)
	s.Require().NoError(err)
	res, body, err := parseResponse(b)
	s.Require().NoError(err)
	s.Equal(status.OK, statusOf(res))
	s.Equal("/fast", string(body))

	s.NoError(server.Close())
}

func (s *ServerTestSuite) TestCloseWithIdleConnection() {
	called := false
	handle := func(c *HandleContext, request *semantic.Request) *semantic.Response {
		called = true
		return textResponse("")
	}

	server := New(s.listener, s.logger, s.clock, handle, DefaultOptions())
	server.Start()

	conn, err := s.transport.Dial(context.Background(), s.transportAddr)
	s.Require().NoError(err)
	defer conn.Close()

	// Server is waiting for the rest of request.
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n"))
	s.Require().NoError(err)

	s.NoError(server.Close())

	b, err := readAll(conn)
	s.NoError(err)
	s.Empty(b)
	s.False(called)
}

func (s *ServerTestSuite) TestListenerClosed() {
	server := New(s.listener, s.logger, s.clock, nil, DefaultOptions())
	server.Start()

	s.Require().NoError(s.listener.Close())

	_, err := s.transport.Dial(context.Background(), s.transportAddr)
	s.Error(err)

	s.NoError(server.Close())
}
