// Package server serves HTTP/1.1 over a [transport.ConnListener].
// Each accepted connection is served on its own goroutine,
// for exactly one request after which it is closed.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	iolib "static-httpd/lib/io"
	"static-httpd/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

type Server struct {
	l transport.ConnListener

	cancel func()
	wg     sync.WaitGroup

	// slots limits concurrently served connections. nil if unlimited.
	slots chan struct{}

	logger *slog.Logger
	opts   Options

	handle HandleFunc
	clock  clock.Clock
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	s := &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		clock:  clock,
	}

	if opts.MaxConns > 0 {
		s.slots = make(chan struct{}, opts.MaxConns)
	}

	return s
}

// Start starts accepting connections in background.
// It returns immediately, use [Server.Close] to stop.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serve(ctx)
	}()
}

func (s *Server) serve(ctx context.Context) {
	s.logger.Info("accepting connections", "addr", s.l.Addr())

	var backoff time.Duration
	for con, err := range transport.Incoming(ctx, s.l) {
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, transport.ErrConnListenerClosed) {
				s.logger.Info("stopped accepting connections", "reason", err)
				return
			}

			backoff = min(max(2*backoff, minAcceptBackoff), maxAcceptBackoff)
			s.logger.Error(
				"unexpected error when accepting connection",
				"error", err, "retry_in", backoff,
			)

			select {
			case <-ctx.Done():
			case <-s.clock.After(backoff):
			}
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, con)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, con transport.Conn) {
	logger := s.logger.With("conn", con.RemoteAddr())

	defer func() {
		// Nothing from a single connection may take down the server.
		if r := recover(); r != nil {
			logger.Error("connection panicked", "panic", r)
			con.Close()
		}
	}()

	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
			defer func() { <-s.slots }()
		case <-ctx.Done():
			logger.Debug("closed while waiting for a slot")
			con.Close()
			return
		}
	}

	c := &conn{
		con:    con,
		r:      iolib.NewUntilReader(con),
		w:      iolib.NewCountingWriter(con),
		handle: s.handle,
		opts:   s.opts,
		logger: logger,
		clock:  s.clock,
	}

	c.start(ctx)
}

// Close stops accepting connections and waits for the ones being served.
// Connections still waiting for a request are closed, while
// requests already received are answered.
// The listener is not closed, it belongs to the caller.
func (s *Server) Close() error {
	if s.cancel == nil {
		return errors.New("server is not started")
	}

	s.cancel()
	s.wg.Wait()
	return nil
}
