// Package tcp adapts sockets of the operating system's TCP stack
// to [transport.ConnListener], [transport.ConnDialer] and [transport.Conn].
package tcp

import (
	"context"
	"io"
	"net"
	"os"
	"static-httpd/transport"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Lingering close parameters.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.6-9
const (
	lingerTimeout = 500 * time.Millisecond
	lingerMaxRead = 256 << 10
)

type Listener struct {
	l *net.TCPListener
}

var _ transport.ConnListener = (*Listener)(nil)

// Listen binds address (host:port). The returned error matches [transport.ErrBindFailed].
func Listen(ctx context.Context, address string) (*Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, string(transport.TCP), address)
	if err != nil {
		return nil, &transport.BindError{Addr: address, Err: err}
	}

	return &Listener{l: l.(*net.TCPListener)}, nil
}

func (l *Listener) Addr() transport.Addr { return l.l.Addr() }

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	// Previous cancellation might have left a deadline.
	if err := l.l.SetDeadline(time.Time{}); err != nil {
		return nil, translateListenerError(err)
	}

	stop := context.AfterFunc(ctx, func() {
		// Wakes up blocking accept.
		l.l.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	c, err := l.l.AcceptTCP()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, translateListenerError(err)
	}

	return &conn{c: c}, nil
}

func (l *Listener) Close() error {
	if err := l.l.Close(); err != nil {
		return translateListenerError(err)
	}
	return nil
}

func translateListenerError(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return transport.ErrConnListenerClosed
	}
	return errors.Wrap(err, "accepting connection")
}

type Dialer struct {
	d net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func NewDialer(timeout time.Duration) *Dialer {
	return &Dialer{d: net.Dialer{Timeout: timeout}}
}

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	c, err := d.d.DialContext(ctx, string(transport.TCP), addr.String())
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, transport.ErrConnRefused
		}
		return nil, errors.Wrap(err, "dialing")
	}

	return &conn{c: c.(*net.TCPConn)}, nil
}

type conn struct {
	c *net.TCPConn
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) Read(p []byte) (n int, err error) {
	n, err = c.c.Read(p)
	return n, translateConnError(err)
}

func (c *conn) Write(p []byte) (n int, err error) {
	n, err = c.c.Write(p)
	return n, translateConnError(err)
}

// Close closes the connection after the peer has had a chance to read what was written.
// Closing a socket with unread input makes the kernel send RST,
// which may discard a response the peer hasn't read yet.
func (c *conn) Close() error {
	if err := c.c.CloseWrite(); err == nil {
		c.c.SetReadDeadline(time.Now().Add(lingerTimeout))
		io.Copy(io.Discard, io.LimitReader(c.c, lingerMaxRead))
	}

	if err := c.c.Close(); err != nil {
		return translateConnError(err)
	}
	return nil
}

func (c *conn) LocalAddr() transport.Addr  { return c.c.LocalAddr() }
func (c *conn) RemoteAddr() transport.Addr { return c.c.RemoteAddr() }

func (c *conn) SetReadDeadLine(t time.Time)  { c.c.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { c.c.SetWriteDeadline(t) }

func translateConnError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return transport.ErrConnClosed
	case errors.Is(err, os.ErrDeadlineExceeded):
		return transport.ErrDeadLineExceeded
	}
	return err
}
