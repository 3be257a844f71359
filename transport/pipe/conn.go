// Package pipe is an in-memory transport. Connections are synchronous like [net.Pipe]
// and their deadlines follow a [clock.Clock], so tests can drive time with a mock.
package pipe

import (
	"static-httpd/transport"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type Addr struct {
	Name string
}

func (a Addr) Network() string { return string(transport.Pipe) }
func (a Addr) String() string  { return a.Name }

var _ transport.Addr = Addr{}

// link carries bytes in one direction. The reader reports how much of each chunk it took.
type link struct {
	chunks chan []byte
	taken  chan int
	sendMu sync.Mutex
}

func newLink() *link {
	return &link{chunks: make(chan []byte), taken: make(chan int)}
}

// Conn is one end of a pipe.
type Conn struct {
	in, out *link

	local, remote Addr

	closed     chan struct{}
	peerClosed chan struct{}
	closeOnce  sync.Once

	readDeadline, writeDeadline *deadline
}

var _ transport.Conn = (*Conn)(nil)

// NewPair returns two connected ends. A write blocks until the other end has read all of it.
func NewPair(name1, name2 string, c clock.Clock) (*Conn, *Conn) {
	ab, ba := newLink(), newLink()
	a := &Conn{
		in: ba, out: ab,
		local: Addr{Name: name1}, remote: Addr{Name: name2},
		closed:       make(chan struct{}),
		readDeadline: newDeadline(c), writeDeadline: newDeadline(c),
	}
	b := &Conn{
		in: ab, out: ba,
		local: Addr{Name: name2}, remote: Addr{Name: name1},
		closed:       make(chan struct{}),
		readDeadline: newDeadline(c), writeDeadline: newDeadline(c),
	}
	a.peerClosed, b.peerClosed = b.closed, a.closed
	return a, b
}

func (c *Conn) LocalAddr() transport.Addr  { return c.local }
func (c *Conn) RemoteAddr() transport.Addr { return c.remote }

func (c *Conn) SetReadDeadLine(t time.Time)  { c.readDeadline.set(t) }
func (c *Conn) SetWriteDeadLine(t time.Time) { c.writeDeadline.set(t) }

// Close closes this end. Pending and later operations on both ends fail with [transport.ErrConnClosed].
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *Conn) usable(d *deadline) error {
	if fired(c.closed) || fired(c.peerClosed) {
		return transport.ErrConnClosed
	}
	if fired(d.done()) {
		return transport.ErrDeadLineExceeded
	}
	return nil
}

func (c *Conn) Read(p []byte) (int, error) {
	if err := c.usable(c.readDeadline); err != nil {
		return 0, err
	}

	select {
	case chunk := <-c.in.chunks:
		n := copy(p, chunk)
		c.in.taken <- n
		return n, nil
	case <-c.closed:
	case <-c.peerClosed:
	case <-c.readDeadline.done():
		return 0, transport.ErrDeadLineExceeded
	}
	return 0, transport.ErrConnClosed
}

func (c *Conn) Write(p []byte) (int, error) {
	if err := c.usable(c.writeDeadline); err != nil {
		return 0, err
	}

	// One writer at a time so concurrent writes never interleave.
	c.out.sendMu.Lock()
	defer c.out.sendMu.Unlock()

	written := 0
	for written < len(p) {
		select {
		case c.out.chunks <- p[written:]:
			written += <-c.out.taken
		case <-c.closed:
			return written, transport.ErrConnClosed
		case <-c.peerClosed:
			return written, transport.ErrConnClosed
		case <-c.writeDeadline.done():
			return written, transport.ErrDeadLineExceeded
		}
	}
	return written, nil
}
