package pipe

import (
	"context"
	"static-httpd/transport"
	"sync"

	"github.com/benbjohnson/clock"
)

// Network routes dials to listeners by [Addr].
type Network struct {
	clock clock.Clock

	mu        sync.Mutex
	listeners map[Addr]*Listener
}

func NewNetwork(c clock.Clock) *Network {
	return &Network{clock: c, listeners: make(map[Addr]*Listener)}
}

var _ transport.ConnDialer = (*Network)(nil)

// Listen registers a listener on addr.
func (n *Network) Listen(addr Addr) (*Listener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, taken := n.listeners[addr]; taken {
		return nil, &transport.BindError{Addr: addr.Name, Err: transport.ErrAddrAlreadyInUse}
	}

	l := &Listener{net: n, addr: addr, handoff: make(chan *Conn), closed: make(chan struct{})}
	n.listeners[addr] = l
	return l, nil
}

func (n *Network) lookup(addr transport.Addr) (*Listener, bool) {
	a, ok := addr.(Addr)
	if !ok {
		return nil, false
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.listeners[a]
	return l, ok
}

// Dial connects to the listener on addr and returns once it has accepted.
func (n *Network) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	l, ok := n.lookup(addr)
	if !ok {
		return nil, transport.ErrNetUnreachable
	}

	client, server := NewPair("dialer", addr.String(), n.clock)
	select {
	case l.handoff <- server:
		return client, nil
	case <-l.closed:
		return nil, transport.ErrConnRefused
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type Listener struct {
	net  *Network
	addr Addr

	// handoff is unbuffered, so a dial succeeds exactly when Accept takes it.
	handoff chan *Conn

	closeOnce sync.Once
	closed    chan struct{}
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Addr() transport.Addr { return l.addr }

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case c := <-l.handoff:
		return c, nil
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting and frees the address. Blocked dialers are refused.
func (l *Listener) Close() error {
	err := transport.ErrConnListenerClosed
	l.closeOnce.Do(func() {
		close(l.closed)

		l.net.mu.Lock()
		delete(l.net.listeners, l.addr)
		l.net.mu.Unlock()

		err = nil
	})
	return err
}
