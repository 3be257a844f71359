package transport

import (
	"context"
	"errors"
	"iter"
	"time"
)

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrDeadLineExceeded   = errors.New("deadline exceeded")

	ErrBindFailed       = errors.New("failed to bind address")
	ErrAddrAlreadyInUse = errors.New("address already in use")
	ErrNetUnreachable   = errors.New("network is unreachable")
	ErrConnRefused      = errors.New("connection refused")
)

type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Addr() Addr
	Close() error
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}

// Incoming returns the connections accepted by l as an endless sequence.
// Each connection is yielded exactly once, and the sequence cannot be restarted.
// Accept errors are yielded too; the sequence stops after the error if the listener was closed
// or ctx was cancelled, and continues otherwise.
func Incoming(ctx context.Context, l ConnListener) iter.Seq2[Conn, error] {
	return func(yield func(Conn, error) bool) {
		for {
			conn, err := l.Accept(ctx)
			if err != nil {
				done := errors.Is(err, ErrConnListenerClosed) || ctx.Err() != nil
				if !yield(nil, err) || done {
					return
				}
				continue
			}

			if !yield(conn, nil) {
				// Nobody is going to serve it.
				conn.Close()
				return
			}
		}
	}
}

// BindError is returned when a listener cannot be bound to its address.
// It matches both [ErrBindFailed] and the cause.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string   { return "binding " + e.Addr + ": " + e.Err.Error() }
func (e *BindError) Unwrap() []error { return []error{ErrBindFailed, e.Err} }
