// Package conntest holds a suite that checks the behavior shared by every [transport.Conn].
package conntest

import (
	"bytes"
	"io"
	"slices"
	"static-httpd/transport"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// Suite runs against the pair returned by Pair. Embed it and set Pair and Clock.
type Suite struct {
	suite.Suite

	Clock clock.Clock
	Pair  func() (transport.Conn, transport.Conn)

	a, b transport.Conn
}

func (s *Suite) SetupTest() {
	s.a, s.b = s.Pair()
}

func (s *Suite) TearDownTest() {
	defer goleak.VerifyNone(s.T())

	var wg sync.WaitGroup
	for _, c := range []transport.Conn{s.a, s.b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()
}

// send writes p to w in the background and reports the result on the returned channel.
func send(w io.Writer, p []byte) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := w.Write(p)
		done <- err
	}()
	return done
}

func (s *Suite) TestTransfer() {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 300)

	for _, dir := range [][2]transport.Conn{{s.a, s.b}, {s.b, s.a}} {
		from, to := dir[0], dir[1]
		sent := send(from, payload)

		got := make([]byte, len(payload))
		_, err := io.ReadFull(to, got)
		s.Require().NoError(err)
		s.Equal(payload, got)
		s.Require().NoError(<-sent)
	}
}

func (s *Suite) TestWritesDoNotInterleave() {
	const writers, size = 8, 64

	var results []<-chan error
	for i := range writers {
		results = append(results, send(s.a, bytes.Repeat([]byte{byte('a' + i)}, size)))
	}

	got := make([]byte, writers*size)
	_, err := io.ReadFull(s.b, got)
	s.Require().NoError(err)
	for _, r := range results {
		s.NoError(<-r)
	}

	seen := map[byte]bool{}
	for chunk := range slices.Chunk(got, size) {
		s.Equal(bytes.Repeat(chunk[:1], size), chunk, "interleaved write")
		s.False(seen[chunk[0]], "duplicated write")
		seen[chunk[0]] = true
	}
}

func (s *Suite) TestPeerCloseEndsRead() {
	read := make(chan error, 1)
	go func() {
		_, err := s.b.Read(make([]byte, 8))
		read <- err
	}()

	go s.a.Close()

	select {
	case err := <-read:
		s.ErrorIs(err, transport.ErrConnClosed)
	case <-time.After(time.Second):
		s.Fail("read was not released by the peer closing")
	}
}

func (s *Suite) TestUseAfterClose() {
	s.Require().NoError(s.a.Close())

	n, err := s.a.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	n, err = s.a.Write([]byte("x"))
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)
}

func (s *Suite) TestExpiredDeadlines() {
	past := s.Clock.Now().Add(-time.Second)
	s.a.SetReadDeadLine(past)
	s.a.SetWriteDeadLine(past)

	n, err := s.a.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)

	n, err = s.a.Write([]byte("x"))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)
}

func (s *Suite) TestClearedDeadline() {
	s.a.SetReadDeadLine(s.Clock.Now().Add(-time.Second))
	s.a.SetReadDeadLine(time.Time{})

	sent := send(s.b, []byte("ok"))
	got := make([]byte, 2)
	_, err := io.ReadFull(s.a, got)
	s.Require().NoError(err)
	s.Equal("ok", string(got))
	s.NoError(<-sent)
}

func (s *Suite) TestAddrs() {
	s.Equal(s.a.LocalAddr().String(), s.b.RemoteAddr().String())
	s.Equal(s.b.LocalAddr().String(), s.a.RemoteAddr().String())
	s.Equal(s.a.LocalAddr().Network(), s.b.LocalAddr().Network())
}
