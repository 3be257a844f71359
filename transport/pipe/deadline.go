package pipe

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// deadline exposes a channel that is closed once the configured time has passed.
type deadline struct {
	clock clock.Clock

	mu      sync.Mutex
	timer   *clock.Timer
	expired chan struct{}
}

func newDeadline(c clock.Clock) *deadline {
	return &deadline{clock: c, expired: make(chan struct{})}
}

// set arms the deadline for t. The zero time disarms it.
func (d *deadline) set(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// A timer that fired concurrently can only close the previous channel.
	expired := make(chan struct{})
	d.expired = expired

	if t.IsZero() {
		return
	}
	if left := d.clock.Until(t); left > 0 {
		d.timer = d.clock.AfterFunc(left, func() { close(expired) })
		return
	}
	close(expired)
}

func (d *deadline) done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expired
}

func fired(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
