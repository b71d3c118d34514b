package playback

import (
	"context"
	"sync"
	"time"

	"github.com/mgpai22/hiyori/internal/logging"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	MinPollInterval     = 10 * time.Millisecond
)

// Clock reports the current playback position in seconds.
type Clock func() float64

// Driver ticks a session from two sources: a fixed poll and discrete
// notifications (seek, rate change, play, pause). Both go through the same
// Session.Tick, so redundant ticks are harmless.
type Driver struct {
	session  *Session
	clock    Clock
	interval time.Duration
	log      *logging.Logger

	notifyCh chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	start    sync.Once
}

func NewDriver(session *Session, clock Clock, interval time.Duration, log *logging.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	return &Driver{
		session:  session,
		clock:    clock,
		interval: interval,
		log:      logging.OrNop(log).With("session", session.ID),
		notifyCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the loop in a goroutine until Stop, ctx cancellation or the
// session closing. Later calls are no-ops.
func (d *Driver) Start(ctx context.Context) {
	d.start.Do(func() {
		go d.run(ctx)
	})
}

// Notify requests an immediate tick. Notifications arriving while one is
// pending are coalesced.
func (d *Driver) Notify() {
	select {
	case d.notifyCh <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for it to exit. Safe to call repeatedly and
// before Start.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
	started := true
	d.start.Do(func() {
		started = false
		close(d.doneCh)
	})
	if started {
		<-d.doneCh
	}
}

// Done is closed once the loop has exited.
func (d *Driver) Done() <-chan struct{} {
	return d.doneCh
}

func (d *Driver) run(ctx context.Context) {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Debugw("driver started", "interval", d.interval)
	d.tick()

	for {
		select {
		case <-ctx.Done():
			d.log.Debugw("driver stopped", "reason", ctx.Err())
			return
		case <-d.stopCh:
			d.log.Debugw("driver stopped", "reason", "stop")
			return
		case <-d.session.Done():
			d.log.Debugw("driver stopped", "reason", "session closed")
			return
		case <-ticker.C:
			d.tick()
		case <-d.notifyCh:
			d.tick()
		}
	}
}

func (d *Driver) tick() {
	d.session.Tick(d.clock())
}
