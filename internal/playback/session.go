package playback

import (
	"sync"
	"time"

	"github.com/mgpai22/hiyori/internal/logging"
	"github.com/mgpai22/hiyori/internal/subtitle"
)

// Session binds one playback target to its cues and synchronizer.
type Session struct {
	ID string

	sync *Synchronizer
	log  *logging.Logger

	mu       sync.RWMutex
	subs     []*Subscription
	loadedAt time.Time
	closed   bool

	done chan struct{}
}

// Info is a point-in-time view of a session.
type Info struct {
	ID       string    `json:"id"`
	Cues     int       `json:"cues"`
	OffsetMs float64   `json:"offsetMs"`
	Active   int       `json:"active"`
	LoadedAt time.Time `json:"loadedAt,omitzero"`
}

func NewSession(id string, log *logging.Logger) *Session {
	return &Session{
		ID:   id,
		sync: NewSynchronizer(nil),
		log:  logging.OrNop(log).With("session", id),
		done: make(chan struct{}),
	}
}

// Load replaces the session's cues. The next tick announces the active cue
// even when its index equals the previous one.
func (s *Session) Load(cues []subtitle.Cue, offsetMs float64) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return LoadResult{Reason: ReasonClosed}
	}

	s.sync.Swap(NewStore(cues, offsetMs))
	s.loadedAt = time.Now()

	s.log.Infow("loaded subtitles", "cues", len(cues), "offset_ms", offsetMs)
	return LoadResult{OK: true, Count: len(cues)}
}

// SetOffset shifts the cues against the clock without reloading them.
func (s *Session) SetOffset(offsetMs float64) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return LoadResult{Reason: ReasonClosed}
	}

	s.sync.Retime(offsetMs)
	s.log.Debugw("offset changed", "offset_ms", offsetMs)
	return LoadResult{OK: true, Count: s.sync.Store().Len()}
}

// Unload drops the cues and clears whatever is on screen.
func (s *Session) Unload() LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return LoadResult{Reason: ReasonClosed}
	}

	if change, ok := s.sync.Clear(); ok {
		s.broadcastLocked(change)
	}
	s.loadedAt = time.Time{}

	s.log.Infow("unloaded subtitles")
	return LoadResult{OK: true}
}

// Tick feeds a clock reading (seconds) to the synchronizer and notifies
// subscribers if the active cue changed. Ticks are serialized so
// subscribers see changes in the order they were resolved.
func (s *Session) Tick(clock float64) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Change{Index: NoCue}, false
	}

	change, ok := s.sync.Tick(clock)
	if ok {
		s.broadcastLocked(change)
	}
	return change, ok
}

// Current returns the cue text a newly attached viewer should show.
func (s *Session) Current() Change {
	idx := s.sync.Active()
	cue, ok := s.sync.Store().Cue(idx)
	if !ok {
		return Change{Index: NoCue}
	}
	return Change{Index: idx, Text: cue.Text}
}

// Subscribe registers for active-cue changes. A closed session returns a
// subscription that is already done.
func (s *Session) Subscribe() *Subscription {
	sub := newSubscription()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe detaches sub and signals its Done channel.
func (s *Session) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.subs {
		if cur == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			sub.close()
			return
		}
	}
}

func (s *Session) Info() Info {
	s.mu.RLock()
	loadedAt := s.loadedAt
	s.mu.RUnlock()

	store := s.sync.Store()
	return Info{
		ID:       s.ID,
		Cues:     store.Len(),
		OffsetMs: store.OffsetMs(),
		Active:   s.sync.Active(),
		LoadedAt: loadedAt,
	}
}

// Cues returns the loaded cues in order.
func (s *Session) Cues() []subtitle.Cue {
	return s.sync.Store().Cues()
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session and every subscription. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	close(s.done)
	s.log.Debugw("session closed")
}

func (s *Session) broadcastLocked(c Change) {
	for _, sub := range s.subs {
		sub.sendChange(c)
	}
}
