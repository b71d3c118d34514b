package playback

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/mgpai22/hiyori/internal/subtitle"
)

// NoCue is the index reported when the clock falls between cues.
const NoCue = -1

// active index of a synchronizer that has not reported since its last reload
const unreported = -2

// Lookup binary searches cues (ordered by start) for one whose interval
// contains t, both ends inclusive. With overlapping cues the first interval
// the search lands on wins. Returns NoCue for a gap or a NaN clock.
func Lookup(cues []subtitle.Cue, t float64) int {
	if math.IsNaN(t) {
		return NoCue
	}
	lo, hi := 0, len(cues)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch c := cues[mid]; {
		case t < c.Start:
			hi = mid - 1
		case t > c.End:
			lo = mid + 1
		default:
			return mid
		}
	}
	return NoCue
}

// Change is emitted when the active cue changes. Index is NoCue and Text is
// empty when the display should be cleared.
type Change struct {
	Index int
	Text  string
}

// Cleared reports whether the change removes the displayed cue.
func (c Change) Cleared() bool {
	return c.Index == NoCue
}

// Synchronizer tracks which cue is active for a stream of clock readings.
// Tick may be called from several goroutines; the store swap is atomic and
// a tick sees either the old or the new store, never a mix.
type Synchronizer struct {
	store atomic.Pointer[Store]

	mu     sync.Mutex
	active int
	shown  bool
}

func NewSynchronizer(store *Store) *Synchronizer {
	s := &Synchronizer{active: unreported}
	if store == nil {
		store = emptyStore
	}
	s.store.Store(store)
	return s
}

// Store returns the current snapshot.
func (s *Synchronizer) Store() *Store {
	return s.store.Load()
}

// Active returns the last reported index, NoCue when nothing is shown.
func (s *Synchronizer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == unreported {
		return NoCue
	}
	return s.active
}

// Tick resolves clock against the current store. It returns a Change only
// when the resolved index differs from the previously reported one. A gap
// with nothing on screen is not reported. Without a change the returned
// value is a clear, never cue 0.
func (s *Synchronizer) Tick(clock float64) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.store.Load()
	idx := store.At(clock)
	if idx == s.active {
		return Change{Index: NoCue}, false
	}
	s.active = idx
	if idx == NoCue && !s.shown {
		return Change{Index: NoCue}, false
	}
	s.shown = idx != NoCue

	change := Change{Index: idx}
	if cue, ok := store.Cue(idx); ok {
		change.Text = cue.Text
	}
	return change, true
}

// Swap installs a new store. The next tick reports its result even if the
// index matches the one reported against the old store.
func (s *Synchronizer) Swap(store *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Store(store)
	s.active = unreported
}

// Retime replaces the offset while keeping the reported index, so a shift
// that leaves the same cue active stays silent.
func (s *Synchronizer) Retime(offsetMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Store(s.store.Load().WithOffset(offsetMs))
}

// Clear empties the store. It returns a clearing Change when a cue was on
// screen.
func (s *Synchronizer) Clear() (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Store(emptyStore)
	shown := s.shown
	s.active, s.shown = NoCue, false
	if !shown {
		return Change{Index: NoCue}, false
	}
	return Change{Index: NoCue}, true
}
