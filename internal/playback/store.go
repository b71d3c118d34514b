package playback

import (
	"sort"

	"github.com/mgpai22/hiyori/internal/subtitle"
)

// Store is an immutable cue snapshot plus the offset applied to the clock.
// Reloading or re-timing builds a new Store; readers holding the old one
// keep a consistent view.
type Store struct {
	cues     []subtitle.Cue
	offsetMs float64
}

var emptyStore = &Store{}

// NewStore copies cues, orders them by start and attaches offsetMs.
func NewStore(cues []subtitle.Cue, offsetMs float64) *Store {
	own := make([]subtitle.Cue, len(cues))
	copy(own, cues)
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].Start < own[j].Start
	})
	return &Store{cues: own, offsetMs: offsetMs}
}

// WithOffset returns a copy of the store with a different offset. The cue
// slice is shared since neither store mutates it.
func (s *Store) WithOffset(offsetMs float64) *Store {
	return &Store{cues: s.cues, offsetMs: offsetMs}
}

func (s *Store) Len() int {
	return len(s.cues)
}

func (s *Store) OffsetMs() float64 {
	return s.offsetMs
}

// Cue returns the cue at index i.
func (s *Store) Cue(i int) (subtitle.Cue, bool) {
	if i < 0 || i >= len(s.cues) {
		return subtitle.Cue{}, false
	}
	return s.cues[i], true
}

// Cues returns a copy of the ordered cues.
func (s *Store) Cues() []subtitle.Cue {
	out := make([]subtitle.Cue, len(s.cues))
	copy(out, s.cues)
	return out
}

// At resolves the playback clock (seconds) to a cue index, -1 for none.
func (s *Store) At(clock float64) int {
	return Lookup(s.cues, clock+s.offsetMs/1000)
}
