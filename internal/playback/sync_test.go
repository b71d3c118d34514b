package playback

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/hiyori/internal/subtitle"
)

var testCues = []subtitle.Cue{
	{Start: 1, End: 2, Text: "one"},
	{Start: 3, End: 4, Text: "two"},
	{Start: 5, End: 6, Text: "three"},
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"before first", 0.5, NoCue},
		{"start inclusive", 1, 0},
		{"inside", 1.5, 0},
		{"end inclusive", 2, 0},
		{"gap", 2.5, NoCue},
		{"middle", 3.2, 1},
		{"last", 6, 2},
		{"after last", 6.001, NoCue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(testCues, tt.t))
		})
	}
}

func TestLookupEmpty(t *testing.T) {
	assert.Equal(t, NoCue, Lookup(nil, 1))
}

func TestLookupNaNClock(t *testing.T) {
	assert.Equal(t, NoCue, Lookup(testCues, math.NaN()))
	assert.Equal(t, NoCue, NewStore(testCues, 500).At(math.NaN()))
}

func TestLookupOverlapReturnsAContainingCue(t *testing.T) {
	cues := []subtitle.Cue{
		{Start: 0, End: 10, Text: "long"},
		{Start: 2, End: 3, Text: "short"},
		{Start: 4, End: 12, Text: "late"},
	}
	for _, at := range []float64{2.5, 4.5, 9, 11} {
		idx := Lookup(cues, at)
		require.NotEqual(t, NoCue, idx, "t=%v", at)
		assert.True(t, cues[idx].Contains(at), "cue %d does not contain %v", idx, at)
	}
}

func TestStoreAppliesOffset(t *testing.T) {
	store := NewStore(testCues, 500)
	assert.Equal(t, 0, store.At(1.0), "1.0s + 0.5s lands in the first cue")
	assert.Equal(t, NoCue, store.At(2.0))

	shifted := store.WithOffset(-1000)
	assert.Equal(t, 1, shifted.At(4.5))
	assert.Equal(t, float64(500), store.OffsetMs(), "original store unchanged")
}

func TestNewStoreSortsAndCopies(t *testing.T) {
	cues := []subtitle.Cue{testCues[2], testCues[0], testCues[1]}
	store := NewStore(cues, 0)

	cues[0].Text = "mutated"
	got := store.Cues()
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "three", got[2].Text)
}

func TestSynchronizerEmitsOnlyOnChange(t *testing.T) {
	s := NewSynchronizer(NewStore(testCues, 0))

	change, ok := s.Tick(1.5)
	require.True(t, ok)
	assert.Equal(t, Change{Index: 0, Text: "one"}, change)

	_, ok = s.Tick(1.5)
	assert.False(t, ok, "repeated tick must be silent")
	_, ok = s.Tick(1.9)
	assert.False(t, ok, "same cue must be silent")

	change, ok = s.Tick(2.5)
	require.True(t, ok)
	assert.True(t, change.Cleared())

	_, ok = s.Tick(2.7)
	assert.False(t, ok)
}

func TestSynchronizerSilentTickIsNeverCueZero(t *testing.T) {
	s := NewSynchronizer(NewStore(testCues, 0))

	change, ok := s.Tick(0.5)
	assert.False(t, ok)
	assert.Equal(t, NoCue, change.Index)

	_, ok = s.Tick(1.5)
	require.True(t, ok)

	change, ok = s.Tick(1.6)
	assert.False(t, ok)
	assert.Equal(t, NoCue, change.Index)
	assert.True(t, change.Cleared())

	change, ok = s.Tick(math.NaN())
	require.True(t, ok, "a NaN clock clears the shown cue")
	assert.True(t, change.Cleared())
}

func TestSynchronizerGapWithNothingShownIsSilent(t *testing.T) {
	s := NewSynchronizer(NewStore(testCues, 0))
	_, ok := s.Tick(0.2)
	assert.False(t, ok)
	assert.Equal(t, NoCue, s.Active())
}

func TestSynchronizerSwapReannounces(t *testing.T) {
	s := NewSynchronizer(NewStore(testCues, 0))
	_, ok := s.Tick(1.5)
	require.True(t, ok)

	s.Swap(NewStore([]subtitle.Cue{{Start: 1, End: 2, Text: "uno"}}, 0))

	change, ok := s.Tick(1.5)
	require.True(t, ok, "same index after reload must be reported")
	assert.Equal(t, "uno", change.Text)
}

func TestSynchronizerRetimeKeepsActive(t *testing.T) {
	s := NewSynchronizer(NewStore(testCues, 0))
	_, ok := s.Tick(1.5)
	require.True(t, ok)

	s.Retime(200)
	_, ok = s.Tick(1.5)
	assert.False(t, ok, "still inside the same cue")

	s.Retime(2000)
	change, ok := s.Tick(1.5)
	require.True(t, ok)
	assert.Equal(t, 1, change.Index)
}

func TestSynchronizerClear(t *testing.T) {
	s := NewSynchronizer(NewStore(testCues, 0))
	_, ok := s.Clear()
	assert.False(t, ok, "nothing shown, nothing to clear")

	s = NewSynchronizer(NewStore(testCues, 0))
	s.Tick(3.5)
	change, ok := s.Clear()
	require.True(t, ok)
	assert.True(t, change.Cleared())
	assert.Equal(t, 0, s.Store().Len())
}

func TestSynchronizerConcurrentSwap(t *testing.T) {
	a := NewStore([]subtitle.Cue{{Start: 0, End: 100, Text: "a"}}, 0)
	b := NewStore([]subtitle.Cue{{Start: 0, End: 100, Text: "b"}}, 0)
	s := NewSynchronizer(a)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				if (i+j)%7 == 0 {
					if j%2 == 0 {
						s.Swap(a)
					} else {
						s.Swap(b)
					}
				}
				if change, ok := s.Tick(float64(j % 100)); ok {
					assert.Contains(t, []string{"a", "b"}, change.Text)
				}
			}
		}()
	}
	wg.Wait()
}
