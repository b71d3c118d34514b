package playback

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryEnsureGetRemove(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Get("missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	a := r.Ensure("a")
	assert.Same(t, a, r.Ensure("a"))
	r.Ensure("b")

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	ids := []string{}
	for _, s := range r.List() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, r.Remove("a"))
	<-a.Done()
	assert.True(t, errors.Is(r.Remove("a"), ErrSessionNotFound))
}

func TestRegistryWatch(t *testing.T) {
	d := NewStaticDiscovery(Target{ID: "first"})
	r := NewRegistry(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx, d))

	_, err := r.Get("first")
	require.NoError(t, err)

	d.Add(Target{ID: "second"})
	_, err = r.Get("second")
	require.NoError(t, err)

	d.Remove("first")
	_, err = r.Get("first")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRegistryWatchStopsAfterCancel(t *testing.T) {
	d := NewStaticDiscovery()
	r := NewRegistry(nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Watch(ctx, d))
	cancel()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.listeners) == 0
	}, 2*time.Second, 5*time.Millisecond)

	d.Add(Target{ID: "late"})
	assert.Empty(t, r.List())
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Ensure("a")
	r.Close()
	<-s.Done()
	assert.Empty(t, r.List())
}

func TestResultFor(t *testing.T) {
	assert.Equal(t, LoadResult{OK: true}, ResultFor(nil))
	assert.Equal(t, ReasonNoSession, ResultFor(errors.Wrap(ErrSessionNotFound, "x")).Reason)
	assert.Equal(t, ReasonClosed, ResultFor(ErrSessionClosed).Reason)
	assert.Equal(t, ReasonBadPayload, ResultFor(errors.New("bad")).Reason)
}
