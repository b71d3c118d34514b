package playback

import (
	"context"
	"sync"
)

// Target is something playing media that subtitles can be attached to.
type Target struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// TargetEvent reports a target appearing or going away.
type TargetEvent struct {
	Target  Target
	Removed bool
}

// Discovery finds playback targets. Implementations call listeners from
// any goroutine.
type Discovery interface {
	ListTargets(ctx context.Context) ([]Target, error)
	OnChange(fn func(TargetEvent)) (cancel func())
}

// StaticDiscovery is a Discovery fed by explicit Add and Remove calls.
type StaticDiscovery struct {
	mu        sync.Mutex
	targets   []Target
	listeners map[int]func(TargetEvent)
	nextID    int
}

func NewStaticDiscovery(targets ...Target) *StaticDiscovery {
	return &StaticDiscovery{
		targets:   append([]Target(nil), targets...),
		listeners: make(map[int]func(TargetEvent)),
	}
}

func (d *StaticDiscovery) ListTargets(_ context.Context) ([]Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Target(nil), d.targets...), nil
}

func (d *StaticDiscovery) OnChange(fn func(TargetEvent)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Add announces t. Re-adding a known id is ignored.
func (d *StaticDiscovery) Add(t Target) {
	d.mu.Lock()
	for _, cur := range d.targets {
		if cur.ID == t.ID {
			d.mu.Unlock()
			return
		}
	}
	d.targets = append(d.targets, t)
	listeners := d.snapshotLocked()
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(TargetEvent{Target: t})
	}
}

// Remove withdraws the target with the given id.
func (d *StaticDiscovery) Remove(id string) {
	d.mu.Lock()
	idx := -1
	for i, cur := range d.targets {
		if cur.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	t := d.targets[idx]
	d.targets = append(d.targets[:idx], d.targets[idx+1:]...)
	listeners := d.snapshotLocked()
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(TargetEvent{Target: t, Removed: true})
	}
}

func (d *StaticDiscovery) snapshotLocked() []func(TargetEvent) {
	out := make([]func(TargetEvent), 0, len(d.listeners))
	for _, fn := range d.listeners {
		out = append(out, fn)
	}
	return out
}
