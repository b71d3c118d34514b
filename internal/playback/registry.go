package playback

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/mgpai22/hiyori/internal/logging"
)

// Registry owns the live sessions keyed by target id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *logging.Logger
}

func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      logging.OrNop(log),
	}
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %q", id)
	}
	return s, nil
}

// Ensure returns the session for id, creating it when missing.
func (r *Registry) Ensure(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := NewSession(id, r.log)
	r.sessions[id] = s
	r.log.Infow("session created", "session", id)
	return s
}

// Remove closes and forgets the session for id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %q", id)
	}
	s.Close()
	r.log.Infow("session removed", "session", id)
	return nil
}

// List returns the sessions ordered by id.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Watch keeps one session per target reported by d until ctx ends.
func (r *Registry) Watch(ctx context.Context, d Discovery) error {
	cancel := d.OnChange(func(ev TargetEvent) {
		if ev.Removed {
			_ = r.Remove(ev.Target.ID)
			return
		}
		r.Ensure(ev.Target.ID)
	})

	targets, err := d.ListTargets(ctx)
	if err != nil {
		cancel()
		return errors.Wrap(err, "list targets")
	}
	for _, t := range targets {
		r.Ensure(t.ID)
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return nil
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
