package playback

import "github.com/cockroachdb/errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

// reasons carried by a failed LoadResult
const (
	ReasonNoSession  = "no_session"
	ReasonBadPayload = "bad_payload"
	ReasonClosed     = "closed"
)

// LoadResult is the reply to a load, retime or unload request.
type LoadResult struct {
	OK     bool   `json:"ok"`
	Count  int    `json:"count,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ResultFor maps an error to a failed LoadResult.
func ResultFor(err error) LoadResult {
	switch {
	case err == nil:
		return LoadResult{OK: true}
	case errors.Is(err, ErrSessionNotFound):
		return LoadResult{Reason: ReasonNoSession}
	case errors.Is(err, ErrSessionClosed):
		return LoadResult{Reason: ReasonClosed}
	default:
		return LoadResult{Reason: ReasonBadPayload}
	}
}
