package playback

const changeBufferSize = 16

// Subscription delivers active-cue changes for one session.
type Subscription struct {
	Changed <-chan Change
	Done    <-chan struct{}

	changeCh chan Change
	doneCh   chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		changeCh: make(chan Change, changeBufferSize),
		doneCh:   make(chan struct{}),
	}
	s.Changed = s.changeCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// sendChange never blocks. When the buffer is full the oldest change is
// dropped, so a slow reader still ends on the latest cue.
func (s *Subscription) sendChange(c Change) {
	for {
		select {
		case s.changeCh <- c:
			return
		default:
		}
		select {
		case <-s.changeCh:
		default:
		}
	}
}
