// ABOUTME: Single-producer multi-consumer boolean change notification
// ABOUTME: Backs the logged-in and login-page-visible session state flags

package session

import "sync"

// Signal holds a boolean value and notifies subscribers on change. The
// session manager is the only producer; the guard and UI consume it.
type Signal struct {
	mu    sync.Mutex
	value bool
	subs  map[int]chan bool
	next  int
}

// NewSignal creates a signal with the given initial value.
func NewSignal(initial bool) *Signal {
	return &Signal{
		value: initial,
		subs:  make(map[int]chan bool),
	}
}

// Value returns the current value.
func (s *Signal) Value() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set updates the value and notifies all subscribers. Publishing never
// blocks: a subscriber that has not drained its channel sees only the
// latest value.
func (s *Signal) Set(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.value == v {
		return
	}
	s.value = v

	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Replace the stale pending value with the latest one
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Subscribe registers a consumer. The returned cancel function must be
// called when the consumer is done; the channel is closed afterwards.
func (s *Signal) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan bool, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
