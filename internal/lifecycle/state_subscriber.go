package lifecycle

import (
	"sync"

	"github.com/arloliu/meshbal/types"
)

// stateSubscriber is a helper for managing state change subscriptions.
type stateSubscriber struct {
	ch     chan types.SelectorState
	mu     sync.Mutex
	closed bool
}

// trySend sends a state update to the subscriber's channel without blocking.
func (s *stateSubscriber) trySend(state types.SelectorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- state:
	default:
		// Subscriber is slow; it will see the next update.
	}
}

// close safely closes the subscriber's channel.
func (s *stateSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
