// Package lifecycle tracks the Idle → Running → Done lifecycle of a selector
// and fans state changes out to subscribers.
package lifecycle

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/meshbal/types"
)

// StateMachine manages selector state transitions.
//
// Implements a validated state machine with these states:
//   - Idle: Constructed, no run yet
//   - Running: Selection rounds in progress
//   - Done: Run finished or failed; terminal
//
// State reads, progress reads and subscriptions are safe from any goroutine.
type StateMachine struct {
	current atomic.Int32 // types.SelectorState
	mu      sync.RWMutex

	enteredAt time.Time
	round     int
	weight    float64

	logger  types.Logger
	metrics types.SelectorMetrics

	// Fan-out to subscribers
	subscribers      *xsync.Map[uint64, *stateSubscriber]
	nextSubscriberID atomic.Uint64
}

// NewStateMachine creates a new state machine in the Idle state.
//
// Parameters:
//   - logger: Logger for state transitions
//   - metrics: Metrics collector for transition durations
//
// Returns:
//   - *StateMachine: A new state machine instance starting in Idle state
func NewStateMachine(logger types.Logger, metrics types.SelectorMetrics) *StateMachine {
	sm := &StateMachine{
		enteredAt:   time.Now(),
		logger:      logger,
		metrics:     metrics,
		subscribers: xsync.NewMap[uint64, *stateSubscriber](),
	}
	sm.current.Store(int32(types.SelectorIdle))

	return sm
}

// State returns the current selector state.
func (sm *StateMachine) State() types.SelectorState {
	return types.SelectorState(sm.current.Load())
}

// Subscribe returns a channel that receives state change notifications.
//
// The returned channel is buffered (size 3), enough for the whole lifecycle,
// and receives the current state immediately upon subscription.
//
// Returns:
//   - <-chan types.SelectorState: Channel that receives state updates
//   - func(): Unsubscribe function to clean up resources
//
// Example:
//
//	ch, unsubscribe := sm.Subscribe()
//	defer unsubscribe()
//	for state := range ch {
//	    fmt.Printf("State changed to: %s\n", state)
//	}
func (sm *StateMachine) Subscribe() (<-chan types.SelectorState, func()) {
	id := sm.nextSubscriberID.Add(1)

	sub := &stateSubscriber{ch: make(chan types.SelectorState, 3)}
	sm.subscribers.Store(id, sub)

	sub.trySend(sm.State())

	unsubscribe := func() {
		if s, ok := sm.subscribers.LoadAndDelete(id); ok {
			s.close()
		}
	}

	return sub.ch, unsubscribe
}

// Start moves the machine from Idle to Running.
//
// Returns:
//   - error: types.ErrSelectorNotIdle if the machine is not Idle
func (sm *StateMachine) Start() error {
	if !sm.current.CompareAndSwap(int32(types.SelectorIdle), int32(types.SelectorRunning)) {
		return fmt.Errorf("%w: state is %s", types.ErrSelectorNotIdle, sm.State())
	}
	sm.afterTransition(types.SelectorIdle, types.SelectorRunning)

	return nil
}

// Finish moves the machine to Done. Finishing twice is a no-op.
//
// Returns:
//   - types.SelectorState: State the machine left
//   - bool: False if the machine was already Done
func (sm *StateMachine) Finish() (types.SelectorState, bool) {
	for {
		from := sm.State()
		if !from.CanTransitionTo(types.SelectorDone) {
			return from, false
		}
		if sm.current.CompareAndSwap(int32(from), int32(types.SelectorDone)) { //nolint:gosec // G115: bounded enum
			sm.afterTransition(from, types.SelectorDone)
			return from, true
		}
	}
}

// SetProgress records the round being executed and the weight committed so far.
func (sm *StateMachine) SetProgress(round int, weight float64) {
	sm.mu.Lock()
	sm.round = round
	sm.weight = weight
	sm.mu.Unlock()
}

// Progress returns the current round index and accumulated weight.
//
// Returns:
//   - int: Zero-based round index
//   - float64: Weight committed so far
//   - bool: True only while Running
func (sm *StateMachine) Progress() (int, float64, bool) {
	if sm.State() != types.SelectorRunning {
		return 0, 0, false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.round, sm.weight, true
}

// afterTransition records metrics and notifies all subscribers of a state change.
func (sm *StateMachine) afterTransition(from, to types.SelectorState) {
	now := time.Now()
	sm.mu.Lock()
	elapsed := now.Sub(sm.enteredAt)
	sm.enteredAt = now
	sm.mu.Unlock()

	sm.logger.Debug("selector state transition", "from", from, "to", to, "elapsed", elapsed)
	sm.metrics.RecordStateTransition(from, to, elapsed.Seconds())

	sm.subscribers.Range(func(_ uint64, sub *stateSubscriber) bool {
		sub.trySend(to)
		return true
	})
}
