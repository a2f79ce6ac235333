package appstate

import "sync"

var actionRecorder = func(action string) {}

// RegisterActionRecorder allows external packages to observe dispatched
// actions, e.g. for metrics.
func RegisterActionRecorder(recorder func(action string)) {
	if recorder == nil {
		actionRecorder = func(string) {}
		return
	}

	actionRecorder = recorder
}

// Store holds the single state value. The store is the only writer; the
// UI and any number of other readers observe snapshots or subscribe to
// changes.
type Store struct {
	mu      sync.RWMutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates a store holding the initial state.
func NewStore() *Store {
	return &Store{
		state: Initial(),
		subs:  make(map[int]func(State)),
	}
}

// Dispatch applies the action through Reduce and notifies subscribers
// with the resulting snapshot.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	next := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	actionRecorder(action.name())

	for _, fn := range subs {
		fn(next)
	}

	return next
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Subscribe registers fn to be called after every dispatch. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
