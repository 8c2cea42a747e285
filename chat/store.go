package chat

import "sync"

// Store serializes all state transitions and fans snapshots out to
// subscribers. Each subscriber channel holds one pending snapshot; a slow
// reader only ever sees the latest state.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]chan State
	next  int

	// closed freezes the state; later dispatches are ignored.
	closed bool
}

// NewStore returns a store holding the zero State.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan State)}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state, notifies subscribers when the
// state changed, and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}
	prev := s.state
	s.state = Reduce(prev, a)
	if !sameState(prev, s.state) {
		for _, ch := range s.subs {
			publish(ch, s.state)
		}
	}
	return s.state
}

// Close freezes the store. Subscribers stay registered and keep the last
// snapshot; their unsubscribe funcs still close their channels.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Subscribe registers a listener. The current state is delivered first. The
// returned func unregisters and closes the channel; it is safe to call twice.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan State, 1)
	ch <- s.state
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Subscribers returns the number of registered listeners.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func publish(ch chan State, st State) {
	select {
	case ch <- st:
	default:
		// drop the stale pending snapshot
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func sameState(a, b State) bool {
	if a.VideoID != b.VideoID || a.APIKey != b.APIKey || a.ChatID != b.ChatID ||
		a.Loading != b.Loading || a.Error != b.Error || len(a.Messages) != len(b.Messages) {
		return false
	}
	if len(a.Messages) == 0 {
		return true
	}
	return &a.Messages[0] == &b.Messages[0]
}
