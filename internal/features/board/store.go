package board

import (
	"sync"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"
)

// Listener observes every applied intent together with the resulting state.
type Listener func(intent Intent, next State)

// Store is the single authoritative State of a session. Dispatch is the
// only way to change it.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
	log       *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		state:     InitialState(),
		listeners: make(map[int]Listener),
		log:       log,
	}
}

// Dispatch applies intent and notifies listeners synchronously, outside the
// store lock, so a listener may read or dispatch again.
func (s *Store) Dispatch(intent Intent) {
	s.mu.Lock()
	s.state = Reduce(s.state, intent)
	next := s.state
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(intent, s.clone(next))
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	current := s.state
	s.mu.RUnlock()
	return s.clone(current)
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) clone(st State) State {
	var out State
	if err := deepcopy.Copy(&out, st); err != nil {
		s.log.Warn("State copy failed, returning shared view", zap.Error(err))
		return st
	}
	return out
}
