package pagination

import "sync"

// ProximitySensor reports when the end-of-list sentinel comes into view
type ProximitySensor interface {
	// Observe calls fn every time the sentinel becomes visible until stop is called
	Observe(fn func()) (stop func())
}

// ManualSensor is a ProximitySensor fired explicitly, e.g. by a websocket message
type ManualSensor struct {
	mu        sync.Mutex
	observers map[int]func()
	nextID    int
}

// NewManualSensor creates a sensor with no observers
func NewManualSensor() *ManualSensor {
	return &ManualSensor{
		observers: make(map[int]func()),
	}
}

// Observe implements ProximitySensor
func (s *ManualSensor) Observe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Fire notifies every observer and returns how many were notified
func (s *ManualSensor) Fire() int {
	s.mu.Lock()
	observers := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
	return len(observers)
}
