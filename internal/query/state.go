package query

import (
	"errors"
	"fmt"
	"sync"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/providers/chesscom"
)

// Status is the phase a container is in
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a snapshot of a container. Data is set only on success, Error only on error.
type State[T any] struct {
	Status Status `json:"status"`
	Data   *T     `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Listener is notified after every accepted transition
type Listener[T any] func(State[T])

// container holds one query's state. Every trigger takes a new sequence number and
// only the holder of the latest number may settle, so a slow response to an older
// trigger can never overwrite a newer one.
type container[T any] struct {
	mu        sync.Mutex
	state     State[T]
	seq       uint64
	listeners map[int]Listener[T]
	nextID    int
}

// State returns the current snapshot
func (c *container[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener and returns a func that removes it
func (c *container[T]) Subscribe(l Listener[T]) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listeners == nil {
		c.listeners = make(map[int]Listener[T])
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// begin moves to loading and returns the sequence number of the new request
func (c *container[T]) begin() uint64 {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = State[T]{Status: StatusLoading}
	snapshot, listeners := c.state, c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, snapshot)
	return seq
}

// current reports whether seq is still the latest request
func (c *container[T]) current(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

// succeed settles request seq with data. Returns false if seq is stale.
func (c *container[T]) succeed(seq uint64, data *T) bool {
	return c.settle(seq, State[T]{Status: StatusSuccess, Data: data})
}

// fail settles request seq with an error message. Returns false if seq is stale.
func (c *container[T]) fail(seq uint64, message string) bool {
	return c.settle(seq, State[T]{Status: StatusError, Error: message})
}

func (c *container[T]) settle(seq uint64, next State[T]) bool {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return false
	}
	c.state = next
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, next)
	return true
}

// snapshotListeners must be called with mu held
func (c *container[T]) snapshotListeners() []Listener[T] {
	out := make([]Listener[T], 0, len(c.listeners))
	for _, l := range c.listeners {
		out = append(out, l)
	}
	return out
}

func notify[T any](listeners []Listener[T], s State[T]) {
	for _, l := range listeners {
		l(s)
	}
}

const (
	MessagePlayerNotFound     = "Player not found"
	MessageSearchFailed       = "Failed to search player"
	MessageDetailsFailed      = "Failed to fetch player details"
	MessageLeaderboardsFailed = "Failed to fetch leaderboards"
	messagePlayerStatusFormat = "Failed to fetch player: %d"
	messageBoardsStatusFormat = "Failed to fetch leaderboards: %d"
)

// playerErrorMessage converts a player fetch failure into the text shown to the user
func playerErrorMessage(err error, fallback string) string {
	if errors.Is(err, chesscom.ErrPlayerNotFound) {
		return MessagePlayerNotFound
	}
	var statusErr *chesscom.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf(messagePlayerStatusFormat, statusErr.StatusCode)
	}
	return fallback
}

// leaderboardErrorMessage converts a leaderboard fetch failure into user-facing text
func leaderboardErrorMessage(err error) string {
	var statusErr *chesscom.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf(messageBoardsStatusFormat, statusErr.StatusCode)
	}
	return MessageLeaderboardsFailed
}
