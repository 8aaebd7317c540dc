package pagination

import (
	"context"
	"sync"
	"time"
)

// DefaultPageSize is the number of entries revealed per page
const DefaultPageSize = 20

// podiumSize is how many leading entries are always shown regardless of paging
const podiumSize = 3

// Config controls page size and reveal pacing
type Config struct {
	PageSize int
	Pacing   Pacing
}

// Snapshot is the paging state at one instant
type Snapshot struct {
	Page         int  `json:"page"`
	VisibleCount int  `json:"visible_count"`
	Total        int  `json:"total"`
	LoadingMore  bool `json:"loading_more"`
	HasMore      bool `json:"has_more"`
	EndOfList    bool `json:"end_of_list"`
}

// Accumulator reveals an ordered sequence one page at a time
type Accumulator[T any] struct {
	mu          sync.Mutex
	items       []T
	pageSize    int
	pacing      Pacing
	page        int
	visible     int
	loadingMore bool

	// generation changes on every Reset so a pending LoadMore can tell it is stale
	generation uint64

	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates an accumulator over items showing the first page
func New[T any](items []T, cfg Config) *Accumulator[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Pacing == nil {
		cfg.Pacing = FixedPacing(DefaultDelay)
	}

	a := &Accumulator[T]{
		pageSize:  cfg.PageSize,
		pacing:    cfg.Pacing,
		listeners: make(map[int]func(Snapshot)),
	}
	a.resetLocked(items)
	return a
}

// Reset starts over at page 1 with a new sequence. Any LoadMore still waiting
// on its delay is discarded.
func (a *Accumulator[T]) Reset(items []T) {
	a.mu.Lock()
	a.resetLocked(items)
	snap, listeners := a.snapshotLocked(), a.listenersLocked()
	a.mu.Unlock()

	notify(listeners, snap)
}

func (a *Accumulator[T]) resetLocked(items []T) {
	a.items = items
	a.page = 1
	a.visible = min(a.pageSize, len(items))
	a.loadingMore = false
	a.generation++
}

// LoadMore reveals the next page after the pacing delay. It returns false without
// waiting when a load is already pending or everything is visible, and false after
// waiting when a Reset happened meanwhile.
func (a *Accumulator[T]) LoadMore(ctx context.Context) (bool, error) {
	a.mu.Lock()
	if a.loadingMore || a.visible >= len(a.items) {
		a.mu.Unlock()
		return false, nil
	}
	a.loadingMore = true
	gen := a.generation
	delay := a.pacing(a.page)
	snap, listeners := a.snapshotLocked(), a.listenersLocked()
	a.mu.Unlock()

	notify(listeners, snap)

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.abort(gen)
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return false, nil
	}
	a.page++
	a.visible = min(a.page*a.pageSize, len(a.items))
	a.loadingMore = false
	snap, listeners = a.snapshotLocked(), a.listenersLocked()
	a.mu.Unlock()

	notify(listeners, snap)
	return true, nil
}

// abort clears a pending load that was cancelled before its delay elapsed
func (a *Accumulator[T]) abort(gen uint64) {
	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return
	}
	a.loadingMore = false
	snap, listeners := a.snapshotLocked(), a.listenersLocked()
	a.mu.Unlock()

	notify(listeners, snap)
}

// Watch triggers LoadMore whenever sensor fires. LoadMore runs on its own
// goroutine so the sensor is never blocked by the pacing delay.
func (a *Accumulator[T]) Watch(ctx context.Context, sensor ProximitySensor) (stop func()) {
	return sensor.Observe(func() {
		go a.LoadMore(ctx)
	})
}

// Snapshot returns the current paging state
func (a *Accumulator[T]) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// View is a consistent read of the podium, grid and paging state
type View[T any] struct {
	TopThree []T
	Grid     []T
	Visible  []T
	Snapshot Snapshot
}

// View returns the podium, grid, visible prefix and snapshot under one lock
func (a *Accumulator[T]) View() View[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return View[T]{
		TopThree: a.topThreeLocked(),
		Grid:     a.gridLocked(),
		Visible:  a.visibleLocked(),
		Snapshot: a.snapshotLocked(),
	}
}

// Visible returns the revealed prefix
func (a *Accumulator[T]) Visible() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visibleLocked()
}

// TopThree returns the first three entries of the full sequence. They are shown
// before any paging happens.
func (a *Accumulator[T]) TopThree() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.topThreeLocked()
}

// Grid returns the revealed entries after the top three
func (a *Accumulator[T]) Grid() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gridLocked()
}

func (a *Accumulator[T]) visibleLocked() []T {
	return append([]T(nil), a.items[:a.visible]...)
}

func (a *Accumulator[T]) topThreeLocked() []T {
	return append([]T(nil), a.items[:min(podiumSize, len(a.items))]...)
}

func (a *Accumulator[T]) gridLocked() []T {
	if a.visible <= podiumSize {
		return nil
	}
	return append([]T(nil), a.items[podiumSize:a.visible]...)
}

// OnChange registers fn to receive every new Snapshot
func (a *Accumulator[T]) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	a.listeners[id] = fn

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *Accumulator[T]) snapshotLocked() Snapshot {
	total := len(a.items)
	return Snapshot{
		Page:         a.page,
		VisibleCount: a.visible,
		Total:        total,
		LoadingMore:  a.loadingMore,
		HasMore:      a.visible < total,
		EndOfList:    a.visible >= total && total > a.pageSize,
	}
}

func (a *Accumulator[T]) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(a.listeners))
	for _, fn := range a.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
