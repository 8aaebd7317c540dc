package query

import (
	"context"
	"sync"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"go.uber.org/zap"
)

// PlayerDetails backs one leaderboard card. The first expansion fetches the
// player; a successful result is kept for the card's lifetime.
type PlayerDetails struct {
	container[models.FullPlayerData]

	username string
	fetcher  PlayerFetcher
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	expanded bool
	fetching bool
}

// NewPlayerDetails creates a collapsed, idle card query
func NewPlayerDetails(username string, fetcher PlayerFetcher, logger *zap.SugaredLogger) *PlayerDetails {
	return &PlayerDetails{
		container: container[models.FullPlayerData]{state: State[models.FullPlayerData]{Status: StatusIdle}},
		username:  username,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Username returns the player this card belongs to
func (d *PlayerDetails) Username() string {
	return d.username
}

// Expanded reports whether the detail view is open
func (d *PlayerDetails) Expanded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expanded
}

// Toggle opens or closes the detail view. Opening a card with no data and no
// fetch in flight fetches the player and blocks until it settles.
func (d *PlayerDetails) Toggle(ctx context.Context) bool {
	d.mu.Lock()
	d.expanded = !d.expanded
	expanded := d.expanded

	fetch := expanded && !d.fetching && d.State().Status != StatusSuccess
	if fetch {
		d.fetching = true
	}
	d.mu.Unlock()

	if fetch {
		d.load(ctx)
	}
	return expanded
}

func (d *PlayerDetails) load(ctx context.Context) {
	defer func() {
		d.mu.Lock()
		d.fetching = false
		d.mu.Unlock()
	}()

	seq := d.begin()

	data, err := d.fetcher.FetchPlayer(ctx, d.username)
	if err != nil {
		d.logger.Warnw("failed to fetch player details", "username", d.username, "err", err)
		d.fail(seq, playerErrorMessage(err, MessageDetailsFailed))
		return
	}
	d.succeed(seq, data)
}
