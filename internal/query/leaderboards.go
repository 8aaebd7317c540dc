package query

import (
	"context"
	"sync"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"go.uber.org/zap"
)

// LeaderboardFetcher is the slice of the API client the leaderboard query needs
type LeaderboardFetcher interface {
	FetchLeaderboards(ctx context.Context) (models.Leaderboards, error)
}

// Leaderboards fetches every category once per session
type Leaderboards struct {
	container[models.Leaderboards]

	fetcher LeaderboardFetcher
	logger  *zap.SugaredLogger
	once    sync.Once
}

// NewLeaderboards creates an idle leaderboard query
func NewLeaderboards(fetcher LeaderboardFetcher, logger *zap.SugaredLogger) *Leaderboards {
	return &Leaderboards{
		container: container[models.Leaderboards]{state: State[models.Leaderboards]{Status: StatusIdle}},
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Activate fetches on the first call and is a no-op afterwards.
// There is no refresh; a new session is the only way to refetch.
func (q *Leaderboards) Activate(ctx context.Context) State[models.Leaderboards] {
	q.once.Do(func() {
		seq := q.begin()

		boards, err := q.fetcher.FetchLeaderboards(ctx)
		if err != nil {
			q.logger.Errorw("failed to fetch leaderboards", "err", err)
			q.fail(seq, leaderboardErrorMessage(err))
			return
		}

		q.logger.Infow("leaderboards loaded",
			"categories", len(boards.AvailableCategories()),
			"players", boards.TotalPlayers())
		q.succeed(seq, &boards)
	})
	return q.State()
}

// AvailableCategories lists the non-empty categories, empty until loaded
func (q *Leaderboards) AvailableCategories() []models.Category {
	boards := q.data()
	if boards == nil {
		return nil
	}
	return boards.AvailableCategories()
}

// Players returns one category's players, nil until loaded
func (q *Leaderboards) Players(c models.Category) []models.Player {
	boards := q.data()
	if boards == nil {
		return nil
	}
	return boards.Players(c)
}

// TotalPlayers sums entries across every category
func (q *Leaderboards) TotalPlayers() int {
	boards := q.data()
	if boards == nil {
		return 0
	}
	return boards.TotalPlayers()
}

func (q *Leaderboards) data() models.Leaderboards {
	s := q.State()
	if s.Status != StatusSuccess || s.Data == nil {
		return nil
	}
	return *s.Data
}
