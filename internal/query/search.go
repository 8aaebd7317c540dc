package query

import (
	"context"
	"strings"
	"sync"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"go.uber.org/zap"
)

// LastSearchedPlayerKey is the store slot holding the last successful search
const LastSearchedPlayerKey = "lastSearchedPlayer"

// PlayerFetcher is the slice of the API client the player queries need
type PlayerFetcher interface {
	FetchPlayer(ctx context.Context, username string) (*models.FullPlayerData, error)
}

// Store is a durable key-value slot
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// PlayerSearch looks up one player at a time and remembers the last hit
type PlayerSearch struct {
	container[models.FullPlayerData]

	fetcher  PlayerFetcher
	store    Store
	logger   *zap.SugaredLogger
	initOnce sync.Once

	// persistMu orders writes so the stored name follows the latest result
	persistMu sync.Mutex
}

// NewPlayerSearch creates an idle search query backed by store
func NewPlayerSearch(fetcher PlayerFetcher, store Store, logger *zap.SugaredLogger) *PlayerSearch {
	return &PlayerSearch{
		container: container[models.FullPlayerData]{state: State[models.FullPlayerData]{Status: StatusIdle}},
		fetcher:   fetcher,
		store:     store,
		logger:    logger,
	}
}

// Init replays the persisted search, at most once per PlayerSearch
func (s *PlayerSearch) Init(ctx context.Context) State[models.FullPlayerData] {
	s.initOnce.Do(func() {
		last, ok, err := s.store.Get(ctx, LastSearchedPlayerKey)
		if err != nil {
			s.logger.Warnw("failed to read last searched player", "err", err)
			return
		}
		if !ok || strings.TrimSpace(last) == "" {
			return
		}

		s.logger.Infow("replaying last search", "username", last)
		s.Search(ctx, last)
	})
	return s.State()
}

// Search fetches profile and stats for username. Blank input is ignored.
func (s *PlayerSearch) Search(ctx context.Context, username string) State[models.FullPlayerData] {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return s.State()
	}

	seq := s.begin()

	data, err := s.fetcher.FetchPlayer(ctx, username)
	if err != nil {
		s.logger.Warnw("player search failed", "username", username, "err", err)
		s.fail(seq, playerErrorMessage(err, MessageSearchFailed))
		return s.State()
	}

	// A superseded result is dropped, so it must not be persisted either
	if !s.succeed(seq, data) {
		s.logger.Debugw("discarded stale search result", "username", username)
		return s.State()
	}

	s.persist(ctx, seq, username)
	return s.State()
}

// persist stores username unless a newer search started after seq
func (s *PlayerSearch) persist(ctx context.Context, seq uint64, username string) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if !s.current(seq) {
		s.logger.Debugw("skipped persisting superseded search", "username", username)
		return
	}
	if err := s.store.Set(ctx, LastSearchedPlayerKey, username); err != nil {
		s.logger.Warnw("failed to persist last searched player", "username", username, "err", err)
	}
}
