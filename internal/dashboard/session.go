package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/pagination"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/query"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrUnknownCategory is returned for a category outside the leaderboard enumeration
	ErrUnknownCategory = errors.New("unknown leaderboard category")
	// ErrEmptyCategory is returned for a category with no players once the leaderboards are loaded
	ErrEmptyCategory = errors.New("leaderboard category has no players")
	// ErrCardNotFound is returned for a player that is not on the visible board
	ErrCardNotFound = errors.New("player is not on the visible board")
)

// Fetcher is the API client surface a session needs
type Fetcher interface {
	query.LeaderboardFetcher
	query.PlayerFetcher
}

// Notifier receives every view change, typically the websocket hub
type Notifier interface {
	Broadcast(msgType string, payload interface{})
}

// Config tunes a session
type Config struct {
	PageSize        int
	Pacing          pagination.Pacing
	DefaultCategory models.Category
	// Now is the clock used for relative timestamps; nil means time.Now
	Now func() time.Time
}

type cardDetails struct {
	query       *query.PlayerDetails
	unsubscribe func()
}

// Session is one dashboard: the leaderboard tabs, the paged board for the
// active category, the search panel and the expandable cards.
type Session struct {
	ctx          context.Context
	fetcher      Fetcher
	notifier     Notifier
	logger       *zap.SugaredLogger
	now          func() time.Time
	leaderboards *query.Leaderboards
	search       *query.PlayerSearch
	board        *pagination.Accumulator[models.Player]
	sensor       *pagination.ManualSensor

	startOnce sync.Once

	// selectMu serializes category switches so category and board contents agree
	selectMu sync.Mutex

	mu       sync.Mutex
	category models.Category
	details  map[string]*cardDetails

	stops []func()
}

// NewSession wires the queries and the board. Fetches triggered by the session
// run on ctx, not on the context of whichever request triggered them.
func NewSession(ctx context.Context, fetcher Fetcher, store query.Store, notifier Notifier, cfg Config, logger *zap.SugaredLogger) *Session {
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = models.CategoryLiveRapid
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Session{
		ctx:          ctx,
		fetcher:      fetcher,
		notifier:     notifier,
		logger:       logger,
		now:          cfg.Now,
		leaderboards: query.NewLeaderboards(fetcher, logger),
		search:       query.NewPlayerSearch(fetcher, store, logger),
		board:        pagination.New[models.Player](nil, pagination.Config{PageSize: cfg.PageSize, Pacing: cfg.Pacing}),
		sensor:       pagination.NewManualSensor(),
		category:     cfg.DefaultCategory,
		details:      make(map[string]*cardDetails),
	}

	s.stops = append(s.stops,
		s.leaderboards.Subscribe(func(query.State[models.Leaderboards]) {
			s.notify(models.MessageTypeLeaderboards, s.LeaderboardsView())
		}),
		s.search.Subscribe(func(st query.State[models.FullPlayerData]) {
			s.notify(models.MessageTypeSearch, s.searchView(st))
		}),
		s.board.OnChange(func(pagination.Snapshot) {
			s.notify(models.MessageTypeBoard, s.BoardView())
		}),
		s.board.Watch(ctx, s.sensor),
	)
	return s
}

// Start loads the leaderboards and replays the persisted search concurrently,
// then shows the default category or, when that one is empty, the first
// available one. Later calls only return the current view.
func (s *Session) Start() LeaderboardsView {
	s.startOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			if st := s.leaderboards.Activate(s.ctx); st.Status == query.StatusSuccess {
				s.showInitialCategory()
			}
		}()

		go func() {
			defer wg.Done()
			s.search.Init(s.ctx)
		}()

		wg.Wait()
	})
	return s.LeaderboardsView()
}

func (s *Session) showInitialCategory() {
	s.mu.Lock()
	category := s.category
	s.mu.Unlock()

	if len(s.leaderboards.Players(category)) == 0 {
		available := s.leaderboards.AvailableCategories()
		if len(available) == 0 {
			s.logger.Warnw("every leaderboard category is empty")
			return
		}
		s.logger.Infow("default category is empty, falling back",
			"category", category, "fallback", available[0])
		category = available[0]
	}

	if err := s.SelectCategory(category); err != nil {
		s.logger.Warnw("failed to show initial category", "category", category, "err", err)
	}
}

// Sensor is the proximity sensor driving the board. Firing it requests the next page.
func (s *Session) Sensor() pagination.ProximitySensor {
	return s.sensor
}

// FireSentinel reports that the end-of-list sentinel came into view
func (s *Session) FireSentinel() {
	s.sensor.Fire()
}

// SelectCategory makes c the active tab and shows its first page. Cards of the
// previous category are discarded with their detail state. Once the leaderboards
// have loaded only categories with players can be selected.
func (s *Session) SelectCategory(c models.Category) error {
	if !c.IsValid() {
		return ErrUnknownCategory
	}
	if s.leaderboards.State().Status == query.StatusSuccess && len(s.leaderboards.Players(c)) == 0 {
		return ErrEmptyCategory
	}

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	s.mu.Lock()
	s.category = c
	old := s.details
	s.details = make(map[string]*cardDetails)
	s.mu.Unlock()

	for _, d := range old {
		d.unsubscribe()
	}

	s.board.Reset(s.leaderboards.Players(c))
	return nil
}

// LoadMore is the manual load-more trigger
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	return s.board.LoadMore(ctx)
}

// Search runs a player search and returns the settled view
func (s *Session) Search(username string) SearchView {
	return s.searchView(s.search.Search(s.ctx, username))
}

// SearchView returns the search panel
func (s *Session) SearchView() SearchView {
	return s.searchView(s.search.State())
}

func (s *Session) searchView(st query.State[models.FullPlayerData]) SearchView {
	v := SearchView{Status: st.Status, Error: st.Error}
	if st.Status == query.StatusSuccess && st.Data != nil {
		v.Player = newPlayerView(st.Data.Profile.Username, true, st, s.now())
	}
	return v
}

// ToggleDetails expands or collapses a visible card. The first expansion
// fetches the player and blocks until the fetch settles.
func (s *Session) ToggleDetails(username string) (*PlayerView, error) {
	player, ok := s.findVisible(username)
	if !ok {
		return nil, ErrCardNotFound
	}

	d := s.cardDetails(player.Username)
	d.Toggle(s.ctx)

	view := newPlayerView(d.Username(), d.Expanded(), d.State(), s.now())
	s.notify(models.MessageTypePlayer, view)
	return view, nil
}

// PlayerView returns a visible card's detail state
func (s *Session) PlayerView(username string) (*PlayerView, error) {
	player, ok := s.findVisible(username)
	if !ok {
		return nil, ErrCardNotFound
	}

	s.mu.Lock()
	d, ok := s.details[strings.ToLower(player.Username)]
	s.mu.Unlock()

	if !ok {
		return &PlayerView{Username: player.Username, Status: query.StatusIdle}, nil
	}
	return newPlayerView(d.query.Username(), d.query.Expanded(), d.query.State(), s.now()), nil
}

func (s *Session) cardDetails(username string) *query.PlayerDetails {
	key := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.details[key]; ok {
		return d.query
	}

	q := query.NewPlayerDetails(username, s.fetcher, s.logger)
	unsubscribe := q.Subscribe(func(st query.State[models.FullPlayerData]) {
		s.notify(models.MessageTypePlayer, newPlayerView(username, q.Expanded(), st, s.now()))
	})
	s.details[key] = &cardDetails{query: q, unsubscribe: unsubscribe}
	return q
}

func (s *Session) findVisible(username string) (models.Player, bool) {
	view := s.board.View()
	for _, list := range [][]models.Player{view.TopThree, view.Visible} {
		for _, p := range list {
			if strings.EqualFold(p.Username, username) {
				return p, true
			}
		}
	}
	return models.Player{}, false
}

// ActiveCategory returns the selected tab
func (s *Session) ActiveCategory() models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// LeaderboardsView returns the tab strip and totals
func (s *Session) LeaderboardsView() LeaderboardsView {
	st := s.leaderboards.State()
	v := LeaderboardsView{
		Status:         st.Status,
		Error:          st.Error,
		Categories:     []CategoryView{},
		TotalPlayers:   s.leaderboards.TotalPlayers(),
		ActiveCategory: s.ActiveCategory(),
	}
	for _, c := range s.leaderboards.AvailableCategories() {
		v.Categories = append(v.Categories, CategoryView{
			Category:    c,
			DisplayName: c.DisplayName(),
			Icon:        c.Icon(),
			Count:       len(s.leaderboards.Players(c)),
		})
	}
	return v
}

// BoardView returns the active category's podium, grid and paging state
func (s *Session) BoardView() BoardView {
	s.mu.Lock()
	category := s.category
	details := make(map[string]*query.PlayerDetails, len(s.details))
	for k, d := range s.details {
		details[k] = d.query
	}
	s.mu.Unlock()

	expanded := func(p models.Player) bool {
		d, ok := details[strings.ToLower(p.Username)]
		return ok && d.Expanded()
	}
	cards := func(players []models.Player) []PlayerCard {
		out := make([]PlayerCard, 0, len(players))
		for _, p := range players {
			out = append(out, newPlayerCard(p, expanded(p)))
		}
		return out
	}

	view := s.board.View()
	return BoardView{
		Category:    category,
		DisplayName: category.DisplayName(),
		Icon:        category.Icon(),
		TopThree:    cards(view.TopThree),
		Grid:        cards(view.Grid),
		Snapshot:    view.Snapshot,
	}
}

// Close detaches every listener and the proximity sensor
func (s *Session) Close() {
	s.mu.Lock()
	details := s.details
	s.details = make(map[string]*cardDetails)
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()

	for _, d := range details {
		d.unsubscribe()
	}
	for _, stop := range stops {
		stop()
	}
}

func (s *Session) notify(msgType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(msgType, payload)
}
