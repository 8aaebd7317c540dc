package query

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/providers/chesscom"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var nopLogger = zap.NewNop().Sugar()

// mockFetcher implements LeaderboardFetcher and PlayerFetcher for testing
type mockFetcher struct {
	mu          sync.Mutex
	boards      models.Leaderboards
	boardsErr   error
	boardCalls  int
	players     map[string]*models.FullPlayerData
	playerErr   error
	playerCalls []string
	gate        map[string]chan struct{}
}

func (m *mockFetcher) FetchLeaderboards(ctx context.Context) (models.Leaderboards, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boardCalls++
	return m.boards, m.boardsErr
}

func (m *mockFetcher) FetchPlayer(ctx context.Context, username string) (*models.FullPlayerData, error) {
	m.mu.Lock()
	m.playerCalls = append(m.playerCalls, username)
	gate := m.gate[username]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playerErr != nil {
		return nil, m.playerErr
	}
	data, ok := m.players[username]
	if !ok {
		return nil, chesscom.ErrPlayerNotFound
	}
	return data, nil
}

func (m *mockFetcher) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.playerCalls...)
}

// memStore is a minimal Store for testing
type memStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

// gatedStore holds back the write of one value until release is closed
type gatedStore struct {
	memStore
	value   string
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Set(ctx context.Context, key, value string) error {
	if value == s.value {
		close(s.entered)
		<-s.release
	}
	return s.memStore.Set(ctx, key, value)
}

func fullPlayer(username string) *models.FullPlayerData {
	return &models.FullPlayerData{Profile: models.PlayerProfile{Username: username, Status: "premium"}}
}

func TestLeaderboards_ActivateOnce(t *testing.T) {
	fetcher := &mockFetcher{boards: models.Leaderboards{
		models.CategoryLiveRapid:    {{Username: "a", Rank: 1}, {Username: "b", Rank: 2}},
		models.CategoryDaily:        {{Username: "c", Rank: 1}},
		models.CategoryLiveBughouse: {},
	}}
	q := NewLeaderboards(fetcher, nopLogger)

	assert.Equal(t, StatusIdle, q.State().Status)
	assert.Nil(t, q.AvailableCategories())

	state := q.Activate(context.Background())
	require.Equal(t, StatusSuccess, state.Status)

	q.Activate(context.Background())
	assert.Equal(t, 1, fetcher.boardCalls)

	assert.Equal(t, []models.Category{models.CategoryDaily, models.CategoryLiveRapid}, q.AvailableCategories())
	assert.Len(t, q.Players(models.CategoryLiveRapid), 2)
	assert.Equal(t, 3, q.TotalPlayers())
}

func TestLeaderboards_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "status", err: &chesscom.StatusError{Resource: "leaderboards", StatusCode: 503}, want: "Failed to fetch leaderboards: 503"},
		{name: "transport", err: errors.New("dial tcp: connection refused"), want: "Failed to fetch leaderboards"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewLeaderboards(&mockFetcher{boardsErr: tt.err}, nopLogger)
			state := q.Activate(context.Background())

			assert.Equal(t, StatusError, state.Status)
			assert.Equal(t, tt.want, state.Error)
			assert.Nil(t, state.Data)
			assert.Zero(t, q.TotalPlayers())
		})
	}
}

func TestPlayerSearch_BlankInputIsIgnored(t *testing.T) {
	fetcher := &mockFetcher{}
	s := NewPlayerSearch(fetcher, &memStore{}, nopLogger)

	for _, input := range []string{"", "   ", "\t\n"} {
		state := s.Search(context.Background(), input)
		assert.Equal(t, StatusIdle, state.Status)
	}
	assert.Empty(t, fetcher.calls())
}

func TestPlayerSearch_SuccessPersistsLowercasedName(t *testing.T) {
	fetcher := &mockFetcher{players: map[string]*models.FullPlayerData{"hikaru": fullPlayer("Hikaru")}}
	store := &memStore{}
	s := NewPlayerSearch(fetcher, store, nopLogger)

	state := s.Search(context.Background(), "  Hikaru ")

	require.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, "Hikaru", state.Data.Profile.Username)
	assert.Equal(t, []string{"hikaru"}, fetcher.calls())
	assert.Equal(t, "hikaru", store.values[LastSearchedPlayerKey])
}

func TestPlayerSearch_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "not found", err: chesscom.ErrPlayerNotFound, want: "Player not found"},
		{name: "status", err: &chesscom.StatusError{Resource: "profile", StatusCode: 500}, want: "Failed to fetch player: 500"},
		{name: "wrapped status", err: errors.Join(errors.New("ctx"), &chesscom.StatusError{StatusCode: 429}), want: "Failed to fetch player: 429"},
		{name: "transport", err: errors.New("connection reset"), want: "Failed to search player"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			s := NewPlayerSearch(&mockFetcher{playerErr: tt.err}, store, nopLogger)

			state := s.Search(context.Background(), "someone")

			assert.Equal(t, StatusError, state.Status)
			assert.Equal(t, tt.want, state.Error)
			assert.Empty(t, store.values)
		})
	}
}

func TestPlayerSearch_PersistFailureKeepsSuccess(t *testing.T) {
	fetcher := &mockFetcher{players: map[string]*models.FullPlayerData{"magnus": fullPlayer("magnus")}}
	s := NewPlayerSearch(fetcher, &memStore{setErr: errors.New("redis down")}, nopLogger)

	state := s.Search(context.Background(), "magnus")
	assert.Equal(t, StatusSuccess, state.Status)
}

func TestPlayerSearch_InitReplaysPersistedSearch(t *testing.T) {
	fetcher := &mockFetcher{players: map[string]*models.FullPlayerData{"magnus": fullPlayer("MagnusCarlsen")}}
	store := &memStore{values: map[string]string{LastSearchedPlayerKey: "magnus"}}

	replayed := NewPlayerSearch(fetcher, store, nopLogger)
	replayed.Init(context.Background())
	replayed.Init(context.Background())

	typed := NewPlayerSearch(fetcher, &memStore{}, nopLogger)
	typed.Search(context.Background(), "magnus")

	assert.Equal(t, typed.State(), replayed.State())
	assert.Equal(t, []string{"magnus", "magnus"}, fetcher.calls())
}

func TestPlayerSearch_InitWithEmptyStore(t *testing.T) {
	fetcher := &mockFetcher{}
	s := NewPlayerSearch(fetcher, &memStore{}, nopLogger)

	state := s.Init(context.Background())
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, fetcher.calls())
}

func TestPlayerSearch_StaleResponseIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	fetcher := &mockFetcher{
		players: map[string]*models.FullPlayerData{
			"first":  fullPlayer("first"),
			"second": fullPlayer("second"),
		},
		gate: map[string]chan struct{}{"first": slow},
	}
	store := &memStore{}
	s := NewPlayerSearch(fetcher, store, nopLogger)

	// Wait for the first request to be in flight before superseding it
	started := make(chan struct{})
	unsubscribe := s.Subscribe(func(st State[models.FullPlayerData]) {
		if st.Status == StatusLoading {
			select {
			case <-started:
			default:
				close(started)
			}
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Search(context.Background(), "first")
	}()
	<-started

	state := s.Search(context.Background(), "second")
	require.Equal(t, StatusSuccess, state.Status)

	close(slow)
	<-done

	final := s.State()
	assert.Equal(t, StatusSuccess, final.Status)
	assert.Equal(t, "second", final.Data.Profile.Username)
	assert.Equal(t, "second", store.values[LastSearchedPlayerKey])
}

func TestPlayerSearch_PersistFollowsLatestResult(t *testing.T) {
	fetcher := &mockFetcher{players: map[string]*models.FullPlayerData{
		"first":  fullPlayer("first"),
		"second": fullPlayer("second"),
	}}
	store := &gatedStore{value: "first", entered: make(chan struct{}), release: make(chan struct{})}
	s := NewPlayerSearch(fetcher, store, nopLogger)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		s.Search(context.Background(), "first")
	}()
	// First search has settled and is writing to the store
	<-store.entered

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		s.Search(context.Background(), "second")
	}()
	require.Eventually(t, func() bool {
		st := s.State()
		return st.Status == StatusSuccess && st.Data.Profile.Username == "second"
	}, time.Second, time.Millisecond)

	close(store.release)
	<-firstDone
	<-secondDone

	v, ok, err := store.Get(context.Background(), LastSearchedPlayerKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestPlayerSearch_ListenersSeeTransitions(t *testing.T) {
	fetcher := &mockFetcher{players: map[string]*models.FullPlayerData{"hikaru": fullPlayer("hikaru")}}
	s := NewPlayerSearch(fetcher, &memStore{}, nopLogger)

	var seen []Status
	s.Subscribe(func(st State[models.FullPlayerData]) {
		seen = append(seen, st.Status)
	})

	s.Search(context.Background(), "hikaru")
	assert.Equal(t, []Status{StatusLoading, StatusSuccess}, seen)
}

func TestPlayerDetails_FetchesOnFirstExpandOnly(t *testing.T) {
	fetcher := &mockFetcher{players: map[string]*models.FullPlayerData{"hikaru": fullPlayer("hikaru")}}
	d := NewPlayerDetails("hikaru", fetcher, nopLogger)

	assert.False(t, d.Expanded())
	assert.True(t, d.Toggle(context.Background()))
	assert.Equal(t, StatusSuccess, d.State().Status)

	assert.False(t, d.Toggle(context.Background()))
	assert.True(t, d.Toggle(context.Background()))
	assert.False(t, d.Toggle(context.Background()))

	assert.Equal(t, []string{"hikaru"}, fetcher.calls())
	assert.Equal(t, "hikaru", d.Username())
}

func TestPlayerDetails_RetriesAfterError(t *testing.T) {
	fetcher := &mockFetcher{playerErr: &chesscom.StatusError{StatusCode: http.StatusBadGateway}}
	d := NewPlayerDetails("hikaru", fetcher, nopLogger)

	d.Toggle(context.Background())
	state := d.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "Failed to fetch player: 502", state.Error)

	fetcher.mu.Lock()
	fetcher.playerErr = nil
	fetcher.players = map[string]*models.FullPlayerData{"hikaru": fullPlayer("hikaru")}
	fetcher.mu.Unlock()

	d.Toggle(context.Background())
	d.Toggle(context.Background())
	assert.Equal(t, StatusSuccess, d.State().Status)
	assert.Len(t, fetcher.calls(), 2)
}

func TestPlayerDetails_TransportFailureMessage(t *testing.T) {
	d := NewPlayerDetails("hikaru", &mockFetcher{playerErr: errors.New("eof")}, nopLogger)

	d.Toggle(context.Background())
	assert.Equal(t, "Failed to fetch player details", d.State().Error)
}
