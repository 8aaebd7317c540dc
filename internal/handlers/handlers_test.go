package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/pagination"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/providers/chesscom"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/query"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/storage"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockFetcher implements dashboard.Fetcher for testing
type mockFetcher struct {
	boards  models.Leaderboards
	players map[string]*models.FullPlayerData
}

func (m *mockFetcher) FetchLeaderboards(ctx context.Context) (models.Leaderboards, error) {
	return m.boards, nil
}

func (m *mockFetcher) FetchPlayer(ctx context.Context, username string) (*models.FullPlayerData, error) {
	if p, ok := m.players[username]; ok {
		return p, nil
	}
	return nil, &chesscom.StatusError{Resource: "profile", StatusCode: http.StatusInternalServerError}
}

type testServer struct {
	router http.Handler
	hub    *hub.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	rapid := make([]models.Player, 45)
	for i := range rapid {
		rapid[i] = models.Player{Username: fmt.Sprintf("player%d", i+1), Rank: i + 1, Score: 2900 - i}
	}
	fetcher := &mockFetcher{
		boards: models.Leaderboards{
			models.CategoryLiveRapid: rapid,
			models.CategoryDaily:     rapid[:5],
			models.CategoryBattle:    {},
		},
		players: map[string]*models.FullPlayerData{
			"hikaru":  {Profile: models.PlayerProfile{Username: "Hikaru"}},
			"player1": {Profile: models.PlayerProfile{Username: "player1"}},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := zap.NewNop().Sugar()
	h := hub.NewHub(logger)
	go h.Run(ctx)

	session := dashboard.NewSession(ctx, fetcher, storage.NewMemoryStore(), h, dashboard.Config{
		PageSize: 20,
		Pacing:   pagination.NoPacing,
	}, logger)
	t.Cleanup(session.Close)
	session.Start()

	return &testServer{
		router: NewRouter(NewHandler(ctx, session, h, logger), []string{"http://localhost:3000"}, logger),
		hub:    h,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "success", health["leaderboards"])

	rec = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "visible_count")
}

func TestGetLeaderboards(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/leaderboards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	view := decode[dashboard.LeaderboardsView](t, rec)
	assert.Equal(t, query.StatusSuccess, view.Status)
	assert.Equal(t, 50, view.TotalPlayers)
	assert.Equal(t, models.CategoryLiveRapid, view.ActiveCategory)
	require.Len(t, view.Categories, 2)
	assert.Equal(t, models.CategoryDaily, view.Categories[0].Category)
}

func TestBoardPaging(t *testing.T) {
	s := newTestServer(t)

	board := decode[dashboard.BoardView](t, s.do(t, http.MethodGet, "/api/v1/board", ""))
	assert.Equal(t, 20, board.VisibleCount)
	assert.Len(t, board.TopThree, 3)
	assert.Len(t, board.Grid, 17)

	steps := []struct {
		wantLoaded  bool
		wantVisible int
	}{
		{wantLoaded: true, wantVisible: 40},
		{wantLoaded: true, wantVisible: 45},
		{wantLoaded: false, wantVisible: 45},
	}
	for _, step := range steps {
		rec := s.do(t, http.MethodPost, "/api/v1/board/more", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Loaded bool                `json:"loaded"`
			Board  dashboard.BoardView `json:"board"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, step.wantLoaded, resp.Loaded)
		assert.Equal(t, step.wantVisible, resp.Board.VisibleCount)
	}

	board = decode[dashboard.BoardView](t, s.do(t, http.MethodGet, "/api/v1/board", ""))
	assert.True(t, board.EndOfList)
}

func TestSelectCategory(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/board/category", `{"category":"daily"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[dashboard.BoardView](t, rec)
	assert.Equal(t, models.CategoryDaily, board.Category)
	assert.Equal(t, "Daily Chess", board.DisplayName)
	assert.Equal(t, 5, board.Total)

	rec = s.do(t, http.MethodPut, "/api/v1/board/category", `{"category":"correspondence"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, http.StatusBadRequest, errResp.Code)
	assert.Contains(t, errResp.Message, "correspondence")

	rec = s.do(t, http.MethodPut, "/api/v1/board/category", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectCategory_EmptyCategoryRejected(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{"category":"battle"}`, `{"category":"live_blitz"}`} {
		rec := s.do(t, http.MethodPut, "/api/v1/board/category", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		errResp := decode[models.ErrorResponse](t, rec)
		assert.Contains(t, errResp.Message, "no players")
	}

	board := decode[dashboard.BoardView](t, s.do(t, http.MethodGet, "/api/v1/board", ""))
	assert.Equal(t, models.CategoryLiveRapid, board.Category)
	assert.Equal(t, 45, board.Total)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	view := decode[dashboard.SearchView](t, s.do(t, http.MethodGet, "/api/v1/search", ""))
	assert.Equal(t, query.StatusIdle, view.Status)

	rec := s.do(t, http.MethodPost, "/api/v1/search", `{"username":"  Hikaru "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[dashboard.SearchView](t, rec)
	assert.Equal(t, query.StatusSuccess, view.Status)
	assert.Equal(t, "Hikaru", view.Player.Username)

	view = decode[dashboard.SearchView](t, s.do(t, http.MethodPost, "/api/v1/search", `{"username":"ghost"}`))
	assert.Equal(t, query.StatusError, view.Status)
	assert.Equal(t, "Failed to fetch player: 500", view.Error)

	// Blank input leaves the previous state alone
	view = decode[dashboard.SearchView](t, s.do(t, http.MethodPost, "/api/v1/search", `{"username":"  "}`))
	assert.Equal(t, query.StatusError, view.Status)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/search", "nope").Code)
}

func TestPlayerCards(t *testing.T) {
	s := newTestServer(t)

	view := decode[dashboard.PlayerView](t, s.do(t, http.MethodGet, "/api/v1/players/player1", ""))
	assert.Equal(t, query.StatusIdle, view.Status)
	assert.False(t, view.Expanded)

	rec := s.do(t, http.MethodPost, "/api/v1/players/player1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[dashboard.PlayerView](t, rec)
	assert.True(t, view.Expanded)
	assert.Equal(t, query.StatusSuccess, view.Status)

	view = decode[dashboard.PlayerView](t, s.do(t, http.MethodPost, "/api/v1/players/player2/toggle", ""))
	assert.Equal(t, query.StatusError, view.Status)
	assert.Equal(t, "Failed to fetch player: 500", view.Error)

	rec = s.do(t, http.MethodPost, "/api/v1/players/player44/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/players/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/board/more", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_SnapshotAndSentinel(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() models.ServerMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg models.ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// Initial snapshot
	assert.Equal(t, models.MessageTypeLeaderboards, read().Type)
	assert.Equal(t, models.MessageTypeBoard, read().Type)
	assert.Equal(t, models.MessageTypeSearch, read().Type)

	require.Eventually(t, func() bool { return s.hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"topics": []string{models.MessageTypeBoard}},
	}))
	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeSentinelVisible}))

	// The sentinel triggers a load: one board message while loading, one when revealed
	var visible []float64
	for len(visible) < 2 {
		msg := read()
		require.Equal(t, models.MessageTypeBoard, msg.Type)
		payload := msg.Payload.(map[string]interface{})
		visible = append(visible, payload["visible_count"].(float64))
	}
	assert.Equal(t, []float64{20, 40}, visible)
}
