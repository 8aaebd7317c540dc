package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the dashboard views over HTTP and websocket
type Handler struct {
	ctx     context.Context
	session *dashboard.Session
	hub     *hub.Hub
	logger  *zap.SugaredLogger
}

// NewHandler creates a new handler. ctx bounds the websocket pumps.
func NewHandler(ctx context.Context, session *dashboard.Session, h *hub.Hub, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		ctx:     ctx,
		session: session,
		hub:     h,
		logger:  logger,
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"timestamp":    time.Now().UTC(),
		"service":      "chess-dashboard",
		"leaderboards": h.session.LeaderboardsView().Status,
		"clients":      h.hub.GetClientCount(),
	})
}

// Metrics returns hub counters and the board's paging state
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hub":   h.hub.GetMetrics(),
		"board": h.session.BoardView().Snapshot,
	})
}

// GetLeaderboards returns the category tabs and totals
func (h *Handler) GetLeaderboards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.LeaderboardsView())
}

// GetBoard returns the active category view
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.BoardView())
}

type selectCategoryRequest struct {
	Category models.Category `json:"category"`
}

// SelectCategory switches the active tab
func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	var req selectCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.session.SelectCategory(req.Category); err != nil {
		if errors.Is(err, dashboard.ErrUnknownCategory) {
			respondError(w, http.StatusBadRequest, "unknown category: "+string(req.Category), nil)
			return
		}
		if errors.Is(err, dashboard.ErrEmptyCategory) {
			respondError(w, http.StatusBadRequest, "category has no players: "+string(req.Category), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to select category", err)
		return
	}

	respondJSON(w, http.StatusOK, h.session.BoardView())
}

// LoadMore reveals the next page of the active category
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.session.LoadMore(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "load more cancelled", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"loaded": loaded,
		"board":  h.session.BoardView(),
	})
}

// GetSearch returns the search panel
func (h *Handler) GetSearch(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.SearchView())
}

type searchRequest struct {
	Username string `json:"username"`
}

// Search looks up a player. A failed lookup is a 200 carrying the error state.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	respondJSON(w, http.StatusOK, h.session.Search(req.Username))
}

// TogglePlayer expands or collapses a visible card
func (h *Handler) TogglePlayer(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	view, err := h.session.ToggleDetails(username)
	if err != nil {
		h.respondPlayerError(w, username, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetPlayer returns a visible card's detail state
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	view, err := h.session.PlayerView(username)
	if err != nil {
		h.respondPlayerError(w, username, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) respondPlayerError(w http.ResponseWriter, username string, err error) {
	if errors.Is(err, dashboard.ErrCardNotFound) {
		respondError(w, http.StatusNotFound, "player "+username+" is not on the visible board", nil)
		return
	}
	respondError(w, http.StatusInternalServerError, "failed to read player", err)
}

// HandleWebSocket upgrades the connection, sends the current views and then
// streams every change.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "err", err)
		return
	}

	c := client.NewClient(uuid.New().String(), conn, h.hub, h.logger, h.session.FireSentinel)

	now := time.Now()
	c.TrySend(models.ServerMessage{Type: models.MessageTypeLeaderboards, Payload: h.session.LeaderboardsView(), Timestamp: now})
	c.TrySend(models.ServerMessage{Type: models.MessageTypeBoard, Payload: h.session.BoardView(), Timestamp: now})
	c.TrySend(models.ServerMessage{Type: models.MessageTypeSearch, Payload: h.session.SearchView(), Timestamp: now})

	h.hub.Register(c)

	// Pumps use the handler context, not the request context
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Warnw("error encoding response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		zap.S().Warnw(message, "err", err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		zap.S().Warnw("error encoding error response", "err", err)
	}
}
