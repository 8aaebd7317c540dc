package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
)

const (
	DefaultBaseURL   = "https://api.chess.com"
	DefaultUserAgent = "Mozilla/5.0 (compatible; FortunaChessDashboard/1.0)"
)

// ErrPlayerNotFound is returned when the profile endpoint answers 404
var ErrPlayerNotFound = errors.New("player not found")

// StatusError is a non-2xx answer from the API
type StatusError struct {
	Resource   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chess.com API error: resource=%s status=%d", e.Resource, e.StatusCode)
}

// Client handles Chess.com public API requests
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option customises a Client
type Option func(*Client)

// WithBaseURL points the client at another host (tests, mirrors)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a new Chess.com API client
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchLeaderboards fetches every leaderboard category
func (c *Client) FetchLeaderboards(ctx context.Context) (models.Leaderboards, error) {
	var boards models.Leaderboards
	if err := c.fetch(ctx, c.baseURL+"/pub/leaderboards", "leaderboards", &boards); err != nil {
		return nil, err
	}
	if boards == nil {
		boards = models.Leaderboards{}
	}
	return boards, nil
}

// FetchPlayerProfile fetches a player's profile. A 404 yields ErrPlayerNotFound.
func (c *Client) FetchPlayerProfile(ctx context.Context, username string) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	err := c.fetch(ctx, c.playerURL(username, ""), "profile", &profile)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// FetchPlayerStats fetches a player's per-mode stats
func (c *Client) FetchPlayerStats(ctx context.Context, username string) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	if err := c.fetch(ctx, c.playerURL(username, "/stats"), "stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchPlayer fetches profile and stats concurrently and waits for both.
// Only the profile has to succeed; any stats failure degrades to empty stats.
func (c *Client) FetchPlayer(ctx context.Context, username string) (*models.FullPlayerData, error) {
	var (
		wg         sync.WaitGroup
		profile    *models.PlayerProfile
		profileErr error
		stats      *models.PlayerStats
		statsErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = c.FetchPlayerProfile(ctx, username)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = c.FetchPlayerStats(ctx, username)
	}()
	wg.Wait()

	if profileErr != nil {
		return nil, profileErr
	}

	data := &models.FullPlayerData{Profile: *profile}
	if statsErr == nil && stats != nil {
		data.Stats = *stats
	}
	return data, nil
}

// playerURL builds /pub/player/{username}{suffix} with the username lower-cased
func (c *Client) playerURL(username, suffix string) string {
	return fmt.Sprintf("%s/pub/player/%s%s", c.baseURL, url.PathEscape(strings.ToLower(username)), suffix)
}

// fetch makes an HTTP GET request and decodes the JSON body into out
func (c *Client) fetch(ctx context.Context, url, resource string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Resource: resource, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", resource, err)
	}

	return nil
}
