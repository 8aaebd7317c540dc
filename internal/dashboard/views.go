package dashboard

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/pagination"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/query"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/pkg/models"
)

// CategoryView is one category tab
type CategoryView struct {
	Category    models.Category `json:"category"`
	DisplayName string          `json:"display_name"`
	Icon        string          `json:"icon"`
	Count       int             `json:"count"`
}

// LeaderboardsView is the header and tab strip
type LeaderboardsView struct {
	Status         query.Status    `json:"status"`
	Error          string          `json:"error,omitempty"`
	Categories     []CategoryView  `json:"categories"`
	TotalPlayers   int             `json:"total_players"`
	ActiveCategory models.Category `json:"active_category,omitempty"`
}

// PlayerCard is one leaderboard entry as rendered
type PlayerCard struct {
	models.Player
	Tier     models.RankTier `json:"tier"`
	Medal    string          `json:"medal,omitempty"`
	Flag     string          `json:"flag,omitempty"`
	Rating   string          `json:"rating"`
	Expanded bool            `json:"expanded"`
}

// BoardView is the active category: podium, grid and paging flags
type BoardView struct {
	Category    models.Category `json:"category"`
	DisplayName string          `json:"display_name"`
	Icon        string          `json:"icon"`
	TopThree    []PlayerCard    `json:"top_three"`
	Grid        []PlayerCard    `json:"grid"`
	pagination.Snapshot
}

// ProfileView is a player profile with display fields filled in
type ProfileView struct {
	models.PlayerProfile
	Flag            string `json:"flag,omitempty"`
	LastOnlineLabel string `json:"last_online_label"`
	JoinedDate      string `json:"joined_date"`
	HasStats        bool   `json:"has_stats"`
}

// PlayerView is a fetched player, from a search or an expanded card
type PlayerView struct {
	Username string              `json:"username"`
	Expanded bool                `json:"expanded"`
	Status   query.Status        `json:"status"`
	Error    string              `json:"error,omitempty"`
	Profile  *ProfileView        `json:"profile,omitempty"`
	Stats    *models.PlayerStats `json:"stats,omitempty"`
}

// SearchView is the search panel
type SearchView struct {
	Status query.Status `json:"status"`
	Error  string       `json:"error,omitempty"`
	Player *PlayerView  `json:"player,omitempty"`
}

func newPlayerCard(p models.Player, expanded bool) PlayerCard {
	tier := models.TierForRank(p.Rank)
	return PlayerCard{
		Player:   p,
		Tier:     tier,
		Medal:    tier.Medal(),
		Flag:     models.CountryToFlag(p.Country),
		Rating:   models.FormatRating(p.Score),
		Expanded: expanded,
	}
}

func newProfileView(p models.PlayerProfile, stats models.PlayerStats, now time.Time) *ProfileView {
	return &ProfileView{
		PlayerProfile:   p,
		Flag:            models.CountryToFlag(p.Country),
		LastOnlineLabel: models.FormatLastOnline(now, p.LastOnline),
		JoinedDate:      time.Unix(p.Joined, 0).UTC().Format("Jan 2, 2006"),
		HasStats:        !stats.IsEmpty(),
	}
}

func newPlayerView(username string, expanded bool, state query.State[models.FullPlayerData], now time.Time) *PlayerView {
	v := &PlayerView{
		Username: username,
		Expanded: expanded,
		Status:   state.Status,
		Error:    state.Error,
	}
	if state.Status == query.StatusSuccess && state.Data != nil {
		v.Profile = newProfileView(state.Data.Profile, state.Data.Stats, now)
		stats := state.Data.Stats
		v.Stats = &stats
		if v.Username == "" {
			v.Username = state.Data.Profile.Username
		}
	}
	return v
}
