package models

// Category identifies one Chess.com leaderboard
type Category string

const (
	CategoryDaily             Category = "daily"
	CategoryLiveRapid         Category = "live_rapid"
	CategoryLiveBlitz         Category = "live_blitz"
	CategoryLiveBullet        Category = "live_bullet"
	CategoryLiveBughouse      Category = "live_bughouse"
	CategoryLiveBlitz960      Category = "live_blitz960"
	CategoryLiveThreeCheck    Category = "live_threecheck"
	CategoryLiveCrazyhouse    Category = "live_crazyhouse"
	CategoryLiveKingOfTheHill Category = "live_kingofthehill"
	CategoryTactics           Category = "tactics"
	CategoryRush              Category = "rush"
	CategoryBattle            Category = "battle"
)

// AllCategories lists every known leaderboard in display order
var AllCategories = []Category{
	CategoryDaily,
	CategoryLiveRapid,
	CategoryLiveBlitz,
	CategoryLiveBullet,
	CategoryLiveBughouse,
	CategoryLiveBlitz960,
	CategoryLiveThreeCheck,
	CategoryLiveCrazyhouse,
	CategoryLiveKingOfTheHill,
	CategoryTactics,
	CategoryRush,
	CategoryBattle,
}

// IsValid reports whether c is one of the known leaderboards
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Player is a single leaderboard entry as returned by /pub/leaderboards
type Player struct {
	PlayerID   int64  `json:"player_id"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Score      int    `json:"score"`
	Rank       int    `json:"rank"`
	Country    string `json:"country,omitempty"`
	Title      string `json:"title,omitempty"`
	Name       string `json:"name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Status     string `json:"status,omitempty"`
	LastOnline int64  `json:"last_online,omitempty"`
	Joined     int64  `json:"joined,omitempty"`
	Location   string `json:"location,omitempty"`
	Fide       int    `json:"fide,omitempty"`
}

// Leaderboards maps each category to its players in rank order.
// Keys outside AllCategories may be present when decoded from the API and are ignored
// by every accessor.
type Leaderboards map[Category][]Player

// Players returns the players of one category, nil when unknown or absent
func (l Leaderboards) Players(c Category) []Player {
	if !c.IsValid() {
		return nil
	}
	return l[c]
}

// AvailableCategories returns the known categories that hold at least one player
func (l Leaderboards) AvailableCategories() []Category {
	available := make([]Category, 0, len(AllCategories))
	for _, c := range AllCategories {
		if len(l[c]) > 0 {
			available = append(available, c)
		}
	}
	return available
}

// TotalPlayers sums entries over every known category
func (l Leaderboards) TotalPlayers() int {
	total := 0
	for _, c := range AllCategories {
		total += len(l[c])
	}
	return total
}
