package models

// PlayerProfile is the payload of /pub/player/{username}
type PlayerProfile struct {
	PlayerID   int64  `json:"player_id"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Followers  int    `json:"followers"`
	Country    string `json:"country,omitempty"`
	Location   string `json:"location,omitempty"`
	LastOnline int64  `json:"last_online"`
	Joined     int64  `json:"joined"`
	Status     string `json:"status"`
	Avatar     string `json:"avatar,omitempty"`
	IsStreamer bool   `json:"is_streamer"`
	Verified   bool   `json:"verified"`
	League     string `json:"league,omitempty"`
	Fide       int    `json:"fide,omitempty"`
}

// RatingSnapshot is a rating at a point in time (epoch seconds)
type RatingSnapshot struct {
	Rating int   `json:"rating"`
	Date   int64 `json:"date"`
}

// GameRecord is the win/loss/draw tally for a game mode
type GameRecord struct {
	Win  int `json:"win"`
	Loss int `json:"loss"`
	Draw int `json:"draw"`
}

// ModeStats covers the rated chess modes (daily, rapid, blitz, bullet, 960 daily)
type ModeStats struct {
	Last   *RatingSnapshot `json:"last,omitempty"`
	Best   *RatingSnapshot `json:"best,omitempty"`
	Record *GameRecord     `json:"record,omitempty"`
}

// TacticsStats has a different shape from the rated modes
type TacticsStats struct {
	Highest *RatingSnapshot `json:"highest,omitempty"`
	Lowest  *RatingSnapshot `json:"lowest,omitempty"`
}

// PuzzleRushAttempt is the best recorded puzzle rush run
type PuzzleRushAttempt struct {
	TotalAttempts int `json:"total_attempts"`
	Score         int `json:"score"`
}

// PuzzleRushStats wraps the best puzzle rush attempt
type PuzzleRushStats struct {
	Best *PuzzleRushAttempt `json:"best,omitempty"`
}

// PlayerStats is the payload of /pub/player/{username}/stats.
// A nil field means the player has no recorded activity in that mode.
type PlayerStats struct {
	ChessDaily    *ModeStats       `json:"chess_daily,omitempty"`
	ChessRapid    *ModeStats       `json:"chess_rapid,omitempty"`
	ChessBlitz    *ModeStats       `json:"chess_blitz,omitempty"`
	ChessBullet   *ModeStats       `json:"chess_bullet,omitempty"`
	Chess960Daily *ModeStats       `json:"chess960_daily,omitempty"`
	Tactics       *TacticsStats    `json:"tactics,omitempty"`
	PuzzleRush    *PuzzleRushStats `json:"puzzle_rush,omitempty"`
}

// IsEmpty reports whether no game mode has any activity
func (s PlayerStats) IsEmpty() bool {
	return s.ChessDaily == nil && s.ChessRapid == nil && s.ChessBlitz == nil &&
		s.ChessBullet == nil && s.Chess960Daily == nil && s.Tactics == nil && s.PuzzleRush == nil
}

// FullPlayerData combines a profile with its stats
type FullPlayerData struct {
	Profile PlayerProfile `json:"profile"`
	Stats   PlayerStats   `json:"stats"`
}
