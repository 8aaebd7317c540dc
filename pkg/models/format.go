package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var categoryNames = map[Category]string{
	CategoryDaily:             "Daily Chess",
	CategoryLiveRapid:         "Rapid",
	CategoryLiveBlitz:         "Blitz",
	CategoryLiveBullet:        "Bullet",
	CategoryLiveBughouse:      "Bughouse",
	CategoryLiveBlitz960:      "Chess960",
	CategoryLiveThreeCheck:    "Three-Check",
	CategoryLiveCrazyhouse:    "Crazyhouse",
	CategoryLiveKingOfTheHill: "King of the Hill",
	CategoryTactics:           "Tactics",
	CategoryRush:              "Puzzle Rush",
	CategoryBattle:            "Puzzle Battle",
}

var categoryIcons = map[Category]string{
	CategoryDaily:        "♔",
	CategoryLiveRapid:    "♕",
	CategoryLiveBlitz:    "♖",
	CategoryLiveBullet:   "♗",
	CategoryLiveBughouse: "♘",
	CategoryLiveBlitz960: "♙",
	CategoryTactics:      "🧩",
	CategoryRush:         "⚡",
	CategoryBattle:       "⚔️",
}

// DisplayName returns the human label for a category.
// Unknown categories are title-cased with underscores turned into spaces.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}

	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Icon returns the chess glyph shown next to a category tab
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return "♔"
}

// CountryToFlag turns a two-letter country code into its flag emoji.
// The API reports countries as URLs (.../pub/country/US), so only the last path
// segment is used. Anything that is not two ASCII letters yields "".
func CountryToFlag(country string) string {
	if i := strings.LastIndex(country, "/"); i >= 0 {
		country = country[i+1:]
	}
	if len(country) != 2 {
		return ""
	}

	var b strings.Builder
	for _, ch := range strings.ToUpper(country) {
		if ch < 'A' || ch > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (ch - 'A'))
	}
	return b.String()
}

// FormatRating renders a rating, "Unrated" when zero
func FormatRating(rating int) string {
	if rating == 0 {
		return "Unrated"
	}
	return strconv.Itoa(rating)
}

// FormatLastOnline renders an epoch-seconds timestamp relative to now
func FormatLastOnline(now time.Time, lastOnline int64) string {
	diff := now.Unix() - lastOnline

	switch {
	case diff < 300:
		return "Online now"
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	case diff < 2592000:
		return fmt.Sprintf("%dd ago", diff/86400)
	default:
		return "Long time ago"
	}
}

// RankTier is the podium styling bucket for a rank
type RankTier string

const (
	RankTierGold    RankTier = "gold"
	RankTierSilver  RankTier = "silver"
	RankTierBronze  RankTier = "bronze"
	RankTierRegular RankTier = "regular"
)

// TierForRank maps ranks 1-3 to medals and everything else to regular
func TierForRank(rank int) RankTier {
	switch rank {
	case 1:
		return RankTierGold
	case 2:
		return RankTierSilver
	case 3:
		return RankTierBronze
	default:
		return RankTierRegular
	}
}

// Medal returns the medal emoji for a podium tier
func (t RankTier) Medal() string {
	switch t {
	case RankTierGold:
		return "🥇"
	case RankTierSilver:
		return "🥈"
	case RankTierBronze:
		return "🥉"
	default:
		return ""
	}
}
