package domain

import "strings"

// Player is one tracked lobby member.
//
// Records without data (HasData == false) come from usernames that could not be resolved,
// e.g. nicked players, and have every optional field unset.
type Player struct {
	Username string

	HasData bool

	Rank        *string
	DonatorRank *string
	MonthlyRank *string // "SUPERSTAR" for MVP++

	AchievementPoints *int64
	Karma             *int64

	BedsBroken  *int64
	BedsLost    *int64
	FinalKills  *int64
	FinalDeaths *int64
	GamesPlayed *int64
	Wins        *int64
	Losses      *int64
	Level       *int64
	Winstreak   *int64

	BedsRatio   float64
	FinalsRatio float64
	WinsRatio   float64

	GuildName *string
}

func (p Player) SameUsername(username string) bool {
	return strings.EqualFold(p.Username, username)
}

// Ratio returns numerator/denominator, or 0 when either is missing or the denominator is 0
func Ratio(numerator, denominator *int64) float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return 0
	}
	return float64(*numerator) / float64(*denominator)
}
