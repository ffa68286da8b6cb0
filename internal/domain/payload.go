package domain

import "time"

// StatsPayload is the subset of the Hypixel player data used to build a Player.
// Fields missing from the API response are nil.
type StatsPayload struct {
	UUID      string
	QueriedAt time.Time

	Rank        *string
	DonatorRank *string
	MonthlyRank *string

	AchievementPoints *int64
	Karma             *int64
	Level             *int64

	Bedwars BedwarsPayload

	// Best effort, nil when the guild lookup failed or the player has no guild
	GuildName *string
}

type BedwarsPayload struct {
	BedsBroken  *int64
	BedsLost    *int64
	FinalKills  *int64
	FinalDeaths *int64
	GamesPlayed *int64
	Wins        *int64
	Losses      *int64
	Winstreak   *int64
}
