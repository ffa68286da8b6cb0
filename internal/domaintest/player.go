package domaintest

import (
	"time"

	"github.com/Amund211/lobbytracker/internal/domain"
)

type statsPayloadBuilder struct {
	payload *domain.StatsPayload
}

func (b *statsPayloadBuilder) WithRank(rank string) *statsPayloadBuilder {
	b.payload.Rank = &rank
	return b
}

func (b *statsPayloadBuilder) WithDonatorRank(rank string) *statsPayloadBuilder {
	b.payload.DonatorRank = &rank
	return b
}

func (b *statsPayloadBuilder) WithLevel(level int64) *statsPayloadBuilder {
	b.payload.Level = &level
	return b
}

func (b *statsPayloadBuilder) WithFinals(kills, deaths int64) *statsPayloadBuilder {
	b.payload.Bedwars.FinalKills = &kills
	b.payload.Bedwars.FinalDeaths = &deaths
	return b
}

// Only final kills, final deaths stay missing
func (b *statsPayloadBuilder) WithFinalKills(kills int64) *statsPayloadBuilder {
	b.payload.Bedwars.FinalKills = &kills
	return b
}

func (b *statsPayloadBuilder) WithBeds(broken, lost int64) *statsPayloadBuilder {
	b.payload.Bedwars.BedsBroken = &broken
	b.payload.Bedwars.BedsLost = &lost
	return b
}

func (b *statsPayloadBuilder) WithGames(wins, losses int64) *statsPayloadBuilder {
	gamesPlayed := wins + losses
	b.payload.Bedwars.Wins = &wins
	b.payload.Bedwars.Losses = &losses
	b.payload.Bedwars.GamesPlayed = &gamesPlayed
	return b
}

func (b *statsPayloadBuilder) WithGuildName(name string) *statsPayloadBuilder {
	b.payload.GuildName = &name
	return b
}

func (b *statsPayloadBuilder) Build() domain.StatsPayload {
	return *b.payload
}

// A payload with only the uuid and query time set. Every stat starts out missing.
func NewStatsPayloadBuilder(uuid string, queriedAt time.Time) *statsPayloadBuilder {
	return &statsPayloadBuilder{
		payload: &domain.StatsPayload{
			UUID:      uuid,
			QueriedAt: queriedAt,
		},
	}
}
