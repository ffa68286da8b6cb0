package app

import (
	"context"
	"errors"

	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
)

// BuildPlayer turns the result of a stats fetch into a roster entry.
// Any fetch error gives a record without data.
func BuildPlayer(username string, payload domain.StatsPayload, err error) domain.Player {
	if err != nil {
		return domain.Player{Username: username}
	}

	bw := payload.Bedwars
	return domain.Player{
		Username: username,
		HasData:  true,

		Rank:        payload.Rank,
		DonatorRank: payload.DonatorRank,
		MonthlyRank: payload.MonthlyRank,

		AchievementPoints: payload.AchievementPoints,
		Karma:             payload.Karma,

		BedsBroken:  bw.BedsBroken,
		BedsLost:    bw.BedsLost,
		FinalKills:  bw.FinalKills,
		FinalDeaths: bw.FinalDeaths,
		GamesPlayed: bw.GamesPlayed,
		Wins:        bw.Wins,
		Losses:      bw.Losses,
		Level:       payload.Level,
		Winstreak:   bw.Winstreak,

		BedsRatio:   domain.Ratio(bw.BedsBroken, bw.BedsLost),
		FinalsRatio: domain.Ratio(bw.FinalKills, bw.FinalDeaths),
		WinsRatio:   domain.Ratio(bw.Wins, bw.Losses),

		GuildName: payload.GuildName,
	}
}

// GetPlayer never fails. Players whose stats could not be fetched have HasData == false.
type GetPlayer func(ctx context.Context, username string) domain.Player

func BuildGetPlayer(fetchStats FetchStats) GetPlayer {
	return func(ctx context.Context, username string) domain.Player {
		payload, err := fetchStats(ctx, username)
		if err != nil {
			logger := logging.FromContext(ctx)
			switch {
			case errors.Is(err, domain.ErrUsernameNotFound), errors.Is(err, domain.ErrPlayerNotFound):
				logger.InfoContext(ctx, "No stats for player, probably nicked", "username", username)
			default:
				logger.WarnContext(ctx, "Failed to fetch stats", "username", username, "error", err.Error())
			}
		}
		return BuildPlayer(username, payload, err)
	}
}
