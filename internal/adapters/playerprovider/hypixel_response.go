package playerprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/reporting"
)

type hypixelAPIResponse struct {
	Success bool              `json:"success"`
	Player  *hypixelAPIPlayer `json:"player"`
	Cause   *string           `json:"cause,omitempty"`
}

type hypixelAPIPlayer struct {
	UUID               *string                 `json:"uuid,omitempty"`
	Displayname        *string                 `json:"displayname,omitempty"`
	Rank               *string                 `json:"rank,omitempty"`
	NewPackageRank     *string                 `json:"newPackageRank,omitempty"`
	MonthlyPackageRank *string                 `json:"monthlyPackageRank,omitempty"`
	AchievementPoints  *int64                  `json:"achievementPoints,omitempty"`
	Karma              *int64                  `json:"karma,omitempty"`
	Achievements       *hypixelAPIAchievements `json:"achievements,omitempty"`
	Stats              *hypixelAPIStats        `json:"stats,omitempty"`
}

type hypixelAPIAchievements struct {
	BedwarsLevel *int64 `json:"bedwars_level,omitempty"`
}

type hypixelAPIStats struct {
	Bedwars *hypixelAPIBedwarsStats `json:"Bedwars,omitempty"`
}

type hypixelAPIBedwarsStats struct {
	Winstreak   *int64 `json:"winstreak,omitempty"`
	GamesPlayed *int64 `json:"games_played_bedwars,omitempty"`
	Wins        *int64 `json:"wins_bedwars,omitempty"`
	Losses      *int64 `json:"losses_bedwars,omitempty"`
	BedsBroken  *int64 `json:"beds_broken_bedwars,omitempty"`
	BedsLost    *int64 `json:"beds_lost_bedwars,omitempty"`
	FinalKills  *int64 `json:"final_kills_bedwars,omitempty"`
	FinalDeaths *int64 `json:"final_deaths_bedwars,omitempty"`
}

// CheckForHypixelError classifies non-200 and HTML responses from the Hypixel API
func CheckForHypixelError(statusCode int, data []byte) error {
	// Only support 200 OK
	if statusCode == 200 {
		// Check for HTML response
		if len(data) > 0 && data[0] == '<' {
			return fmt.Errorf("Hypixel API returned HTML (%w)", domain.ErrTemporarilyUnavailable)
		}

		return nil
	}

	// Error for unknown status code
	err := fmt.Errorf("Hypixel API returned unsupported status code: %d", statusCode)

	// Errors for known status codes
	switch statusCode {
	case 429:
		err = fmt.Errorf("Hypixel ratelimit exceeded (%w)", domain.ErrTemporarilyUnavailable)
	case 500, 502, 503, 504, 520, 521, 522, 523, 524, 525, 526, 527, 530:
		err = fmt.Errorf("Hypixel returned status code %d (%s) (%w)", statusCode, http.StatusText(statusCode), domain.ErrTemporarilyUnavailable)
	}

	return err
}

func HypixelAPIResponseToStatsPayload(ctx context.Context, uuid string, queriedAt time.Time, playerData []byte, statusCode int) (domain.StatsPayload, error) {
	logger := logging.FromContext(ctx)
	extra := map[string]string{
		"uuid":       uuid,
		"statusCode": fmt.Sprint(statusCode),
		"data":       string(playerData),
	}

	if err := CheckForHypixelError(statusCode, playerData); err != nil {
		reporting.Report(ctx, err, extra)
		logger.ErrorContext(
			ctx,
			"Got response from hypixel",
			"status", "error",
			"error", err.Error(),
			"statusCode", statusCode,
			"contentLength", len(playerData),
		)
		return domain.StatsPayload{}, err
	}

	logger.InfoContext(
		ctx,
		"Got response from hypixel",
		"status", "success",
		"statusCode", statusCode,
		"contentLength", len(playerData),
	)

	var response hypixelAPIResponse
	if err := json.Unmarshal(playerData, &response); err != nil {
		err = fmt.Errorf("failed to parse player data: %w", err)
		reporting.Report(ctx, err, extra)
		return domain.StatsPayload{}, err
	}

	if !response.Success {
		cause := "unknown error (lobbytracker)"
		if response.Cause != nil {
			cause = *response.Cause
		}
		err := fmt.Errorf("got success=false from Hypixel: %s", cause)
		reporting.Report(ctx, err, extra)
		return domain.StatsPayload{}, err
	}

	if response.Player == nil {
		logger.InfoContext(ctx, "Player not found")
		return domain.StatsPayload{}, domain.ErrPlayerNotFound
	}

	apiPlayer := response.Player

	payload := domain.StatsPayload{
		UUID:      uuid,
		QueriedAt: queriedAt,

		Rank:              apiPlayer.Rank,
		DonatorRank:       apiPlayer.NewPackageRank,
		MonthlyRank:       apiPlayer.MonthlyPackageRank,
		AchievementPoints: apiPlayer.AchievementPoints,
		Karma:             apiPlayer.Karma,
	}

	if apiPlayer.Achievements != nil {
		payload.Level = apiPlayer.Achievements.BedwarsLevel
	}

	if apiPlayer.Stats != nil && apiPlayer.Stats.Bedwars != nil {
		bw := apiPlayer.Stats.Bedwars
		payload.Bedwars = domain.BedwarsPayload{
			BedsBroken:  bw.BedsBroken,
			BedsLost:    bw.BedsLost,
			FinalKills:  bw.FinalKills,
			FinalDeaths: bw.FinalDeaths,
			GamesPlayed: bw.GamesPlayed,
			Wins:        bw.Wins,
			Losses:      bw.Losses,
			Winstreak:   bw.Winstreak,
		}
	}

	return payload, nil
}
