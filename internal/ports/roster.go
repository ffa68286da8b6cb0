package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/reporting"
)

type Roster interface {
	Players() []domain.Player
	AddPlayer(ctx context.Context, username string) (bool, error)
	RemovePlayer(ctx context.Context, username string) bool
	RemoveAllPlayers(ctx context.Context) int
	SortByRatio()
	Settings() domain.Settings
	UpdateSettings(update func(*domain.Settings))
}

type playerResponse struct {
	Username string `json:"username"`
	HasData  bool   `json:"hasData"`
	Tag      string `json:"tag"`

	Rank        *string `json:"rank,omitempty"`
	DonatorRank *string `json:"donatorRank,omitempty"`
	MonthlyRank *string `json:"monthlyRank,omitempty"`
	GuildName   *string `json:"guildName,omitempty"`

	AchievementPoints *int64 `json:"achievementPoints,omitempty"`
	Karma             *int64 `json:"karma,omitempty"`
	Level             *int64 `json:"level,omitempty"`
	BedsBroken        *int64 `json:"bedsBroken,omitempty"`
	BedsLost          *int64 `json:"bedsLost,omitempty"`
	FinalKills        *int64 `json:"finalKills,omitempty"`
	FinalDeaths       *int64 `json:"finalDeaths,omitempty"`
	GamesPlayed       *int64 `json:"gamesPlayed,omitempty"`
	Wins              *int64 `json:"wins,omitempty"`
	Losses            *int64 `json:"losses,omitempty"`
	Winstreak         *int64 `json:"winstreak,omitempty"`

	BedsRatio   float64 `json:"bedsRatio"`
	FinalsRatio float64 `json:"finalsRatio"`
	WinsRatio   float64 `json:"winsRatio"`
}

type rosterResponse struct {
	Success bool             `json:"success"`
	Players []playerResponse `json:"players"`
}

type addPlayerResponse struct {
	Success bool            `json:"success"`
	Added   bool            `json:"added"`
	Player  *playerResponse `json:"player,omitempty"`
}

type removePlayerResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

func playerToResponse(player domain.Player) playerResponse {
	return playerResponse{
		Username: player.Username,
		HasData:  player.HasData,
		Tag:      player.Tag().String(),

		Rank:        player.Rank,
		DonatorRank: player.DonatorRank,
		MonthlyRank: player.MonthlyRank,
		GuildName:   player.GuildName,

		AchievementPoints: player.AchievementPoints,
		Karma:             player.Karma,
		Level:             player.Level,
		BedsBroken:        player.BedsBroken,
		BedsLost:          player.BedsLost,
		FinalKills:        player.FinalKills,
		FinalDeaths:       player.FinalDeaths,
		GamesPlayed:       player.GamesPlayed,
		Wins:              player.Wins,
		Losses:            player.Losses,
		Winstreak:         player.Winstreak,

		BedsRatio:   player.BedsRatio,
		FinalsRatio: player.FinalsRatio,
		WinsRatio:   player.WinsRatio,
	}
}

func makeRosterResponse(players []domain.Player) rosterResponse {
	converted := make([]playerResponse, 0, len(players))
	for _, player := range players {
		converted = append(converted, playerToResponse(player))
	}
	return rosterResponse{
		Success: true,
		Players: converted,
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, cause string) {
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Cause: cause})
}

func buildMiddleware(
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
	endpoint string,
) func(http.HandlerFunc) http.HandlerFunc {
	return ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger.With("port", endpoint)),
		buildReportingMiddleware(addReportingToContext, endpoint),
	)
}

func MakeGetRosterHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "get_roster")

	handler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, makeRosterResponse(roster.Players()))
	}

	return middleware(handler)
}

func MakeAddPlayerHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "add_player")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username := strings.TrimSpace(r.PathValue("username"))

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"username": username,
			},
		)

		if len(username) > 100 {
			writeError(ctx, w, http.StatusBadRequest, "invalid username length")
			return
		}

		added, err := roster.AddPlayer(ctx, username)
		if errors.Is(err, domain.ErrInvalidUsername) {
			writeError(ctx, w, http.StatusBadRequest, "invalid username")
			return
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logging.FromContext(ctx).InfoContext(ctx, "Request cancelled before the player was added")
			writeError(ctx, w, http.StatusServiceUnavailable, "request cancelled")
			return
		} else if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to add player: %w", err))
			writeError(ctx, w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !added {
			logging.FromContext(ctx).InfoContext(ctx, "Player already in roster")
			writeJSON(ctx, w, http.StatusOK, addPlayerResponse{Success: true, Added: false})
			return
		}

		response := addPlayerResponse{Success: true, Added: true}
		for _, player := range roster.Players() {
			if player.SameUsername(username) {
				converted := playerToResponse(player)
				response.Player = &converted
				break
			}
		}

		writeJSON(ctx, w, http.StatusCreated, response)
	}

	return middleware(handler)
}

func MakeRemovePlayerHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "remove_player")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username := r.PathValue("username")

		if !roster.RemovePlayer(ctx, username) {
			writeError(ctx, w, http.StatusNotFound, "not found")
			return
		}

		writeJSON(ctx, w, http.StatusOK, removePlayerResponse{Success: true, Removed: 1})
	}

	return middleware(handler)
}

func MakeClearRosterHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "clear_roster")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		removed := roster.RemoveAllPlayers(ctx)

		writeJSON(ctx, w, http.StatusOK, removePlayerResponse{Success: true, Removed: removed})
	}

	return middleware(handler)
}

func MakeSortRosterHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "sort_roster")

	handler := func(w http.ResponseWriter, r *http.Request) {
		roster.SortByRatio()
		writeJSON(r.Context(), w, http.StatusOK, makeRosterResponse(roster.Players()))
	}

	return middleware(handler)
}
