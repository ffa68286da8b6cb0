package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Amund211/lobbytracker/internal/adapters/cache"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
)

type FetchStats func(ctx context.Context, username string) (domain.StatsPayload, error)

type playerProvider interface {
	GetPlayer(ctx context.Context, uuid string) (domain.StatsPayload, error)
}

type guildProvider interface {
	GetGuildName(ctx context.Context, uuid string) (string, error)
}

func fetchStatsWithoutCache(
	ctx context.Context,
	resolveUUID ResolveUUID,
	players playerProvider,
	guilds guildProvider,
	username string,
) (domain.StatsPayload, error) {
	logger := logging.FromContext(ctx)

	uuid, err := resolveUUID(ctx, username)
	if err != nil {
		return domain.StatsPayload{}, fmt.Errorf("could not resolve uuid: %w", err)
	}

	payload, err := players.GetPlayer(ctx, uuid)
	if err != nil {
		// NOTE: PlayerProvider implementations handle their own error reporting
		return domain.StatsPayload{}, fmt.Errorf("could not get player stats: %w", err)
	}

	guildName, err := guilds.GetGuildName(ctx, uuid)
	switch {
	case errors.Is(err, domain.ErrGuildNotFound):
	case err != nil:
		// The guild is cosmetic. Return the stats without it
		logger.WarnContext(ctx, "Failed to get guild", "uuid", uuid, "error", err.Error())
	default:
		payload.GuildName = &guildName
	}

	return payload, nil
}

// Stats are cached by the username as seen in the log, so differently cased
// spellings of one name are fetched separately.
func BuildFetchStatsWithCache(
	statsCache cache.Cache[domain.StatsPayload],
	resolveUUID ResolveUUID,
	players playerProvider,
	guilds guildProvider,
) FetchStats {
	return func(ctx context.Context, username string) (domain.StatsPayload, error) {
		ctx = logging.AddMetaToContext(ctx, slog.String("username", username))

		payload, created, err := cache.GetOrCreate(ctx, statsCache, username, func() (domain.StatsPayload, error) {
			return fetchStatsWithoutCache(ctx, resolveUUID, players, guilds, username)
		})
		if err != nil {
			return domain.StatsPayload{}, fmt.Errorf("failed to cache.GetOrCreate stats for username: %w", err)
		}

		logging.FromContext(ctx).DebugContext(ctx, "Got stats", "uuid", payload.UUID, "fetched", created)

		return payload, nil
	}
}
