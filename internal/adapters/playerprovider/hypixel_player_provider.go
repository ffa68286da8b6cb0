package playerprovider

import (
	"context"
	"fmt"

	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/reporting"
	"github.com/Amund211/lobbytracker/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type hypixelPlayerProvider struct {
	hypixelAPI HypixelAPI

	metrics hypixelPlayerProviderMetricsCollection
}

func NewHypixelPlayerProvider(hypixelAPI HypixelAPI) (PlayerProvider, error) {
	meter := otel.Meter("playerprovider/hypixel_provider")
	metrics, err := setupHypixelPlayerProviderMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &hypixelPlayerProvider{
		hypixelAPI: hypixelAPI,

		metrics: metrics,
	}, nil
}

func (h *hypixelPlayerProvider) GetPlayer(ctx context.Context, uuid string) (domain.StatsPayload, error) {
	if !strutils.UUIDIsNormalized(uuid) {
		logging.FromContext(ctx).ErrorContext(ctx, "UUID is not normalized", "uuid", uuid)
		err := fmt.Errorf("UUID is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": uuid,
		})
		return domain.StatsPayload{}, err
	}

	playerData, statusCode, queriedAt, err := h.hypixelAPI.GetPlayerData(ctx, uuid)
	if err != nil {
		// NOTE: HypixelAPI implementations handle their own error reporting
		return domain.StatsPayload{}, fmt.Errorf("failed to get player data: %w", err)
	}

	payload, err := HypixelAPIResponseToStatsPayload(ctx, uuid, queriedAt, playerData, statusCode)

	h.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("got_player", err == nil)))

	if err != nil {
		// NOTE: HypixelAPIResponseToStatsPayload handles its own error reporting
		return domain.StatsPayload{}, fmt.Errorf("failed to convert hypixel api response to stats: %w", err)
	}

	return payload, nil
}

type hypixelPlayerProviderMetricsCollection struct {
	requestCount metric.Int64Counter
}

func setupHypixelPlayerProviderMetrics(meter metric.Meter) (hypixelPlayerProviderMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("playerprovider/hypixel_provider/returned_players")
	if err != nil {
		return hypixelPlayerProviderMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return hypixelPlayerProviderMetricsCollection{
		requestCount: requestCount,
	}, nil
}
