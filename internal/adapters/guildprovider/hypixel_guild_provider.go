package guildprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/lobbytracker/internal/adapters/playerprovider"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type GuildProvider interface {
	// Raises domain.ErrGuildNotFound if the player is not in a guild
	GetGuildName(ctx context.Context, uuid string) (string, error)
}

type HypixelGuildAPI interface {
	GetGuildData(ctx context.Context, uuid string) ([]byte, int, time.Time, error)
}

type hypixelGuildResponse struct {
	Success bool          `json:"success"`
	Guild   *hypixelGuild `json:"guild"`
	Cause   *string       `json:"cause,omitempty"`
}

type hypixelGuild struct {
	Name *string `json:"name"`
}

type hypixelGuildProvider struct {
	hypixelAPI HypixelGuildAPI

	lookupCount metric.Int64Counter
}

func NewHypixelGuildProvider(hypixelAPI HypixelGuildAPI) (GuildProvider, error) {
	meter := otel.Meter("guildprovider/hypixel_provider")
	lookupCount, err := meter.Int64Counter("guildprovider/hypixel_provider/lookups")
	if err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}

	return &hypixelGuildProvider{
		hypixelAPI:  hypixelAPI,
		lookupCount: lookupCount,
	}, nil
}

func (h *hypixelGuildProvider) GetGuildName(ctx context.Context, uuid string) (string, error) {
	data, statusCode, _, err := h.hypixelAPI.GetGuildData(ctx, uuid)
	if err != nil {
		return "", fmt.Errorf("failed to get guild data: %w", err)
	}

	name, err := guildNameFromHypixelResponse(statusCode, data)
	h.metrics(ctx, err)
	if err == nil || errors.Is(err, domain.ErrGuildNotFound) {
		return name, err
	}

	reporting.Report(ctx, err, map[string]string{
		"uuid":       uuid,
		"statusCode": fmt.Sprint(statusCode),
		"data":       string(data),
	})
	logging.FromContext(ctx).ErrorContext(ctx, "Failed to get guild from hypixel", "error", err.Error(), "statusCode", statusCode)
	return "", err
}

func (h *hypixelGuildProvider) metrics(ctx context.Context, err error) {
	h.lookupCount.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("found", err == nil),
		attribute.Bool("error", err != nil && !errors.Is(err, domain.ErrGuildNotFound)),
	))
}

func guildNameFromHypixelResponse(statusCode int, data []byte) (string, error) {
	if err := playerprovider.CheckForHypixelError(statusCode, data); err != nil {
		return "", err
	}

	var response hypixelGuildResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return "", fmt.Errorf("failed to parse guild data: %w", err)
	}

	if !response.Success {
		cause := "unknown error (lobbytracker)"
		if response.Cause != nil {
			cause = *response.Cause
		}
		return "", fmt.Errorf("got success=false from Hypixel: %s", cause)
	}

	if response.Guild == nil {
		return "", domain.ErrGuildNotFound
	}

	if response.Guild.Name == nil {
		return "", fmt.Errorf("guild is missing a name")
	}

	return *response.Guild.Name, nil
}
