package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/lobbytracker/internal/adapters/accountprovider"
	"github.com/Amund211/lobbytracker/internal/adapters/cache"
	"github.com/Amund211/lobbytracker/internal/adapters/guildprovider"
	"github.com/Amund211/lobbytracker/internal/adapters/playerprovider"
	"github.com/Amund211/lobbytracker/internal/app"
	"github.com/Amund211/lobbytracker/internal/config"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

// Fetch the stats of one player the same way the tracker does and print the roster entry
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	if len(os.Args) < 2 || os.Args[1] == "" {
		fail("No player name provided")
	}
	username := os.Args[1]

	conf, err := config.Load(config.DefaultSettingsPath, config.DefaultDotenvPath)
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	accountProvider, err := accountprovider.NewMojang(httpClient, time.Now)
	if err != nil {
		fail("Failed to initialize Mojang account provider", "error", err.Error())
	}
	hypixelAPI, err := playerprovider.NewHypixelAPIOrMock(conf, httpClient)
	if err != nil {
		fail("Failed to initialize Hypixel API", "error", err.Error())
	}
	playerProvider, err := playerprovider.NewHypixelPlayerProvider(hypixelAPI)
	if err != nil {
		fail("Failed to initialize player provider", "error", err.Error())
	}
	guildProvider, err := guildprovider.NewHypixelGuildProvider(hypixelAPI)
	if err != nil {
		fail("Failed to initialize guild provider", "error", err.Error())
	}

	resolveUUID := app.BuildResolveUUIDWithCache(cache.NewBasicCache[string](), accountProvider)
	fetchStats := app.BuildFetchStatsWithCache(cache.NewBasicCache[domain.StatsPayload](), resolveUUID, playerProvider, guildProvider)
	getPlayer := app.BuildGetPlayer(fetchStats)

	ctx := logging.AddToContext(context.Background(), logger)
	player := getPlayer(ctx, username)

	data, err := json.MarshalIndent(struct {
		domain.Player
		Tag string
	}{Player: player, Tag: player.Tag().String()}, "", "  ")
	if err != nil {
		fail("Failed to marshal player", "error", err.Error())
	}

	fmt.Println(string(data))
}
