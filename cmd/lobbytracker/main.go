package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/lobbytracker/internal/adapters/accountprovider"
	"github.com/Amund211/lobbytracker/internal/adapters/cache"
	"github.com/Amund211/lobbytracker/internal/adapters/guildprovider"
	"github.com/Amund211/lobbytracker/internal/adapters/playerprovider"
	"github.com/Amund211/lobbytracker/internal/app"
	"github.com/Amund211/lobbytracker/internal/config"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/logtail"
	"github.com/Amund211/lobbytracker/internal/pipeline"
	"github.com/Amund211/lobbytracker/internal/ports"
	"github.com/Amund211/lobbytracker/internal/reporting"
	"github.com/Amund211/lobbytracker/internal/roster"
	"github.com/Amund211/lobbytracker/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

const rosterLogInterval = 30 * time.Second

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil))).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.Load(config.DefaultSettingsPath, config.DefaultDotenvPath)
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "lobbytracker")
	if err != nil {
		fail("Failed to set up OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()
	logger.Info("Initialized OpenTelemetry", "enabled", telemetry.Enabled())

	addReportingToContext, flush, err := reporting.NewSentryOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry")

	ctx = logging.AddToContext(ctx, logger)
	ctx = addReportingToContext(ctx, "lobbytracker")

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
	logger.Info("Initialized Hypixel API")

	playerProvider, err := playerprovider.NewHypixelPlayerProvider(hypixelAPI)
	if err != nil {
		fail("Failed to initialize player provider", "error", err.Error())
	}

	guildProvider, err := guildprovider.NewHypixelGuildProvider(hypixelAPI)
	if err != nil {
		fail("Failed to initialize guild provider", "error", err.Error())
	}

	// Username to UUID mappings are kept for the lifetime of the process
	uuidCache := cache.NewBasicCache[string]()
	statsCache := cache.NewTTLCache[domain.StatsPayload](conf.StatsTTL())

	resolveUUID := app.BuildResolveUUIDWithCache(uuidCache, accountProvider)
	fetchStats := app.BuildFetchStatsWithCache(statsCache, resolveUUID, playerProvider, guildProvider)
	getPlayer := app.BuildGetPlayer(fetchStats)

	lobby, err := roster.New(getPlayer, domain.DefaultSettings(), roster.WithListConcurrency(conf.ListConcurrency()))
	if err != nil {
		fail("Failed to initialize roster", "error", err.Error())
	}

	tailerOpts := []logtail.Option{}
	if conf.StartAtEnd() {
		tailerOpts = append(tailerOpts, logtail.WithStartAtEnd())
	}
	tailer, err := logtail.Open(conf.LogFile(), tailerOpts...)
	if err != nil {
		fail("Failed to open log file", "error", err.Error(), "path", conf.LogFile())
	}
	defer tailer.Close()

	go logRosterInInterval(ctx, lobby)

	if conf.ControlAddr() != "" {
		controlServer := ports.NewControlServer(conf.ControlAddr(), lobby, logger, addReportingToContext)
		go func() {
			if err := ports.RunControlServer(ctx, controlServer); err != nil {
				// The tracker keeps running without the control API
				reporting.Report(ctx, err)
			}
		}()
	}

	logger.Info("Init complete")
	if err := pipeline.Run(ctx, tailer, lobby); err != nil {
		// Deferred cleanup is skipped by os.Exit
		flush()
		fail("Pipeline error", "error", err.Error())
	}
	logger.Info("Shutdown")
}

func logRosterInInterval(ctx context.Context, lobby *roster.Roster) {
	ctx = logging.WithComponent(ctx, "rosterlog")
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(rosterLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		players := lobby.Players()
		entries := make([]any, 0, len(players))
		for _, player := range players {
			entries = append(entries, slog.Group(player.Username,
				slog.Bool("hasData", player.HasData),
				slog.Float64("fkdr", player.FinalsRatio),
				slog.String("tag", player.Tag().String()),
			))
		}
		logger.InfoContext(ctx, "Current lobby", append([]any{slog.Int("count", len(players))}, entries...)...)
	}
}
