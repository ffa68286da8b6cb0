package playerprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Amund211/lobbytracker/internal/config"
	"github.com/Amund211/lobbytracker/internal/constants"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/ratelimiting"
	"github.com/Amund211/lobbytracker/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Hypixel API keys allow 300 requests per 5 minutes
const (
	hypixelRequestLimit  = 300
	hypixelRequestWindow = 5 * time.Minute

	hypixelMaxOperationTime = 2 * time.Second
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HypixelAPI returns the raw response body, status code and query time.
// The player and guild endpoints share the request limit of the API key.
type HypixelAPI interface {
	GetPlayerData(ctx context.Context, uuid string) ([]byte, int, time.Time, error)
	GetGuildData(ctx context.Context, uuid string) ([]byte, int, time.Time, error)
}

type mockedHypixelAPI struct {
	nowFunc func() time.Time
}

func (hypixelAPI *mockedHypixelAPI) GetPlayerData(ctx context.Context, uuid string) ([]byte, int, time.Time, error) {
	return fmt.Appendf(nil, `{"success":true,"player":{"uuid":"%s","achievements":{"bedwars_level":1},"stats":{"Bedwars":{}}}}`, uuid), 200, hypixelAPI.nowFunc(), nil
}

func (hypixelAPI *mockedHypixelAPI) GetGuildData(ctx context.Context, uuid string) ([]byte, int, time.Time, error) {
	return []byte(`{"success":true,"guild":null}`), 200, hypixelAPI.nowFunc(), nil
}

type hypixelAPIImpl struct {
	httpClient HttpClient
	nowFunc    func() time.Time
	limiter    ratelimiting.RequestLimiter
	apiKey     string

	tracer trace.Tracer
}

func (hypixelAPI *hypixelAPIImpl) GetPlayerData(ctx context.Context, uuid string) ([]byte, int, time.Time, error) {
	ctx, span := hypixelAPI.tracer.Start(ctx, "HypixelAPI.GetPlayerData")
	defer span.End()

	return hypixelAPI.get(ctx, fmt.Sprintf("https://api.hypixel.net/player?uuid=%s", url.QueryEscape(uuid)))
}

func (hypixelAPI *hypixelAPIImpl) GetGuildData(ctx context.Context, uuid string) ([]byte, int, time.Time, error) {
	ctx, span := hypixelAPI.tracer.Start(ctx, "HypixelAPI.GetGuildData")
	defer span.End()

	return hypixelAPI.get(ctx, fmt.Sprintf("https://api.hypixel.net/guild?player=%s", url.QueryEscape(uuid)))
}

func (hypixelAPI *hypixelAPIImpl) get(ctx context.Context, url string) ([]byte, int, time.Time, error) {
	logger := logging.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.ErrorContext(ctx, err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("API-Key", hypixelAPI.apiKey)

	var statusCode int
	var data []byte
	var queriedAt time.Time
	start := hypixelAPI.nowFunc()
	ran := hypixelAPI.limiter.Limit(ctx, hypixelMaxOperationTime, func() {
		var resp *http.Response
		resp, err = hypixelAPI.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("failed to send request: %w", err)
			return
		}

		queriedAt = hypixelAPI.nowFunc()
		statusCode = resp.StatusCode

		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			err = fmt.Errorf("failed to read response body: %w", err)
			return
		}
	})
	if !ran {
		logger.WarnContext(ctx, "Did not query hypixel due to rate limiting", "ctx_error", ctx.Err())
		return []byte{}, -1, time.Time{}, fmt.Errorf("%w: too many requests to hypixel API", domain.ErrTemporarilyUnavailable)
	}
	if err != nil {
		logger.ErrorContext(ctx, err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	logger.InfoContext(ctx, "hypixel request completed", "status", statusCode, "duration", queriedAt.Sub(start).String())

	return data, statusCode, queriedAt, nil
}

func NewHypixelAPI(httpClient HttpClient, nowFunc func() time.Time, afterFunc func(time.Duration) <-chan time.Time, apiKey string) (HypixelAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing hypixel API key")
	}

	return &hypixelAPIImpl{
		httpClient: httpClient,
		nowFunc:    nowFunc,
		limiter:    ratelimiting.NewWindowLimitRequestLimiter(hypixelRequestLimit, hypixelRequestWindow, nowFunc, afterFunc),
		apiKey:     apiKey,

		tracer: otel.Tracer("lobbytracker/playerprovider/hypixel_api"),
	}, nil
}

func NewHypixelAPIOrMock(config config.Config, httpClient HttpClient) (HypixelAPI, error) {
	if config.HypixelAPIKey() != "" {
		return NewHypixelAPI(httpClient, time.Now, time.After, config.HypixelAPIKey())
	}
	if config.IsDevelopment() {
		return &mockedHypixelAPI{nowFunc: time.Now}, nil
	}
	return nil, fmt.Errorf("missing Hypixel API key in non-development environment")
}
