package accountprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Amund211/lobbytracker/internal/constants"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/ratelimiting"
	"github.com/Amund211/lobbytracker/internal/reporting"
	"github.com/Amund211/lobbytracker/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Mojang allows 600 profile lookups per 10 minutes
const (
	mojangBurstSize      = 600
	mojangRefillInterval = time.Second

	getProfileMaxOperationTime = 2 * time.Second
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type AccountProvider interface {
	// Raises domain.ErrUsernameNotFound if no account has the given username
	//
	// Raises domain.ErrTemporarilyUnavailable if Mojang is rate limiting us or is down. The call may be retried later.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)
}

type mojangMetricsCollection struct {
	requestCount metric.Int64Counter
}

func setupMojangMetrics(meter metric.Meter) (mojangMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("accountprovider/mojang/request_count")
	if err != nil {
		return mojangMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	return mojangMetricsCollection{
		requestCount: requestCount,
	}, nil
}

type Mojang struct {
	httpClient HttpClient
	nowFunc    func() time.Time
	limiter    ratelimiting.RequestLimiter

	metrics mojangMetricsCollection
	tracer  trace.Tracer
}

func NewMojang(httpClient HttpClient, nowFunc func() time.Time) (*Mojang, error) {
	return NewMojangWithLimiter(
		httpClient,
		nowFunc,
		ratelimiting.NewTokenBucketRequestLimiter(mojangRefillInterval, mojangBurstSize),
	)
}

func NewMojangWithLimiter(httpClient HttpClient, nowFunc func() time.Time, limiter ratelimiting.RequestLimiter) (*Mojang, error) {
	const name = "lobbytracker/accountprovider/mojang"

	metrics, err := setupMojangMetrics(otel.Meter(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &Mojang{
		httpClient: httpClient,
		nowFunc:    nowFunc,
		limiter:    limiter,

		metrics: metrics,
		tracer:  otel.Tracer(name),
	}, nil
}

func (m *Mojang) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	ctx, span := m.tracer.Start(ctx, "Mojang.GetAccountByUsername")
	defer span.End()

	return m.getProfile(ctx, fmt.Sprintf("https://api.mojang.com/users/profiles/minecraft/%s", url.PathEscape(username)))
}

func (m *Mojang) getProfile(ctx context.Context, url string) (domain.Account, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return domain.Account{}, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)

	var resp *http.Response
	var data []byte
	ran := m.limiter.Limit(ctx, getProfileMaxOperationTime, func() {
		resp, err = m.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("failed to send request: %w", err)
			return
		}

		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			err = fmt.Errorf("failed to read response body: %w", err)
			return
		}
	})
	if !ran {
		logging.FromContext(ctx).WarnContext(ctx, "Did not query mojang due to rate limiting", "ctx_error", ctx.Err())
		return domain.Account{}, fmt.Errorf("%w: too many requests to mojang API", domain.ErrTemporarilyUnavailable)
	}
	if err != nil {
		reporting.Report(ctx, err)
		return domain.Account{}, err
	}

	m.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.String("status_code", strconv.Itoa(resp.StatusCode))))

	account, err := accountFromMojangResponse(resp.StatusCode, data, m.nowFunc())
	if err != nil {
		if errors.Is(err, domain.ErrUsernameNotFound) {
			// Nicked players and typos are expected. Pass through error but don't report
			return domain.Account{}, err
		}

		err := fmt.Errorf("failed to get account from mojang response: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"data":   string(data),
			"status": strconv.Itoa(resp.StatusCode),
		})
		return domain.Account{}, err
	}

	return account, nil
}

type mojangResponse struct {
	UUID     string `json:"id"`
	Username string `json:"name"`
}

func accountFromMojangResponse(statusCode int, data []byte, queriedAt time.Time) (domain.Account, error) {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return domain.Account{}, fmt.Errorf("%w: mojang API returned status code %d", domain.ErrTemporarilyUnavailable, statusCode)
	}

	switch statusCode {
	case http.StatusNotFound,
		http.StatusNoContent:
		return domain.Account{}, domain.ErrUsernameNotFound
	}

	if statusCode != http.StatusOK {
		return domain.Account{}, fmt.Errorf("mojang API returned unexpected status code %d", statusCode)
	}

	var response mojangResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse mojang response: %w", err)
	}

	uuid, err := strutils.NormalizeUUID(response.UUID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to normalize UUID from mojang: %w", err)
	}

	return domain.Account{
		Username:  response.Username,
		UUID:      uuid,
		QueriedAt: queriedAt,
	}, nil
}
