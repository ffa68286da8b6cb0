package reporting

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/Amund211/lobbytracker/internal/config"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/getsentry/sentry-go"
)

var uuidRx = regexp.MustCompile(`[0-9a-f]{8}-?([0-9a-f]{4}-?){3}[0-9a-f]{12}`)
var hostRx = regexp.MustCompile(`\[:{0,2}([0-9a-f]{0,4}:?){1,8}\]:\d+`)
var usernameRx = regexp.MustCompile(`(/users/profiles/minecraft/)[^/"\s]+"`)

func sanitizeError(err string) string {
	err = uuidRx.ReplaceAllString(err, "<uuid>")
	err = hostRx.ReplaceAllString(err, "<host>")
	err = usernameRx.ReplaceAllString(err, `${1}<username>"`)
	return err
}

func Report(ctx context.Context, err error, extras ...map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	logger := logging.FromContext(ctx)
	if hub == nil {
		logger.WarnContext(ctx, "Failed to get Sentry hub from context", "error", err, "extras", extras)
		return
	}

	logger.ErrorContext(
		ctx,
		"Reporting error to Sentry",
		slog.String("error", err.Error()),
		slog.Any("extras", extras),
	)

	hub.WithScope(func(scope *sentry.Scope) {
		meta := MetaFromContext(ctx)
		scope.SetTags(meta.tags)
		for key, value := range meta.extras {
			scope.SetExtra(key, value)
		}
		if !meta.startedAt.IsZero() {
			scope.SetExtra("secondsSinceStart", time.Since(meta.startedAt).Seconds())
		}

		for _, extra := range extras {
			if extra == nil {
				continue
			}
			for key, value := range extra {
				scope.SetExtra(key, value)
			}
		}

		if err == nil {
			err = errors.New("No error provided")
		}

		scope.SetFingerprint([]string{"{{ default }}", sanitizeError(err.Error())})
		hub.CaptureException(err)
	})
}

// Attach a Sentry hub to the context, tagging all reports with the given component
func withHub(ctx context.Context, component string) context.Context {
	hub := sentry.CurrentHub().Clone()
	ctx = sentry.SetHubOnContext(ctx, hub)
	ctx = withComponent(ctx, component)
	return setStartedAtInContext(ctx, time.Now())
}

func InitSentry(sentryDSN string, environment string) (func(context.Context, string) context.Context, func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         sentryDSN,
		Environment: environment,
	})
	if err != nil {
		return nil, nil, err
	}

	flush := func() {
		sentry.Flush(5 * time.Second)
	}

	return withHub, flush, nil
}

// Returns a function that prepares a context for reporting, and a function to flush
// pending events before exit. Reporting is disabled when no DSN is configured.
func NewSentryOrMock(config config.Config) (func(context.Context, string) context.Context, func(), error) {
	if config.SentryDSN() != "" {
		return InitSentry(config.SentryDSN(), config.Environment())
	}

	addToContext := func(ctx context.Context, component string) context.Context {
		return withComponent(ctx, component)
	}
	flush := func() {}
	return addToContext, flush, nil
}
