package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/parsing"
	"github.com/Amund211/lobbytracker/internal/reporting"
)

type lineSource interface {
	Run(ctx context.Context, paused func() bool, handle func(ctx context.Context, lines []string)) error
}

type eventSink interface {
	Apply(ctx context.Context, event domain.Event)
	Paused() bool
}

// Run feeds every line from the source through the parser into the roster until ctx
// is cancelled or the source fails.
//
// Events are applied one at a time in log order. Cancellation is not an error.
func Run(ctx context.Context, source lineSource, roster eventSink) error {
	ctx = logging.WithComponent(ctx, "pipeline")
	logger := logging.FromContext(ctx)

	handle := func(ctx context.Context, lines []string) {
		for _, line := range lines {
			event := parsing.ParseLine(line)
			if _, ok := event.(domain.Nothing); ok {
				continue
			}
			logger.DebugContext(ctx, "Applying event", "event", fmt.Sprintf("%T", event))
			roster.Apply(ctx, event)
		}
	}

	logger.InfoContext(ctx, "Starting pipeline")
	err := source.Run(ctx, roster.Paused, handle)
	if err == nil || errors.Is(err, context.Canceled) {
		logger.InfoContext(ctx, "Pipeline stopped")
		return nil
	}

	err = fmt.Errorf("pipeline stopped: %w", err)
	reporting.Report(ctx, err)
	return err
}
