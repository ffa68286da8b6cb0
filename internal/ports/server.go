package ports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/lobbytracker/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// NewControlServer exposes the roster and its settings over HTTP for a local user interface
func NewControlServer(
	addr string,
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/roster", MakeGetRosterHandler(roster, rootLogger, addReportingToContext))
	mux.HandleFunc("DELETE /v1/roster", MakeClearRosterHandler(roster, rootLogger, addReportingToContext))
	mux.HandleFunc("POST /v1/roster/sort", MakeSortRosterHandler(roster, rootLogger, addReportingToContext))
	mux.HandleFunc("POST /v1/roster/players/{username}", MakeAddPlayerHandler(roster, rootLogger, addReportingToContext))
	mux.HandleFunc("DELETE /v1/roster/players/{username}", MakeRemovePlayerHandler(roster, rootLogger, addReportingToContext))

	mux.HandleFunc("GET /v1/settings", MakeGetSettingsHandler(roster, rootLogger, addReportingToContext))
	mux.HandleFunc("PATCH /v1/settings", MakeUpdateSettingsHandler(roster, rootLogger, addReportingToContext))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve until ctx is cancelled, then shut the server down gracefully
func RunControlServer(ctx context.Context, server *http.Server) error {
	logger := logging.FromContext(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Starting control server", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("control server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down control server: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control server stopped: %w", err)
	}

	logger.InfoContext(ctx, "Control server shut down")
	return nil
}
