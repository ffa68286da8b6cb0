package ports

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
)

type settingsResponse struct {
	Success         bool `json:"success"`
	Paused          bool `json:"paused"`
	AutoJoin        bool `json:"autoJoin"`
	AutoLeave       bool `json:"autoLeave"`
	AutoAddOnList   bool `json:"autoAddOnList"`
	AutoClearOnList bool `json:"autoClearOnList"`
	AutoSort        bool `json:"autoSort"`
	AutoTile        bool `json:"autoTile"`
}

// Omitted fields are left unchanged
type settingsRequest struct {
	Paused          *bool `json:"paused"`
	AutoJoin        *bool `json:"autoJoin"`
	AutoLeave       *bool `json:"autoLeave"`
	AutoAddOnList   *bool `json:"autoAddOnList"`
	AutoClearOnList *bool `json:"autoClearOnList"`
	AutoSort        *bool `json:"autoSort"`
	AutoTile        *bool `json:"autoTile"`
}

func settingsToResponse(settings domain.Settings) settingsResponse {
	return settingsResponse{
		Success:         true,
		Paused:          settings.Paused,
		AutoJoin:        settings.AutoJoin,
		AutoLeave:       settings.AutoLeave,
		AutoAddOnList:   settings.AutoAddOnList,
		AutoClearOnList: settings.AutoClearOnList,
		AutoSort:        settings.AutoSort,
		AutoTile:        settings.AutoTile,
	}
}

func (req settingsRequest) apply(settings *domain.Settings) {
	set := func(target *bool, value *bool) {
		if value != nil {
			*target = *value
		}
	}

	set(&settings.Paused, req.Paused)
	set(&settings.AutoJoin, req.AutoJoin)
	set(&settings.AutoLeave, req.AutoLeave)
	set(&settings.AutoAddOnList, req.AutoAddOnList)
	set(&settings.AutoClearOnList, req.AutoClearOnList)
	set(&settings.AutoSort, req.AutoSort)
	set(&settings.AutoTile, req.AutoTile)
}

func MakeGetSettingsHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "get_settings")

	handler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, settingsToResponse(roster.Settings()))
	}

	return middleware(handler)
}

func MakeUpdateSettingsHandler(
	roster Roster,
	rootLogger *slog.Logger,
	addReportingToContext func(context.Context, string) context.Context,
) http.HandlerFunc {
	middleware := buildMiddleware(rootLogger, addReportingToContext, "update_settings")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request settingsRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&request); err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid settings request", "error", err.Error())
			writeError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}

		var updated domain.Settings
		roster.UpdateSettings(func(settings *domain.Settings) {
			request.apply(settings)
			updated = *settings
		})

		logging.FromContext(ctx).InfoContext(ctx, "Updated settings", "paused", updated.Paused, "autoJoin", updated.AutoJoin)

		writeJSON(ctx, w, http.StatusOK, settingsToResponse(updated))
	}

	return middleware(handler)
}
