package playerprovider

import (
	"context"

	"github.com/Amund211/lobbytracker/internal/domain"
)

type PlayerProvider interface {
	// Raises domain.ErrPlayerNotFound if Hypixel has no player with the given UUID
	//
	// Raises domain.ErrTemporarilyUnavailable if the provider implementation receives an error believed to be intermittent. The call may be retried later.
	GetPlayer(ctx context.Context, uuid string) (domain.StatsPayload, error)
}
