package app

import (
	"context"
	"fmt"

	"github.com/Amund211/lobbytracker/internal/adapters/cache"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/reporting"
	"github.com/Amund211/lobbytracker/internal/strutils"
)

type ResolveUUID func(ctx context.Context, username string) (string, error)

type accountProvider interface {
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)
}

func resolveUUIDWithoutCache(ctx context.Context, provider accountProvider, username string) (string, error) {
	account, err := provider.GetAccountByUsername(ctx, username)
	if err != nil {
		// NOTE: AccountProvider implementations handle their own error reporting
		return "", fmt.Errorf("could not get account for username: %w", err)
	}

	if !strutils.UUIDIsNormalized(account.UUID) {
		err := fmt.Errorf("UUID is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": account.UUID,
		})
		return "", err
	}

	return account.UUID, nil
}

// A username maps to the same account for the lifetime of the process, so resolved
// uuids are kept forever. Failed lookups are not cached.
func BuildResolveUUIDWithCache(uuidCache cache.Cache[string], provider accountProvider) ResolveUUID {
	return func(ctx context.Context, username string) (string, error) {
		usernameLength := len(username)
		if usernameLength == 0 || usernameLength > 100 {
			logging.FromContext(ctx).WarnContext(ctx, "Invalid username length", "length", usernameLength)
			return "", fmt.Errorf("%w: invalid length %d", domain.ErrInvalidUsername, usernameLength)
		}

		uuid, _, err := cache.GetOrCreate(ctx, uuidCache, username, func() (string, error) {
			return resolveUUIDWithoutCache(ctx, provider, username)
		})
		if err != nil {
			// NOTE: GetOrCreate only returns an error if create() fails or ctx is cancelled.
			// resolveUUIDWithoutCache handles its own error reporting
			return "", fmt.Errorf("failed to cache.GetOrCreate uuid for username: %w", err)
		}

		return uuid, nil
	}
}
