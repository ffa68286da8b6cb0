package playerprovider_test

import (
	"context"
	"testing"
	"time"

	"github.com/Amund211/lobbytracker/internal/adapters/playerprovider"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const UUID = "01234567-89ab-cdef-0123-456789abcdef"

type mockedHypixelAPI struct {
	t          *testing.T
	data       []byte
	statusCode int
	queriedAt  time.Time
	err        error
}

func (m *mockedHypixelAPI) GetPlayerData(ctx context.Context, uuid string) ([]byte, int, time.Time, error) {
	m.t.Helper()

	require.Equal(m.t, UUID, uuid)

	return m.data, m.statusCode, m.queriedAt, m.err
}

func (m *mockedHypixelAPI) GetGuildData(ctx context.Context, uuid string) ([]byte, int, time.Time, error) {
	m.t.Helper()
	m.t.Fatal("player provider should not query guilds")
	return nil, 0, time.Time{}, nil
}

func ptr[T any](v T) *T {
	return &v
}

func TestHypixelPlayerProvider(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	t.Run("full player", func(t *testing.T) {
		t.Parallel()

		hypixelAPI := &mockedHypixelAPI{
			t: t,
			data: []byte(`{
  "success": true,
  "player": {
    "uuid": "0123456789abcdef0123456789abcdef",
    "displayname": "Player",
    "rank": "YOUTUBER",
    "newPackageRank": "MVP_PLUS",
    "monthlyPackageRank": "SUPERSTAR",
    "achievementPoints": 8950,
    "karma": 123456,
    "achievements": {"bedwars_level": 312},
    "stats": {
      "Bedwars": {
        "Experience": 1500000,
        "winstreak": 4,
        "games_played_bedwars": 2000,
        "wins_bedwars": 1200,
        "losses_bedwars": 800,
        "beds_broken_bedwars": 3000,
        "beds_lost_bedwars": 1000,
        "final_kills_bedwars": 6000,
        "final_deaths_bedwars": 1500
      }
    }
  }
}`),
			statusCode: 200,
			queriedAt:  now,
		}
		provider, err := playerprovider.NewHypixelPlayerProvider(hypixelAPI)
		require.NoError(t, err)

		payload, err := provider.GetPlayer(t.Context(), UUID)
		require.NoError(t, err)

		require.Equal(t, domain.StatsPayload{
			UUID:              UUID,
			QueriedAt:         now,
			Rank:              ptr("YOUTUBER"),
			DonatorRank:       ptr("MVP_PLUS"),
			MonthlyRank:       ptr("SUPERSTAR"),
			AchievementPoints: ptr(int64(8950)),
			Karma:             ptr(int64(123456)),
			Level:             ptr(int64(312)),
			Bedwars: domain.BedwarsPayload{
				BedsBroken:  ptr(int64(3000)),
				BedsLost:    ptr(int64(1000)),
				FinalKills:  ptr(int64(6000)),
				FinalDeaths: ptr(int64(1500)),
				GamesPlayed: ptr(int64(2000)),
				Wins:        ptr(int64(1200)),
				Losses:      ptr(int64(800)),
				Winstreak:   ptr(int64(4)),
			},
		}, payload)
	})

	t.Run("missing fields stay nil", func(t *testing.T) {
		t.Parallel()

		hypixelAPI := &mockedHypixelAPI{
			t:          t,
			data:       []byte(`{"success":true,"player":{"uuid":"0123456789abcdef0123456789abcdef","stats":{"Bedwars":{"final_kills_bedwars":0}}}}`),
			statusCode: 200,
			queriedAt:  now,
		}
		provider, err := playerprovider.NewHypixelPlayerProvider(hypixelAPI)
		require.NoError(t, err)

		payload, err := provider.GetPlayer(t.Context(), UUID)
		require.NoError(t, err)

		require.Equal(t, UUID, payload.UUID)
		require.Nil(t, payload.Rank)
		require.Nil(t, payload.Level)
		require.Nil(t, payload.Bedwars.FinalDeaths)
		require.Nil(t, payload.GuildName)
		// Present zeroes are kept
		require.Equal(t, ptr(int64(0)), payload.Bedwars.FinalKills)
	})

	t.Run("only accepts normalized ids", func(t *testing.T) {
		t.Parallel()

		hypixelAPI := &mockedHypixelAPI{t: t}
		provider, err := playerprovider.NewHypixelPlayerProvider(hypixelAPI)
		require.NoError(t, err)

		_, err = provider.GetPlayer(t.Context(), "0123456789abcdef0123456789abcdef")
		require.Error(t, err)
	})

	errorCases := []struct {
		name                 string
		data                 string
		statusCode           int
		err                  error
		notFound             bool
		temporarilyUnavailable bool
	}{
		{
			name:       "player not found",
			data:       `{"success":true,"player":null}`,
			statusCode: 200,
			notFound:   true,
		},
		{
			name:       "success=false from Hypixel",
			data:       `{"success":false,"player":null}`,
			statusCode: 200,
		},
		{
			name:       "error from hypixel",
			statusCode: -1,
			err:        assert.AnError,
		},
		{
			// Gateway errors can give us cloudflare html
			name:                 "html from hypixel",
			data:                 `<!DOCTYPE html>`,
			statusCode:           200,
			temporarilyUnavailable: true,
		},
		{
			name:       "invalid JSON from hypixel",
			data:       `something went wrong`,
			statusCode: 200,
		},
		{
			name:       "weird data format from hypixel",
			data:       `{"success":true,"player":{"stats":{"Bedwars":{"final_kills_bedwars":"string"}}}}`,
			statusCode: 200,
		},
		{
			name:       "403 from hypixel",
			data:       `{"success":false,"cause":"Invalid API key"}`,
			statusCode: 403,
		},
		{
			name:                 "429 from hypixel",
			data:                 `{"success":false,"cause":"Key throttle"}`,
			statusCode:           429,
			temporarilyUnavailable: true,
		},
		{
			name:                 "bad gateway from hypixel",
			data:                 `<!DOCTYPE html>`,
			statusCode:           502,
			temporarilyUnavailable: true,
		},
		{
			name:                 "service unavailable from hypixel",
			data:                 `<!DOCTYPE html>`,
			statusCode:           503,
			temporarilyUnavailable: true,
		},
		{
			name:                 "gateway timeout from hypixel",
			data:                 `<!DOCTYPE html>`,
			statusCode:           504,
			temporarilyUnavailable: true,
		},
	}

	for _, c := range errorCases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			hypixelAPI := &mockedHypixelAPI{
				t:          t,
				data:       []byte(c.data),
				statusCode: c.statusCode,
				queriedAt:  now,
				err:        c.err,
			}
			provider, err := playerprovider.NewHypixelPlayerProvider(hypixelAPI)
			require.NoError(t, err)

			payload, err := provider.GetPlayer(t.Context(), UUID)
			require.Error(t, err)
			require.Equal(t, domain.StatsPayload{}, payload)

			if c.err != nil {
				require.ErrorIs(t, err, c.err)
			}

			if c.notFound {
				require.ErrorIs(t, err, domain.ErrPlayerNotFound)
			} else {
				require.NotErrorIs(t, err, domain.ErrPlayerNotFound)
			}

			if c.temporarilyUnavailable {
				require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
			} else {
				require.NotErrorIs(t, err, domain.ErrTemporarilyUnavailable)
			}
		})
	}
}
