package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Amund211/lobbytracker/internal/config"
	"github.com/stretchr/testify/require"
)

var allVariables = []string{
	"LOBBYTRACKER_ENVIRONMENT",
	"LOBBYTRACKER_LOG_FILE",
	"LOBBYTRACKER_START_AT_END",
	"HYPIXEL_API_KEY",
	"SENTRY_DSN",
	"LOBBYTRACKER_CONTROL_ADDR",
}

// Unset all config variables for the duration of the test.
// t.Setenv restores the original values, including values set by loading a dotenv file.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, variable := range allVariables {
		t.Setenv(variable, "")
		require.NoError(t, os.Unsetenv(variable))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func missingFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "does-not-exist")
}

func TestLoad(t *testing.T) {
	t.Run("settings file", func(t *testing.T) {
		cleanEnv(t)

		settingsPath := writeFile(t, "settings.toml", `
log_file = "/home/user/.minecraft/logs/latest.log"
api_key = "my-api-key"
start_at_end = true
list_concurrency = 4
stats_ttl_seconds = 60
control_addr = "127.0.0.1:9000"
`)

		conf, err := config.Load(settingsPath, missingFile(t))
		require.NoError(t, err)

		require.Equal(t, "/home/user/.minecraft/logs/latest.log", conf.LogFile())
		require.Equal(t, "my-api-key", conf.HypixelAPIKey())
		require.Equal(t, "", conf.SentryDSN())
		require.True(t, conf.StartAtEnd())
		require.Equal(t, 4, conf.ListConcurrency())
		require.Equal(t, 60*time.Second, conf.StatsTTL())
		require.Equal(t, "127.0.0.1:9000", conf.ControlAddr())
		require.True(t, conf.IsProduction())
		require.False(t, conf.IsDevelopment())
		require.Equal(t, "production", conf.Environment())
	})

	t.Run("defaults", func(t *testing.T) {
		cleanEnv(t)

		settingsPath := writeFile(t, "settings.toml", `
log_file = "latest.log"
api_key = "my-api-key"
`)

		conf, err := config.Load(settingsPath, missingFile(t))
		require.NoError(t, err)

		require.False(t, conf.StartAtEnd())
		require.Equal(t, 8, conf.ListConcurrency())
		require.Equal(t, 180*time.Second, conf.StatsTTL())
		require.Equal(t, "127.0.0.1:8127", conf.ControlAddr())
	})

	t.Run("control api can be disabled", func(t *testing.T) {
		cleanEnv(t)

		settingsPath := writeFile(t, "settings.toml", `
log_file = "latest.log"
api_key = "my-api-key"
control_addr = "127.0.0.1:9000"
`)

		t.Setenv("LOBBYTRACKER_CONTROL_ADDR", "")

		conf, err := config.Load(settingsPath, missingFile(t))
		require.NoError(t, err)
		require.Equal(t, "", conf.ControlAddr())
	})

	t.Run("environment overrides settings file", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("LOBBYTRACKER_LOG_FILE", "/from/env.log")
		t.Setenv("HYPIXEL_API_KEY", "env-key")
		t.Setenv("SENTRY_DSN", "https://sentry.example")
		t.Setenv("LOBBYTRACKER_START_AT_END", "true")

		settingsPath := writeFile(t, "settings.toml", `
log_file = "latest.log"
api_key = "my-api-key"
start_at_end = false
`)

		conf, err := config.Load(settingsPath, missingFile(t))
		require.NoError(t, err)

		require.Equal(t, "/from/env.log", conf.LogFile())
		require.Equal(t, "env-key", conf.HypixelAPIKey())
		require.Equal(t, "https://sentry.example", conf.SentryDSN())
		require.True(t, conf.StartAtEnd())
	})

	t.Run("dotenv file", func(t *testing.T) {
		cleanEnv(t)
		// Already set variables are not overridden by the dotenv file
		t.Setenv("LOBBYTRACKER_LOG_FILE", "/from/env.log")

		dotenvPath := writeFile(t, ".env", "HYPIXEL_API_KEY=dotenv-key\nLOBBYTRACKER_LOG_FILE=/from/dotenv.log\n")

		conf, err := config.Load(missingFile(t), dotenvPath)
		require.NoError(t, err)

		require.Equal(t, "/from/env.log", conf.LogFile())
		require.Equal(t, "dotenv-key", conf.HypixelAPIKey())
	})

	t.Run("development does not require an api key", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("LOBBYTRACKER_ENVIRONMENT", "development")
		t.Setenv("LOBBYTRACKER_LOG_FILE", "latest.log")

		conf, err := config.Load(missingFile(t), missingFile(t))
		require.NoError(t, err)

		require.True(t, conf.IsDevelopment())
		require.Equal(t, "", conf.HypixelAPIKey())
		require.Contains(t, conf.NonSensitiveString(), "development")
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("missing log file", func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("HYPIXEL_API_KEY", "key")

			_, err := config.Load(missingFile(t), missingFile(t))
			require.ErrorIs(t, err, config.ErrMissingRequiredValue)
			require.ErrorContains(t, err, "log_file")
		})

		t.Run("missing api key in production", func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("LOBBYTRACKER_LOG_FILE", "latest.log")

			_, err := config.Load(missingFile(t), missingFile(t))
			require.ErrorIs(t, err, config.ErrMissingRequiredValue)
			require.ErrorContains(t, err, "api_key")
		})

		t.Run("invalid environment", func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("LOBBYTRACKER_ENVIRONMENT", "staging")

			_, err := config.Load(missingFile(t), missingFile(t))
			require.ErrorIs(t, err, config.ErrInvalidValue)
		})

		t.Run("invalid start at end", func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("LOBBYTRACKER_LOG_FILE", "latest.log")
			t.Setenv("HYPIXEL_API_KEY", "key")
			t.Setenv("LOBBYTRACKER_START_AT_END", "sometimes")

			_, err := config.Load(missingFile(t), missingFile(t))
			require.ErrorIs(t, err, config.ErrInvalidValue)
		})

		t.Run("invalid list concurrency", func(t *testing.T) {
			cleanEnv(t)

			settingsPath := writeFile(t, "settings.toml", `
log_file = "latest.log"
api_key = "key"
list_concurrency = 0
`)
			_, err := config.Load(settingsPath, missingFile(t))
			require.ErrorIs(t, err, config.ErrInvalidValue)
		})

		t.Run("invalid stats ttl", func(t *testing.T) {
			cleanEnv(t)

			settingsPath := writeFile(t, "settings.toml", `
log_file = "latest.log"
api_key = "key"
stats_ttl_seconds = -5
`)
			_, err := config.Load(settingsPath, missingFile(t))
			require.ErrorIs(t, err, config.ErrInvalidValue)
		})

		t.Run("malformed settings file", func(t *testing.T) {
			cleanEnv(t)

			settingsPath := writeFile(t, "settings.toml", `log_file = `)
			_, err := config.Load(settingsPath, missingFile(t))
			require.ErrorContains(t, err, "parse settings")
		})
	})
}
