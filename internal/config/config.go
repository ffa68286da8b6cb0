package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	development environment = "development"
)

const (
	DefaultSettingsPath    = "settings.toml"
	DefaultDotenvPath      = ".env"
	defaultListConcurrency = 8
	defaultStatsTTL        = 180 * time.Second
	defaultControlAddr     = "127.0.0.1:8127"
)

type Config struct {
	logFile         string
	hypixelAPIKey   string
	sentryDSN       string
	startAtEnd      bool
	listConcurrency int
	statsTTL        time.Duration
	controlAddr     string
	env             environment
}

func (c *Config) LogFile() string {
	return c.logFile
}

func (c *Config) HypixelAPIKey() string {
	return c.hypixelAPIKey
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// Start reading the log at its current end instead of replaying it from the beginning
func (c *Config) StartAtEnd() bool {
	return c.startAtEnd
}

// Max concurrent player fetches when processing a lobby list
func (c *Config) ListConcurrency() int {
	return c.listConcurrency
}

func (c *Config) StatsTTL() time.Duration {
	return c.statsTTL
}

// Listen address of the local control API. Empty when the API is disabled.
func (c *Config) ControlAddr() string {
	return c.controlAddr
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, logFile: %s, startAtEnd: %t, listConcurrency: %d, statsTTL: %s, controlAddr: %s, ...}",
		string(c.env), c.logFile, c.startAtEnd, c.listConcurrency, c.statsTTL, c.controlAddr,
	)
}

type settingsFile struct {
	LogFile         string  `toml:"log_file"`
	APIKey          string  `toml:"api_key"`
	SentryDSN       string  `toml:"sentry_dsn"`
	StartAtEnd      *bool   `toml:"start_at_end"`
	ListConcurrency *int    `toml:"list_concurrency"`
	StatsTTLSeconds *int    `toml:"stats_ttl_seconds"`
	ControlAddr     *string `toml:"control_addr"`
}

func readSettingsFile(path string) (settingsFile, error) {
	var raw settingsFile

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// Everything can be provided through the environment instead
		return raw, nil
	} else if err != nil {
		return settingsFile{}, fmt.Errorf("read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &raw); err != nil {
		return settingsFile{}, fmt.Errorf("parse settings: %w", err)
	}

	return raw, nil
}

// Load the config from the settings file, a dotenv file and the environment.
//
// Environment variables take precedence over the dotenv file, which in turn takes
// precedence over the settings file. Both files are optional.
func Load(settingsPath string, dotenvPath string) (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key string, value any) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%v)", ErrInvalidValue, key, value)
	}

	// NOTE: Does not override variables that are already set
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	raw, err := readSettingsFile(settingsPath)
	if err != nil {
		return Config{}, err
	}

	env := production
	if rawEnv, ok := os.LookupEnv("LOBBYTRACKER_ENVIRONMENT"); ok {
		switch rawEnv {
		case "production":
			env = production
		case "development":
			env = development
		default:
			return invalidValue("LOBBYTRACKER_ENVIRONMENT", rawEnv)
		}
	}

	logFile := strings.TrimSpace(envOr("LOBBYTRACKER_LOG_FILE", raw.LogFile))
	hypixelAPIKey := strings.TrimSpace(envOr("HYPIXEL_API_KEY", raw.APIKey))
	sentryDSN := strings.TrimSpace(envOr("SENTRY_DSN", raw.SentryDSN))

	if logFile == "" {
		return missingKey("log_file")
	}
	if hypixelAPIKey == "" && env != development {
		return missingKey("api_key")
	}

	startAtEnd := false
	if raw.StartAtEnd != nil {
		startAtEnd = *raw.StartAtEnd
	}
	if rawStartAtEnd, ok := os.LookupEnv("LOBBYTRACKER_START_AT_END"); ok {
		startAtEnd, err = strconv.ParseBool(rawStartAtEnd)
		if err != nil {
			return invalidValue("LOBBYTRACKER_START_AT_END", rawStartAtEnd)
		}
	}

	listConcurrency := defaultListConcurrency
	if raw.ListConcurrency != nil {
		if *raw.ListConcurrency < 1 {
			return invalidValue("list_concurrency", *raw.ListConcurrency)
		}
		listConcurrency = *raw.ListConcurrency
	}

	statsTTL := defaultStatsTTL
	if raw.StatsTTLSeconds != nil {
		if *raw.StatsTTLSeconds < 1 {
			return invalidValue("stats_ttl_seconds", *raw.StatsTTLSeconds)
		}
		statsTTL = time.Duration(*raw.StatsTTLSeconds) * time.Second
	}

	// An explicitly empty address disables the control API
	controlAddr := defaultControlAddr
	if raw.ControlAddr != nil {
		controlAddr = strings.TrimSpace(*raw.ControlAddr)
	}
	if rawControlAddr, ok := os.LookupEnv("LOBBYTRACKER_CONTROL_ADDR"); ok {
		controlAddr = strings.TrimSpace(rawControlAddr)
	}

	return Config{
		logFile:         logFile,
		hypixelAPIKey:   hypixelAPIKey,
		sentryDSN:       sentryDSN,
		startAtEnd:      startAtEnd,
		listConcurrency: listConcurrency,
		statsTTL:        statsTTL,
		controlAddr:     controlAddr,
		env:             env,
	}, nil
}

func envOr(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
