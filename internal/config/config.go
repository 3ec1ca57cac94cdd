package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the location assistant.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the public API server.
// - HealthPort: The port for the monitoring server (/healthz, /metrics).
// - AgentURL: The base URL of the positioning agent; empty disables geolocation.
// - FixTimeout: The bound for one current-position request.
// - Grounding: Configuration for the address-grounding provider.
// - Providers: Per-step timeouts of the IP info cascade.
type Config struct {
	Env        string
	Port       int
	HealthPort int
	AgentURL   string
	FixTimeout time.Duration
	Grounding  GroundingConfig
	Providers  ProviderTimeouts
}

// GroundingConfig holds the settings of the address-grounding provider.
type GroundingConfig struct {
	APIKey    string // APIKey for the Google Maps API.
	Language  string // Language the address text is requested in.
	RateLimit int    // RateLimit in requests per second.
}

// ProviderTimeouts holds per-step attempt bounds for the IP info cascade.
type ProviderTimeouts struct {
	Primary   time.Duration // Primary is the bound for the richest provider.
	Secondary time.Duration // Secondary is the bound for the fallback provider.
	Minimal   time.Duration // Minimal is the bound for the IP-only last resort.
}

// MustLoad loads the configuration from environment variables and panics on
// malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	fixTimeout, err := time.ParseDuration(setDefaultEnv("WAYPOINT_FIX_TIMEOUT", "15s"))
	if err != nil {
		panic("failed to parse fix timeout from configuration")
	}

	apiPort, err := strconv.Atoi(setDefaultEnv("WAYPOINT_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for API server from configuration")
	}

	healthPort, err := strconv.Atoi(setDefaultEnv("WAYPOINT_HEALTH_PORT", "9090"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("WAYPOINT_GROUNDING_RATE_LIMIT", "5"))
	if err != nil {
		panic("failed to parse grounding rate limit from configuration, must be an integer")
	}

	return &Config{
		Env:        setDefaultEnv("WAYPOINT_ENV", "production"),
		Port:       apiPort,
		HealthPort: healthPort,
		AgentURL:   os.Getenv("WAYPOINT_AGENT_URL"),
		FixTimeout: fixTimeout,
		Grounding: GroundingConfig{
			APIKey:    os.Getenv("WAYPOINT_GROUNDING_KEY"),
			Language:  setDefaultEnv("WAYPOINT_GROUNDING_LANGUAGE", "zh-CN"),
			RateLimit: rateLimit,
		},
		Providers: ProviderTimeouts{
			Primary:   mustDuration("WAYPOINT_PRIMARY_TIMEOUT", "5s"),
			Secondary: mustDuration("WAYPOINT_SECONDARY_TIMEOUT", "5s"),
			Minimal:   mustDuration("WAYPOINT_MINIMAL_TIMEOUT", "3s"),
		},
	}
}

func mustDuration(key, override string) time.Duration {
	value, err := time.ParseDuration(setDefaultEnv(key, override))
	if err != nil {
		panic("failed to parse " + key + " from configuration")
	}

	return value
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
