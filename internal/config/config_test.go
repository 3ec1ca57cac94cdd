package config_test

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/stretchr/testify/assert"
)

func Test_MustLoadFromEnv(t *testing.T) {
	t.Setenv("WAYPOINT_ENV", "local")
	t.Setenv("WAYPOINT_PORT", "8181")
	t.Setenv("WAYPOINT_HEALTH_PORT", "9191")
	t.Setenv("WAYPOINT_AGENT_URL", "http://localhost:7000")
	t.Setenv("WAYPOINT_FIX_TIMEOUT", "20s")
	t.Setenv("WAYPOINT_GROUNDING_KEY", "testAPIKey")
	t.Setenv("WAYPOINT_GROUNDING_LANGUAGE", "en")
	t.Setenv("WAYPOINT_GROUNDING_RATE_LIMIT", "7")
	t.Setenv("WAYPOINT_PRIMARY_TIMEOUT", "4s")
	t.Setenv("WAYPOINT_SECONDARY_TIMEOUT", "6s")
	t.Setenv("WAYPOINT_MINIMAL_TIMEOUT", "2s")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, 9191, cfg.HealthPort)
	assert.Equal(t, "http://localhost:7000", cfg.AgentURL)
	assert.Equal(t, 20*time.Second, cfg.FixTimeout)
	assert.Equal(t, "testAPIKey", cfg.Grounding.APIKey)
	assert.Equal(t, "en", cfg.Grounding.Language)
	assert.Equal(t, 7, cfg.Grounding.RateLimit)
	assert.Equal(t, 4*time.Second, cfg.Providers.Primary)
	assert.Equal(t, 6*time.Second, cfg.Providers.Secondary)
	assert.Equal(t, 2*time.Second, cfg.Providers.Minimal)
}

func Test_MustLoadDefaults(t *testing.T) {
	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.FixTimeout)
	assert.Equal(t, "zh-CN", cfg.Grounding.Language)
	assert.Equal(t, 5*time.Second, cfg.Providers.Primary)
	assert.Equal(t, 3*time.Second, cfg.Providers.Minimal)
}

func TestMustLoad_FixTimeoutError(t *testing.T) {
	t.Setenv("WAYPOINT_FIX_TIMEOUT", "error_value")

	assert.PanicsWithValue(t, "failed to parse fix timeout from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("WAYPOINT_PORT", "error_value")

	assert.PanicsWithValue(t, "failed to parse port for API server from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_RateLimitError(t *testing.T) {
	t.Setenv("WAYPOINT_GROUNDING_RATE_LIMIT", "error_value")

	assert.PanicsWithValue(t, "failed to parse grounding rate limit from configuration, must be an integer", func() {
		config.MustLoad()
	})
}
