package ipinfo

import (
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/fetch"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
)

// Default attempt timeouts per cascade step. The last resort gets the
// shortest bound since it answers with a single field.
const (
	DefaultPrimaryTimeout   = 5 * time.Second
	DefaultSecondaryTimeout = 5 * time.Second
	DefaultMinimalTimeout   = 3 * time.Second
)

// CascadeConfig holds configuration for building the default provider cascade.
type CascadeConfig struct {
	Fetcher          *fetch.Client    // Fetcher shared by all providers.
	PrimaryTimeout   time.Duration    // Attempt bound for ipapi.co.
	SecondaryTimeout time.Duration    // Attempt bound for ip-api.com.
	MinimalTimeout   time.Duration    // Attempt bound for ipify.
	Metrics          *metrics.Metrics // Metrics for attempt accounting.
	Logger           *slog.Logger     // Logger for the providers and resolver.
}

// NewDefaultCascade builds the standard three-step resolver:
// ipapi.co (richest data) -> ip-api.com (different field names) -> ipify
// (address only). Zero timeouts fall back to the package defaults.
func NewDefaultCascade(cfg CascadeConfig) *Resolver {
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = DefaultPrimaryTimeout
	}
	if cfg.SecondaryTimeout <= 0 {
		cfg.SecondaryTimeout = DefaultSecondaryTimeout
	}
	if cfg.MinimalTimeout <= 0 {
		cfg.MinimalTimeout = DefaultMinimalTimeout
	}

	return NewResolver(cfg.Logger, cfg.Metrics,
		NewIpapiProvider(cfg.Fetcher, cfg.PrimaryTimeout, cfg.Logger),
		NewIPAPIComProvider(cfg.Fetcher, cfg.SecondaryTimeout, cfg.Logger),
		NewIpifyProvider(cfg.Fetcher, cfg.MinimalTimeout, cfg.Logger),
	)
}
