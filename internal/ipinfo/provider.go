package ipinfo

import (
	"context"

	"github.com/UnknownOlympus/waypoint/internal/models"
)

// Provider is an interface that defines a single attempt against one IP
// metadata service. Lookup normalizes the provider's own response shape into
// a models.IPInfo; any failure (transport, status, parse, timeout) is
// returned as an error and the caller falls through to the next provider.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Lookup fetches and normalizes the caller's public-IP metadata.
	Lookup(ctx context.Context) (*models.IPInfo, error)
}
