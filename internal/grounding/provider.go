package grounding

import (
	"context"

	"github.com/UnknownOlympus/waypoint/internal/models"
)

// Provider is an interface that defines reverse geocoding: resolving a GPS
// fix into a human-readable address through an external mapping service.
// Failures are recoverable by design; callers substitute a placeholder
// address rather than surfacing the error.
type Provider interface {
	ResolveAddress(ctx context.Context, fix models.Fix) (*models.Address, error)
}
