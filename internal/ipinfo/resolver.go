package ipinfo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// ErrUnavailable is the single terminal error of the cascade, raised only
// after every provider has been exhausted. The text is the user-facing
// message rendered in place of the network card.
var ErrUnavailable = errors.New("无法获取网络信息")

// Resolver walks an ordered list of providers until one of them returns a
// normalized record. The ordering favors completeness of data first, then
// availability, then the minimal guaranteed signal. Each attempt is
// independent: no retries within a step, a fresh timeout window per step,
// and no cancellation carried over from one step to the next.
type Resolver struct {
	providers []Provider       // providers in fallback order.
	metrics   *metrics.Metrics // metrics records per-provider attempts.
	log       *slog.Logger     // log is the logger for cascade diagnostics.
}

// NewResolver creates a resolver over the given providers, tried in order.
func NewResolver(log *slog.Logger, appMetrics *metrics.Metrics, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, metrics: appMetrics, log: log}
}

// Resolve returns the first provider's normalized record, falling through on
// any failure. Step failures are logged as warnings, never propagated; only
// total exhaustion surfaces, as ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context) (*models.IPInfo, error) {
	for _, provider := range r.providers {
		startTime := time.Now()
		info, err := provider.Lookup(ctx)
		r.metrics.LookupSeconds.WithLabelValues(provider.Name()).Observe(time.Since(startTime).Seconds())

		if err != nil {
			r.metrics.LookupAttempts.WithLabelValues(provider.Name(), "failure").Inc()
			r.log.WarnContext(ctx, "IP info provider failed, falling through",
				"provider", provider.Name(), "error", err)
			continue
		}

		r.metrics.LookupAttempts.WithLabelValues(provider.Name(), "success").Inc()
		r.log.DebugContext(ctx, "IP info resolved", "provider", provider.Name(), "ip", info.IP)
		return info, nil
	}

	return nil, ErrUnavailable
}
