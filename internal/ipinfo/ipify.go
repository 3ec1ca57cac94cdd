package ipinfo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/fetch"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// IpifyBaseURL -- api.ipify.org endpoint, JSON format.
const IpifyBaseURL = "https://api.ipify.org?format=json"

// IpifyProvider is the last resort of the cascade: a minimal service that
// reports only the address itself. All descriptive fields stay empty.
type IpifyProvider struct {
	fetcher *fetch.Client
	baseURL string
	timeout time.Duration
	log     *slog.Logger
}

type ipifyResponse struct {
	IP string `json:"ip"`
}

// NewIpifyProvider creates the ipify provider with the given attempt timeout.
func NewIpifyProvider(fetcher *fetch.Client, timeout time.Duration, log *slog.Logger) *IpifyProvider {
	return &IpifyProvider{
		fetcher: fetcher,
		baseURL: IpifyBaseURL,
		timeout: timeout,
		log:     log,
	}
}

// Name implements Provider.
func (p *IpifyProvider) Name() string { return "ipify" }

// Lookup fetches only the caller's public address.
func (p *IpifyProvider) Lookup(ctx context.Context) (*models.IPInfo, error) {
	p.log.DebugContext(ctx, "Looking up IP info", "provider", p.Name())

	var resp ipifyResponse
	if err := p.fetcher.GetJSON(ctx, p.baseURL, p.timeout, &resp); err != nil {
		return nil, fmt.Errorf("ipify lookup failed: %w", err)
	}

	return &models.IPInfo{IP: resp.IP}, nil
}
