package ipinfo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/fetch"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// IpapiBaseURL -- ipapi.co lookup endpoint for the calling address.
const IpapiBaseURL = "https://ipapi.co/json/"

// IpapiProvider queries ipapi.co, the richest of the three providers: it
// reports city, region, country and organization alongside the address.
type IpapiProvider struct {
	fetcher *fetch.Client // fetcher performs the bounded HTTP request.
	baseURL string        // baseURL is the lookup endpoint.
	timeout time.Duration // timeout bounds one lookup attempt.
	log     *slog.Logger  // log is the logger for lookup diagnostics.
}

// ipapi.co response (only the fields the normalized record consumes).
type ipapiResponse struct {
	IP          string `json:"ip"`
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryName string `json:"country_name"`
	Org         string `json:"org"`
}

// NewIpapiProvider creates the ipapi.co provider with the given attempt timeout.
func NewIpapiProvider(fetcher *fetch.Client, timeout time.Duration, log *slog.Logger) *IpapiProvider {
	return &IpapiProvider{
		fetcher: fetcher,
		baseURL: IpapiBaseURL,
		timeout: timeout,
		log:     log,
	}
}

// Name implements Provider.
func (p *IpapiProvider) Name() string { return "ipapi.co" }

// Lookup fetches the caller's metadata from ipapi.co. The organization field
// falls back to the fixed placeholder when the provider omits it.
func (p *IpapiProvider) Lookup(ctx context.Context) (*models.IPInfo, error) {
	p.log.DebugContext(ctx, "Looking up IP info", "provider", p.Name())

	var resp ipapiResponse
	if err := p.fetcher.GetJSON(ctx, p.baseURL, p.timeout, &resp); err != nil {
		return nil, fmt.Errorf("ipapi.co lookup failed: %w", err)
	}

	org := resp.Org
	if org == "" {
		org = models.UnknownOrg
	}

	return &models.IPInfo{
		IP:      resp.IP,
		City:    resp.City,
		Region:  resp.Region,
		Country: resp.CountryName,
		Org:     org,
	}, nil
}
