package ipinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/fetch"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// IPAPIComBaseURL -- ip-api.com lookup endpoint for the calling address.
const IPAPIComBaseURL = "http://ip-api.com/json/"

// ErrIPAPIComFailed is returned when ip-api.com answers 200 with a failure payload.
var ErrIPAPIComFailed = errors.New("ip-api.com reported lookup failure")

// IPAPIComProvider queries ip-api.com, the second step of the cascade. Its
// response shape differs from ipapi.co: the region lives in "regionName",
// the country in "country", and the address itself in "query".
type IPAPIComProvider struct {
	fetcher *fetch.Client
	baseURL string
	timeout time.Duration
	log     *slog.Logger
}

// ip-api.com response (see http://ip-api.com/docs/api:json).
type ipapicomResponse struct {
	Query      string `json:"query"`
	Status     string `json:"status"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	Country    string `json:"country"`
	Org        string `json:"org"`
	ISP        string `json:"isp"`
}

// NewIPAPIComProvider creates the ip-api.com provider with the given attempt timeout.
func NewIPAPIComProvider(fetcher *fetch.Client, timeout time.Duration, log *slog.Logger) *IPAPIComProvider {
	return &IPAPIComProvider{
		fetcher: fetcher,
		baseURL: IPAPIComBaseURL,
		timeout: timeout,
		log:     log,
	}
}

// Name implements Provider.
func (p *IPAPIComProvider) Name() string { return "ip-api.com" }

// Lookup fetches the caller's metadata from ip-api.com. The organization
// field prefers "org" and falls back to "isp" when it is absent.
func (p *IPAPIComProvider) Lookup(ctx context.Context) (*models.IPInfo, error) {
	p.log.DebugContext(ctx, "Looking up IP info", "provider", p.Name())

	var resp ipapicomResponse
	if err := p.fetcher.GetJSON(ctx, p.baseURL, p.timeout, &resp); err != nil {
		return nil, fmt.Errorf("ip-api.com lookup failed: %w", err)
	}

	if resp.Status != "success" {
		return nil, ErrIPAPIComFailed
	}

	org := resp.Org
	if org == "" {
		org = resp.ISP
	}

	return &models.IPInfo{
		IP:      resp.Query,
		City:    resp.City,
		Region:  resp.RegionName,
		Country: resp.Country,
		Org:     org,
	}, nil
}
