package grounding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// DefaultLanguage is the answer language requested from the mapping service.
const DefaultLanguage = "zh-CN"

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// GoogleAPIClient is the subset of the Google Maps client used for grounding.
// This allows for easy mocking in tests.
type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleProvider resolves fixes into addresses using the Google Maps
// reverse-geocoding API, answering in a configured language.
type GoogleProvider struct {
	client   GoogleAPIClient // client is the Google Maps API client.
	language string          // language the address text is requested in.
	limiter  *rate.Limiter   // limiter bounds the request rate.
	log      *slog.Logger    // log is the logger for grounding operations.
}

// NewGoogleProvider initializes a GoogleProvider with the given client,
// answer language and request rate. An empty language falls back to
// DefaultLanguage; a non-positive rate limit defaults to 5 req/s.
func NewGoogleProvider(client GoogleAPIClient, language string, rateLimit int, log *slog.Logger) *GoogleProvider {
	if language == "" {
		language = DefaultLanguage
	}
	if rateLimit <= 0 {
		rateLimit = 5
		log.Warn("Rate limit for grounding API not set, set a default value", "value", rateLimit)
	}

	return &GoogleProvider{
		client:   client,
		language: language,
		limiter:  rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log:      log,
	}
}

// ResolveAddress reverse geocodes the fix and extracts the formatted address
// plus, when the service grounds the answer on a point of interest, its name.
// Only the first result's text is consumed for the address itself.
func (gp *GoogleProvider) ResolveAddress(ctx context.Context, fix models.Fix) (*models.Address, error) {
	if err := gp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	gp.log.DebugContext(ctx, "Resolving address using Google Maps",
		"lat", fix.Latitude, "lng", fix.Longitude, "language", gp.language)

	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: fix.Latitude, Lng: fix.Longitude},
		Language: gp.language,
	}

	results, err := gp.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	address := &models.Address{
		Formatted: results[0].FormattedAddress,
		POIName:   poiName(results),
	}

	gp.log.DebugContext(ctx, "Address resolved", "address", address.Formatted, "poi", address.POIName)

	return address, nil
}

// poiName returns the name of the first point-of-interest result, if any.
func poiName(results []maps.GeocodingResult) string {
	for _, result := range results {
		for _, typ := range result.Types {
			if typ != "point_of_interest" && typ != "establishment" {
				continue
			}
			if len(result.AddressComponents) > 0 {
				return result.AddressComponents[0].LongName
			}
		}
	}

	return ""
}
