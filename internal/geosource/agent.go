// Package geosource acquires single-shot GPS fixes from a positioning agent,
// a small companion process exposing the device's location over local HTTP.
// It plays the role the geolocation capability plays in a browser: one
// current-position request per call, with an accuracy mode, a timeout and a
// maximum acceptable fix age, failing with the same error codes.
package geosource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/fetch"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// AgentSource requests fixes from a positioning agent.
type AgentSource struct {
	fetcher *fetch.Client // fetcher performs the bounded HTTP request.
	baseURL string        // baseURL is the agent's address.
	log     *slog.Logger  // log is the logger for acquisition diagnostics.
}

// Agent position response.
type agentResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// NewAgentSource creates a source backed by the agent at baseURL.
func NewAgentSource(fetcher *fetch.Client, baseURL string, log *slog.Logger) *AgentSource {
	return &AgentSource{fetcher: fetcher, baseURL: baseURL, log: log}
}

// CurrentPosition requests one fresh fix from the agent. Failures map onto
// the platform error codes: a request exceeding its bound reports a timeout,
// a forbidden response reports a permission denial, and anything else
// reports the position as unavailable.
func (s *AgentSource) CurrentPosition(ctx context.Context, opts models.PositionOptions) (*models.Fix, *models.GeoError) {
	reqURL, err := url.Parse(s.baseURL + "/position")
	if err != nil {
		return nil, &models.GeoError{
			Code:    models.GeoErrPositionUnavailable,
			Message: fmt.Sprintf("invalid agent URL: %v", err),
		}
	}

	query := reqURL.Query()
	query.Set("highAccuracy", strconv.FormatBool(opts.HighAccuracy))
	query.Set("maximumAge", strconv.FormatInt(opts.MaximumAge.Milliseconds(), 10))
	reqURL.RawQuery = query.Encode()

	s.log.DebugContext(ctx, "Requesting position fix", "url", reqURL.String(), "timeout", opts.Timeout)

	var resp agentResponse
	if err = s.fetcher.GetJSON(ctx, reqURL.String(), opts.Timeout, &resp); err != nil {
		return nil, geoError(err)
	}

	return &models.Fix{
		Latitude:  resp.Latitude,
		Longitude: resp.Longitude,
		Accuracy:  resp.Accuracy,
		Timestamp: time.Now(),
	}, nil
}

func geoError(err error) *models.GeoError {
	var statusErr *fetch.StatusError

	switch {
	case errors.Is(err, fetch.ErrTimeout):
		return &models.GeoError{Code: models.GeoErrTimeout, Message: err.Error()}
	case errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		return &models.GeoError{Code: models.GeoErrPermissionDenied, Message: err.Error()}
	default:
		return &models.GeoError{Code: models.GeoErrPositionUnavailable, Message: err.Error()}
	}
}
