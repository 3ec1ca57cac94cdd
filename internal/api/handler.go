package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/go-playground/validator/v10"
)

// Placeholder rendered for missing descriptive fields.
const placeholderDash = "—"

// Handler exposes the location assistant over HTTP.
type Handler struct {
	svc      *service.LocationService
	validate *validator.Validate
	log      *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *service.LocationService, log *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		log:      log,
	}
}

// snapshotResponse is the rendered view of the current cycle. Missing
// descriptive fields render as placeholder dashes, never as blanks.
type snapshotResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	IPInfo  *ipInfoPayload  `json:"ip_info,omitempty"`
	Fix     *fixPayload     `json:"fix,omitempty"`
	Address *addressPayload `json:"address,omitempty"`
}

type ipInfoPayload struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
}

type fixPayload struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type addressPayload struct {
	Formatted string `json:"formatted"`
	POIName   string `json:"poi_name,omitempty"`
}

// fixRequest is a client-acquired fix posted to the service.
type fixRequest struct {
	Latitude  float64 `json:"latitude"  validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64 `json:"accuracy"  validate:"gte=0"`
}

// GetLocation renders the current state.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	state := h.svc.Snapshot()

	resp := snapshotResponse{
		Status:  state.Status.String(),
		Message: state.Message,
	}
	if state.IPInfo != nil {
		resp.IPInfo = &ipInfoPayload{
			IP:      orDash(state.IPInfo.IP),
			City:    orDash(state.IPInfo.City),
			Region:  orDash(state.IPInfo.Region),
			Country: orDash(state.IPInfo.Country),
			Org:     orDash(state.IPInfo.Org),
		}
	}
	if state.Fix != nil {
		resp.Fix = &fixPayload{
			Latitude:  state.Fix.Latitude,
			Longitude: state.Fix.Longitude,
			Accuracy:  state.Fix.Accuracy,
			Timestamp: state.Fix.Timestamp,
		}
	}
	if state.Address != nil {
		resp.Address = &addressPayload{
			Formatted: state.Address.Formatted,
			POIName:   state.Address.POIName,
		}
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

// Refresh re-runs the full load sequence. While a cycle is loading the
// trigger is disabled; concurrent requests get 409.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Refresh(r.Context())
	switch {
	case errors.Is(err, service.ErrRefreshInProgress):
		h.writeJSON(w, r, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrClosed):
		h.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case err != nil:
		h.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		h.writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "refreshing"})
	}
}

// ReportFix accepts a client-acquired fix and feeds it into the cycle.
func (h *Handler) ReportFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, r, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	h.svc.ReportFix(r.Context(), models.Fix{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: time.Now(),
	})

	h.writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return placeholderDash
	}
	return s
}
