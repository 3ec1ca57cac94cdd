package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/grounding"
	"github.com/UnknownOlympus/waypoint/internal/ipinfo"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// DefaultFixTimeout bounds one current-position request.
const DefaultFixTimeout = 15 * time.Second

// Localized user-facing messages.
const (
	MsgCapabilityUnavailable = "当前浏览器不支持地理定位"
	MsgPermissionDenied      = "请允许浏览器获取您的位置权限"
	MsgPositionUnavailable   = "GPS 信号弱，无法获取位置"
	MsgPositionTimeout       = "定位请求超时"
)

// Soft-fail address placeholders. GPS availability alone counts as overall
// success; address text is best-effort enrichment on top of it.
const (
	PlaceholderUnknownAddress  = "未知地址"
	PlaceholderGroundingFailed = "地址解析失败"
)

// Orchestrator-level errors.
var (
	// ErrRefreshInProgress is returned when a refresh is requested while one
	// is already loading; the refresh trigger is disabled during a cycle.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrClosed is returned when the service has been torn down.
	ErrClosed = errors.New("location service is closed")
)

// GeoSource is a single-shot geolocation capability: one current-position
// request per call, answering with either a fix or a platform error.
type GeoSource interface {
	CurrentPosition(ctx context.Context, opts models.PositionOptions) (*models.Fix, *models.GeoError)
}

// IPResolver resolves the caller's public-IP metadata.
// The ipinfo.Resolver cascade implements this interface.
type IPResolver interface {
	Resolve(ctx context.Context) (*models.IPInfo, error)
}

// State is a snapshot of one render cycle.
type State struct {
	Status  models.Status   // Status is the overall cycle state.
	Message string          // Message is the localized failure text, if any.
	IPInfo  *models.IPInfo  // IPInfo is the resolved network metadata, nil until resolved.
	Fix     *models.Fix     // Fix is the last GPS reading, nil until acquired.
	Address *models.Address // Address is the grounded address, nil until resolved.
}

// LocationService orchestrates one load/refresh cycle: it initiates IP
// resolution and GPS acquisition back-to-back as independent operations,
// and once a fix is available delegates address lookup to the grounding
// provider, at most once per distinct coordinate pair.
type LocationService struct {
	mu          sync.Mutex
	state       State
	lastGround  *models.Fix // lastGround is the last coordinate pair handed to grounding.
	cycleActive bool
	closed      bool

	// ctx is the service lifetime; it outlives any single request and is
	// canceled on Close so in-flight asynchronous work stops with it.
	ctx    context.Context
	cancel context.CancelFunc

	source     GeoSource
	resolver   IPResolver
	grounder   grounding.Provider
	metrics    *metrics.Metrics
	log        *slog.Logger
	fixTimeout time.Duration
}

// NewLocationService creates the orchestrator. A nil source models an
// environment without a geolocation capability; refreshes then fail fast
// with an Error status instead of attempting acquisition. A non-positive
// fixTimeout falls back to DefaultFixTimeout.
func NewLocationService(
	log *slog.Logger,
	source GeoSource,
	resolver IPResolver,
	grounder grounding.Provider,
	appMetrics *metrics.Metrics,
	fixTimeout time.Duration,
) *LocationService {
	if fixTimeout <= 0 {
		fixTimeout = DefaultFixTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LocationService{
		ctx:        ctx,
		cancel:     cancel,
		source:     source,
		resolver:   resolver,
		grounder:   grounder,
		metrics:    appMetrics,
		log:        log,
		fixTimeout: fixTimeout,
	}
}

// Refresh starts a new cycle: it discards the previous address and the
// grounding guard, marks the state Loading, kicks off IP resolution and GPS
// acquisition concurrently and returns without waiting for either. A refresh
// requested while one is loading is rejected with ErrRefreshInProgress.
func (ls *LocationService) Refresh(ctx context.Context) error {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return ErrClosed
	}
	if ls.state.Status == models.StatusLoading {
		ls.mu.Unlock()
		return ErrRefreshInProgress
	}
	ls.state = State{Status: models.StatusLoading}
	ls.lastGround = nil
	ls.cycleActive = true
	ls.mu.Unlock()

	ls.metrics.ActiveCycles.Inc()
	ls.log.InfoContext(ctx, "Refresh cycle started")

	// Both branches run on the service context, not the request context:
	// they must outlive the request that triggered the refresh.
	// IP resolution never blocks GPS acquisition; the two complete in any order.
	go ls.resolveIPInfo(ls.ctx)

	if ls.source == nil {
		ls.finishCycle(ctx, models.StatusError, MsgCapabilityUnavailable)
		return nil
	}

	go ls.acquirePosition(ls.ctx)

	return nil
}

// ReportFix delivers an externally acquired fix, e.g. one posted by a client
// that did its own positioning. Repeated fixes with identical coordinates
// trigger address resolution only once.
func (ls *LocationService) ReportFix(ctx context.Context, fix models.Fix) {
	ls.applyFix(ctx, fix)
}

// Snapshot returns a copy of the current state for rendering. The pointed-to
// records are replaced wholesale on updates, never mutated in place, so the
// caller may read them without further locking.
func (ls *LocationService) Snapshot() State {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.state
}

// Close tears the service down: the lifetime context is canceled so pending
// requests abort, and asynchronous completions that still arrive observe the
// flag and discard their state updates.
func (ls *LocationService) Close() {
	ls.mu.Lock()
	ls.closed = true
	ls.mu.Unlock()
	ls.cancel()
}

// resolveIPInfo runs the provider cascade. Total failure is logged, never
// surfaced as a blocking error; the render side shows a placeholder card.
func (ls *LocationService) resolveIPInfo(ctx context.Context) {
	info, err := ls.resolver.Resolve(ctx)
	if err != nil {
		ls.log.WarnContext(ctx, "Failed to resolve IP info", "error", err)
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return
	}
	ls.state.IPInfo = info
}

// acquirePosition requests a single fresh high-accuracy fix and feeds the
// result into the cycle. Acquisition failure is terminal for the cycle but
// does not abort the already-initiated IP resolution.
func (ls *LocationService) acquirePosition(ctx context.Context) {
	fix, geoErr := ls.source.CurrentPosition(ctx, models.PositionOptions{
		HighAccuracy: true,
		Timeout:      ls.fixTimeout,
		MaximumAge:   0,
	})
	if geoErr != nil {
		ls.log.WarnContext(ctx, "Failed to acquire position", "code", geoErr.Code, "error", geoErr.Message)
		ls.finishCycle(ctx, models.StatusDenied, localizeGeoError(geoErr))
		return
	}

	ls.applyFix(ctx, *fix)
}

// applyFix stores the fix and resolves its address unless the exact same
// coordinate pair has already been handed to the grounding provider.
// Storing the fix does not change the status; the transition to Success
// happens only after address resolution completes.
func (ls *LocationService) applyFix(ctx context.Context, fix models.Fix) {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return
	}
	ls.state.Fix = &fix
	if ls.lastGround != nil && ls.lastGround.SamePoint(fix) {
		ls.mu.Unlock()
		ls.log.DebugContext(ctx, "Skipping address resolution for repeated coordinates",
			"lat", fix.Latitude, "lng", fix.Longitude)
		return
	}
	ls.lastGround = &fix
	ls.mu.Unlock()

	ls.resolveAddress(ctx, fix)
}

// resolveAddress grounds the fix into address text. Whatever the outcome --
// a real address, an unparseable response or a failed request -- the cycle
// ends in Success: the fix itself is the successful result, the address is
// enrichment.
func (ls *LocationService) resolveAddress(ctx context.Context, fix models.Fix) {
	startTime := time.Now()
	address, err := ls.grounder.ResolveAddress(ctx, fix)
	ls.metrics.GroundingSeconds.Observe(time.Since(startTime).Seconds())

	switch {
	case err == nil:
	case errors.Is(err, grounding.ErrEmptyResponse):
		ls.log.WarnContext(ctx, "Grounding returned no address", "lat", fix.Latitude, "lng", fix.Longitude)
		address = &models.Address{Formatted: PlaceholderUnknownAddress}
	default:
		ls.log.WarnContext(ctx, "Grounding request failed", "error", err)
		address = &models.Address{Formatted: PlaceholderGroundingFailed}
	}

	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return
	}
	ls.state.Address = address
	ls.mu.Unlock()

	ls.finishCycle(ctx, models.StatusSuccess, "")
}

// finishCycle records the terminal status of the geolocation branch.
func (ls *LocationService) finishCycle(ctx context.Context, status models.Status, message string) {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return
	}
	ls.state.Status = status
	ls.state.Message = message
	wasActive := ls.cycleActive
	ls.cycleActive = false
	ls.mu.Unlock()

	if wasActive {
		ls.metrics.ActiveCycles.Dec()
		ls.metrics.Refreshes.WithLabelValues(status.String()).Inc()
	}

	ls.log.InfoContext(ctx, "Refresh cycle finished", "status", status.String(), "message", message)
}

// localizeGeoError maps a platform geolocation error code to the message
// shown to the user. Unrecognized codes pass the platform text through.
func localizeGeoError(geoErr *models.GeoError) string {
	switch geoErr.Code {
	case models.GeoErrPermissionDenied:
		return MsgPermissionDenied
	case models.GeoErrPositionUnavailable:
		return MsgPositionUnavailable
	case models.GeoErrTimeout:
		return MsgPositionTimeout
	default:
		return geoErr.Message
	}
}

// Interface assertion for the default cascade.
var _ IPResolver = (*ipinfo.Resolver)(nil)
