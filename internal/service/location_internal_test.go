package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGrounder records every fix it is asked to resolve.
type mockGrounder struct {
	mu    sync.Mutex
	calls []models.Fix
	addr  *models.Address
	err   error
	block chan struct{} // when set, ResolveAddress waits until it is closed
}

func (m *mockGrounder) ResolveAddress(_ context.Context, fix models.Fix) (*models.Address, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.calls = append(m.calls, fix)
	m.mu.Unlock()
	return m.addr, m.err
}

func (m *mockGrounder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockResolver is a controllable IPResolver.
type mockResolver struct {
	info *models.IPInfo
	err  error
}

func (m *mockResolver) Resolve(_ context.Context) (*models.IPInfo, error) {
	return m.info, m.err
}

// mockSource is a controllable GeoSource.
type mockSource struct {
	mu      sync.Mutex
	fix     *models.Fix
	geoErr  *models.GeoError
	gotOpts models.PositionOptions
	block   chan struct{}
}

func (m *mockSource) CurrentPosition(_ context.Context, opts models.PositionOptions) (*models.Fix, *models.GeoError) {
	m.mu.Lock()
	m.gotOpts = opts
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	return m.fix, m.geoErr
}

func newTestService(source GeoSource, resolver IPResolver, grounder *mockGrounder) *LocationService {
	logger := slog.Default()
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	return NewLocationService(logger, source, resolver, grounder, appMetrics, 0)
}

func TestLocationService_AddressDedup(t *testing.T) {
	ctx := context.Background()
	fix := models.Fix{Latitude: 31.2304, Longitude: 121.4737, Accuracy: 10, Timestamp: time.Now()}

	t.Run("identical coordinates resolve once", func(t *testing.T) {
		grounder := &mockGrounder{addr: &models.Address{Formatted: "上海市黄浦区人民大道185号"}}
		svc := newTestService(nil, &mockResolver{}, grounder)

		svc.ReportFix(ctx, fix)
		svc.ReportFix(ctx, fix)

		assert.Equal(t, 1, grounder.callCount(), "grounding must run once per distinct coordinate pair")

		state := svc.Snapshot()
		assert.Equal(t, models.StatusSuccess, state.Status)
		require.NotNil(t, state.Address)
		assert.Equal(t, "上海市黄浦区人民大道185号", state.Address.Formatted)
	})

	t.Run("distinct coordinates resolve once each", func(t *testing.T) {
		grounder := &mockGrounder{addr: &models.Address{Formatted: "somewhere"}}
		svc := newTestService(nil, &mockResolver{}, grounder)

		svc.ReportFix(ctx, fix)
		svc.ReportFix(ctx, models.Fix{Latitude: 39.9042, Longitude: 116.4074})

		assert.Equal(t, 2, grounder.callCount())
	})

	t.Run("refresh resets the guard", func(t *testing.T) {
		grounder := &mockGrounder{addr: &models.Address{Formatted: "somewhere"}}
		svc := newTestService(nil, &mockResolver{}, grounder)

		svc.ReportFix(ctx, fix)
		require.NoError(t, svc.Refresh(ctx))
		svc.ReportFix(ctx, fix)

		assert.Equal(t, 2, grounder.callCount(), "a refresh discards the last-resolved guard")
	})
}

func TestLocationService_AddressSoftFail(t *testing.T) {
	ctx := context.Background()
	fix := models.Fix{Latitude: 31.2304, Longitude: 121.4737}

	t.Run("grounding failure still ends in success", func(t *testing.T) {
		grounder := &mockGrounder{err: assert.AnError}
		svc := newTestService(nil, &mockResolver{}, grounder)

		svc.ReportFix(ctx, fix)

		state := svc.Snapshot()
		assert.Equal(t, models.StatusSuccess, state.Status)
		require.NotNil(t, state.Address)
		assert.Equal(t, PlaceholderGroundingFailed, state.Address.Formatted)
	})
}

func TestLocationService_GeolocationErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		geoErr  *models.GeoError
		wantMsg string
	}{
		{
			name:    "permission denied",
			geoErr:  &models.GeoError{Code: models.GeoErrPermissionDenied, Message: "User denied Geolocation"},
			wantMsg: "请允许浏览器获取您的位置权限",
		},
		{
			name:    "position unavailable",
			geoErr:  &models.GeoError{Code: models.GeoErrPositionUnavailable, Message: "Position unavailable"},
			wantMsg: "GPS 信号弱，无法获取位置",
		},
		{
			name:    "timeout",
			geoErr:  &models.GeoError{Code: models.GeoErrTimeout, Message: "Timeout expired"},
			wantMsg: "定位请求超时",
		},
		{
			name:    "unrecognized code passes the platform message through",
			geoErr:  &models.GeoError{Code: 42, Message: "some platform text"},
			wantMsg: "some platform text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grounder := &mockGrounder{}
			source := &mockSource{geoErr: tt.geoErr}
			svc := newTestService(source, &mockResolver{}, grounder)

			svc.acquirePosition(ctx)

			state := svc.Snapshot()
			assert.Equal(t, models.StatusDenied, state.Status)
			assert.Equal(t, tt.wantMsg, state.Message)
			assert.Zero(t, grounder.callCount(), "grounding must not run without a fix")
		})
	}
}

func TestLocationService_AcquirePosition(t *testing.T) {
	ctx := context.Background()
	fix := models.Fix{Latitude: 31.2304, Longitude: 121.4737, Accuracy: 8, Timestamp: time.Now()}

	t.Run("successful fix resolves address and finishes the cycle", func(t *testing.T) {
		grounder := &mockGrounder{addr: &models.Address{Formatted: "上海市"}}
		source := &mockSource{fix: &fix}
		svc := newTestService(source, &mockResolver{}, grounder)

		svc.acquirePosition(ctx)

		state := svc.Snapshot()
		assert.Equal(t, models.StatusSuccess, state.Status)
		assert.Empty(t, state.Message)
		require.NotNil(t, state.Fix)
		assert.InEpsilon(t, 31.2304, state.Fix.Latitude, 0.0001)
		require.NotNil(t, state.Address)

		// The position request must be single-shot, high accuracy, fresh only.
		source.mu.Lock()
		defer source.mu.Unlock()
		assert.True(t, source.gotOpts.HighAccuracy)
		assert.Equal(t, DefaultFixTimeout, source.gotOpts.Timeout)
		assert.Zero(t, source.gotOpts.MaximumAge)
	})
}

func TestLocationService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("missing capability sets error status", func(t *testing.T) {
		grounder := &mockGrounder{}
		svc := newTestService(nil, &mockResolver{}, grounder)

		require.NoError(t, svc.Refresh(ctx))

		state := svc.Snapshot()
		assert.Equal(t, models.StatusError, state.Status)
		assert.Equal(t, MsgCapabilityUnavailable, state.Message)
	})

	t.Run("concurrent refresh is rejected while loading", func(t *testing.T) {
		release := make(chan struct{})
		source := &mockSource{
			fix:   &models.Fix{Latitude: 1, Longitude: 2},
			block: release,
		}
		grounder := &mockGrounder{addr: &models.Address{Formatted: "somewhere"}}
		svc := newTestService(source, &mockResolver{}, grounder)

		require.NoError(t, svc.Refresh(ctx))
		assert.ErrorIs(t, svc.Refresh(ctx), ErrRefreshInProgress)

		close(release)
		assert.Eventually(t, func() bool {
			return svc.Snapshot().Status == models.StatusSuccess
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("IP resolution failure is not surfaced", func(t *testing.T) {
		grounder := &mockGrounder{}
		svc := newTestService(nil, &mockResolver{err: assert.AnError}, grounder)

		svc.resolveIPInfo(ctx)

		state := svc.Snapshot()
		assert.Nil(t, state.IPInfo, "a failed cascade leaves the IP card empty")
		assert.Equal(t, models.StatusIdle, state.Status, "IP failures never touch the cycle status")
	})

	t.Run("IP resolution success populates the record", func(t *testing.T) {
		grounder := &mockGrounder{}
		record := &models.IPInfo{IP: "203.0.113.7", Org: "Example Telecom"}
		svc := newTestService(nil, &mockResolver{info: record}, grounder)

		svc.resolveIPInfo(ctx)

		assert.Equal(t, record, svc.Snapshot().IPInfo)
	})
}

func TestLocationService_Teardown(t *testing.T) {
	ctx := context.Background()
	fix := models.Fix{Latitude: 31.2304, Longitude: 121.4737}

	t.Run("late grounding completion is discarded", func(t *testing.T) {
		release := make(chan struct{})
		grounder := &mockGrounder{
			addr:  &models.Address{Formatted: "somewhere"},
			block: release,
		}
		svc := newTestService(nil, &mockResolver{}, grounder)

		done := make(chan struct{})
		go func() {
			svc.ReportFix(ctx, fix)
			close(done)
		}()

		// Tear the service down while the grounding call is still in flight.
		assert.Eventually(t, func() bool {
			return svc.Snapshot().Fix != nil
		}, time.Second, 5*time.Millisecond)
		svc.Close()
		close(release)
		<-done

		state := svc.Snapshot()
		assert.Nil(t, state.Address, "no state mutation may happen after teardown")
		assert.NotEqual(t, models.StatusSuccess, state.Status)
	})

	t.Run("late IP resolution is discarded", func(t *testing.T) {
		grounder := &mockGrounder{}
		svc := newTestService(nil, &mockResolver{info: &models.IPInfo{IP: "203.0.113.7"}}, grounder)

		svc.Close()
		svc.resolveIPInfo(ctx)

		assert.Nil(t, svc.Snapshot().IPInfo)
	})

	t.Run("refresh after close is rejected", func(t *testing.T) {
		svc := newTestService(nil, &mockResolver{}, &mockGrounder{})

		svc.Close()

		assert.ErrorIs(t, svc.Refresh(ctx), ErrClosed)
	})
}
