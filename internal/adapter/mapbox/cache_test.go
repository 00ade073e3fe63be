package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func newTestCache(t *testing.T, inner domain.Geocoder, size int) *CachedGeocoder {
	t.Helper()
	cached, err := NewCachedGeocoder(inner, size, testMetrics())
	require.NoError(t, err)
	return cached
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 38.7, Lon: -9.1, PlaceName: "Lisbon", FormattedAddress: "Lisbon, Portugal"},
	}
	cached := newTestCache(t, inner, 10)

	r1, err := cached.ForwardGeocode(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", r1.PlaceName)

	r2, err := cached.ForwardGeocode(context.Background(), "  lisbon ")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", r2.PlaceName)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Place", FormattedAddress: "Place, PT"},
	}
	cached := newTestCache(t, inner, 10)

	_, _ = cached.ForwardGeocode(context.Background(), "Lisbon")
	_, _ = cached.ForwardGeocode(context.Background(), "Porto")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := newTestCache(t, inner, 10)

	_, _ = cached.ForwardGeocode(context.Background(), "Atlantis")
	_, _ = cached.ForwardGeocode(context.Background(), "Atlantis")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("rate limited")}
	cached := newTestCache(t, inner, 10)

	_, err := cached.ForwardGeocode(context.Background(), "Lisbon")
	require.Error(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "Lisbon")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "somewhere"},
	}
	cached := newTestCache(t, inner, 2)
	ctx := context.Background()

	_, _ = cached.ForwardGeocode(ctx, "a")
	_, _ = cached.ForwardGeocode(ctx, "b")
	_, _ = cached.ForwardGeocode(ctx, "a") // promotes "a"
	_, _ = cached.ForwardGeocode(ctx, "c") // evicts "b"
	assert.Equal(t, 3, inner.calls)

	_, _ = cached.ForwardGeocode(ctx, "a")
	assert.Equal(t, 3, inner.calls, "a was accessed recently, should not be evicted")

	_, _ = cached.ForwardGeocode(ctx, "b")
	assert.Equal(t, 4, inner.calls, "b should have been evicted")
}

func TestNewCachedGeocoder_InvalidSize(t *testing.T) {
	_, err := NewCachedGeocoder(&countingGeocoder{}, 0, testMetrics())
	assert.Error(t, err)
}
