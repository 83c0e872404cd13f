package reporting

import (
	"context"
	"testing"
	"time"

	"tenant_portal_backend/internal/applications/funnel"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*FunnelCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFunnelCache(rdb, time.Minute), mr
}

func TestFunnelCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)
	propertyID := uuid.New()
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	w := Window{From: &from}

	_, version, ok, err := cache.Get(ctx, propertyID, w)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, version)

	report := funnel.Aggregate(nil)
	require.NoError(t, cache.Put(ctx, propertyID, w, version, report))

	got, _, ok, err := cache.Get(ctx, propertyID, w)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report.Stages, got.Stages)

	_, _, ok, err = cache.Get(ctx, propertyID, Window{})
	require.NoError(t, err)
	assert.False(t, ok, "different window is a different entry")

	require.NoError(t, cache.Invalidate(ctx, propertyID))
	_, version, ok, err = cache.Get(ctx, propertyID, w)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), version)
}

func TestFunnelCacheDropsReportBuiltBeforeInvalidation(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)
	propertyID := uuid.New()

	_, version, ok, err := cache.Get(ctx, propertyID, Window{})
	require.NoError(t, err)
	require.False(t, ok)

	stale := funnel.Aggregate(nil)

	// A decision lands while the report is being aggregated.
	require.NoError(t, cache.Invalidate(ctx, propertyID))
	require.NoError(t, cache.Put(ctx, propertyID, Window{}, version, stale))

	_, current, ok, err := cache.Get(ctx, propertyID, Window{})
	require.NoError(t, err)
	assert.False(t, ok, "report aggregated before the decision must not be served")
	assert.Equal(t, version+1, current)

	fresh := funnel.Report{Stages: []funnel.StageCount{{Stage: funnel.StageSelected, Count: 1}}}
	require.NoError(t, cache.Put(ctx, propertyID, Window{}, current, fresh))
	got, _, ok, err := cache.Get(ctx, propertyID, Window{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fresh.Stages, got.Stages)
}

func TestFunnelCacheExpires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	propertyID := uuid.New()

	require.NoError(t, cache.Put(ctx, propertyID, Window{}, 0, funnel.Aggregate(nil)))
	mr.FastForward(2 * time.Minute)

	_, _, ok, err := cache.Get(ctx, propertyID, Window{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilFunnelCacheIsDisabled(t *testing.T) {
	var cache *FunnelCache
	ctx := context.Background()

	_, _, ok, err := cache.Get(ctx, uuid.New(), Window{})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, cache.Put(ctx, uuid.New(), Window{}, 0, funnel.Report{}))
	assert.NoError(t, cache.Invalidate(ctx, uuid.New()))
}
