// Package reporting caches funnel reports in Redis. Every decision bumps a
// per-property version that is part of the cache key, so stale reports are
// never read and simply expire.
package reporting

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tenant_portal_backend/internal/applications/funnel"
	"tenant_portal_backend/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "funnel"

// FunnelCache stores funnel reports. A nil *FunnelCache is a valid, disabled cache.
type FunnelCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFunnelCache(rdb *redis.Client, ttl time.Duration) *FunnelCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FunnelCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient opens the client configured for caching. It returns nil when
// no Redis URL is configured.
func NewRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// Window is the optional received-date range a report covers.
type Window struct {
	From *time.Time
	To   *time.Time
}

func (w Window) String() string {
	return bound(w.From) + ".." + bound(w.To)
}

func bound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}

func versionKey(propertyID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:version", keyPrefix, propertyID)
}

func (c *FunnelCache) version(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	version, err := c.rdb.Get(ctx, versionKey(propertyID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return version, nil
}

func reportKey(propertyID uuid.UUID, version int64, w Window) string {
	return fmt.Sprintf("%s:%s:v%d:%s", keyPrefix, propertyID, version, w)
}

// Get returns a cached report. ok is false on a miss. version is the
// property's version at lookup time; a report built after a miss must be
// stored under it with Put.
func (c *FunnelCache) Get(ctx context.Context, propertyID uuid.UUID, w Window) (report funnel.Report, version int64, ok bool, err error) {
	if c == nil || c.rdb == nil {
		return funnel.Report{}, 0, false, nil
	}
	version, err = c.version(ctx, propertyID)
	if err != nil {
		return funnel.Report{}, 0, false, err
	}
	raw, err := c.rdb.Get(ctx, reportKey(propertyID, version, w)).Bytes()
	if errors.Is(err, redis.Nil) {
		return funnel.Report{}, version, false, nil
	}
	if err != nil {
		return funnel.Report{}, version, false, err
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		return funnel.Report{}, version, false, fmt.Errorf("decode cached funnel: %w", err)
	}
	return report, version, true, nil
}

// Put stores a report under the version returned by the Get that preceded
// it. If the property was invalidated in between, the entry is written under
// an outdated version and never read.
func (c *FunnelCache) Put(ctx context.Context, propertyID uuid.UUID, w Window, version int64, report funnel.Report) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, reportKey(propertyID, version, w), raw, c.ttl).Err()
}

// Invalidate makes every cached report of the property unreachable.
func (c *FunnelCache) Invalidate(ctx context.Context, propertyID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Incr(ctx, versionKey(propertyID)).Err()
}
