package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/normalizer"
)

// CacheStats reports hit/miss counters for the admin stats endpoint.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// IResolutionCache caches shipment-time resolution outcomes keyed by
// fingerprint. Strict intake resolution is never cached: its outcome can
// reject the order and must always reflect current reference data.
type IResolutionCache interface {
	Get(ctx context.Context, key string) (*models.ResolvedAddress, bool, error)
	Set(ctx context.Context, key string, addr *models.ResolvedAddress) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*CacheStats, error)
}

// Fingerprint derives the cache key for a courier and a raw (city, district)
// pair. Each component is normalized before hashing so spelling variants that
// canonicalize identically share an entry; the separator goes in after
// normalization so distinct pairs never collide on their concatenation.
func Fingerprint(courier models.CourierID, rawCity, rawDistrict string) string {
	key := string(courier) + "\x1f" + normalizer.Normalize(rawCity).Text + "\x1f" + normalizer.Normalize(rawDistrict).Text
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ResolutionCache is a two-level cache: an in-process LRU in front of redis.
// Redis being down degrades to LRU-only; it never fails a resolution.
type ResolutionCache struct {
	local  *lru.Cache[string, models.ResolvedAddress]
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	// Incremented from concurrent request handlers.
	hits   atomic.Int64
	misses atomic.Int64
}

func NewResolutionCache(redisURL string, size int, ttl time.Duration, logger *zap.Logger) (*ResolutionCache, error) {
	local, err := lru.New[string, models.ResolvedAddress](size)
	if err != nil {
		return nil, err
	}

	rc := &ResolutionCache{
		local:  local,
		logger: logger,
		prefix: "courier_gw:resolution:",
		ttl:    ttl,
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, resolution cache is in-process only", zap.Error(err))
		} else {
			rc.client = client
		}
	}

	return rc, nil
}

func (rc *ResolutionCache) Get(ctx context.Context, key string) (*models.ResolvedAddress, bool, error) {
	if addr, ok := rc.local.Get(key); ok {
		rc.hits.Add(1)
		return &addr, true, nil
	}

	if rc.client == nil {
		rc.misses.Add(1)
		return nil, false, nil
	}

	val, err := rc.client.Get(ctx, rc.prefix+key).Result()
	if err == redis.Nil {
		rc.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rc.logger.Warn("redis get failed", zap.Error(err), zap.String("key", key))
		rc.misses.Add(1)
		return nil, false, nil
	}

	var addr models.ResolvedAddress
	if err := json.Unmarshal([]byte(val), &addr); err != nil {
		return nil, false, err
	}

	rc.local.Add(key, addr)
	rc.hits.Add(1)
	return &addr, true, nil
}

func (rc *ResolutionCache) Set(ctx context.Context, key string, addr *models.ResolvedAddress) error {
	rc.local.Add(key, *addr)

	if rc.client == nil {
		return nil
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return err
	}
	if err := rc.client.Set(ctx, rc.prefix+key, data, rc.ttl).Err(); err != nil {
		rc.logger.Warn("redis set failed", zap.Error(err), zap.String("key", key))
	}
	return nil
}

func (rc *ResolutionCache) Clear(ctx context.Context) error {
	rc.local.Purge()
	if rc.client == nil {
		return nil
	}
	iter := rc.client.Scan(ctx, 0, rc.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (rc *ResolutionCache) Stats(ctx context.Context) (*CacheStats, error) {
	hits := rc.hits.Load()
	misses := rc.misses.Load()
	stats := &CacheStats{
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(rc.local.Len()),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats, nil
}
