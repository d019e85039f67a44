package geo

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"marketplace_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// CachedGeocoder is a read-through Redis cache in front of a Geocoder.
// Provider answers change rarely, so cached lookups keep repeated
// resolutions of the same city off the provider's rate budget. Cache
// failures are never fatal: a broken cache degrades to direct lookups.
type CachedGeocoder struct {
	next Geocoder
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.Logger
}

// NewCachedGeocoder wraps a geocoder with a Redis cache.
func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(query string) string {
	return "geocode:" + strings.ToLower(CollapseWhitespace(query))
}

// Lookup serves the query from cache when possible, falling back to the
// wrapped geocoder and storing its answer on a miss.
func (g *CachedGeocoder) Lookup(ctx context.Context, query string) ([]RawPlace, error) {
	key := cacheKey(query)

	cached, err := g.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var places []RawPlace
		if unmarshalErr := json.Unmarshal(cached, &places); unmarshalErr == nil {
			return places, nil
		}
		// Unreadable entry: drop it and fall through to the provider.
		g.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		g.log.UpstreamError("geocoder-cache", err)
	}

	places, err := g.next.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(places); marshalErr == nil {
		if setErr := g.rdb.Set(ctx, key, payload, g.ttl).Err(); setErr != nil {
			g.log.UpstreamError("geocoder-cache", setErr)
		}
	}

	return places, nil
}
