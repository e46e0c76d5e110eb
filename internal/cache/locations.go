package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bustracker-backend/internal/models"
)

// LocationCache keeps the latest position per bus in Redis so the admin
// dashboard read path doesn't hit Postgres on every poll. The database stays
// authoritative: misses and Redis errors fall through to a DB read.
type LocationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// ErrCacheMiss is returned when no cached location exists for a bus.
var ErrCacheMiss = errors.New("location not in cache")

// Cached entries outlive the 15-minute inactivity threshold so a stale
// entry can still be rendered as inactive before it expires.
const cacheTTL = 30 * time.Minute

// NewLocationCache connects to Redis at addr and verifies the connection.
func NewLocationCache(addr string) (*LocationCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Connected to Redis")
	return &LocationCache{
		rdb: rdb,
		ttl: cacheTTL,
	}, nil
}

func key(busID string) string {
	return "bus:location:" + busID
}

// Set stores the current location for a bus.
func (c *LocationCache) Set(ctx context.Context, loc models.BusLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(loc.BusID), data, c.ttl).Err()
}

// Get returns the cached location for a bus, or ErrCacheMiss.
func (c *LocationCache) Get(ctx context.Context, busID string) (*models.BusLocation, error) {
	data, err := c.rdb.Get(ctx, key(busID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var loc models.BusLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// Delete drops cached locations, used when the cleanup job retires buses.
func (c *LocationCache) Delete(ctx context.Context, busIDs ...string) error {
	if len(busIDs) == 0 {
		return nil
	}
	keys := make([]string, len(busIDs))
	for i, id := range busIDs {
		keys[i] = key(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
