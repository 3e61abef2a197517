package meshscout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client for mesh-topology query results. Mesh-graph
// queries are
// repeatable across the critic's retry loop within one incident, so a
// short TTL keyed by incident service + minute-bucketed start time avoids
// re-querying the graph store on every iteration without risking a stale
// read across distinct incidents.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache dials Redis and verifies connectivity.
func NewCache(ctx context.Context, addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("meshscout: connect redis at %s: %w", addr, err)
	}
	return &Cache{client: client, ttl: 2 * time.Minute}, nil
}

// Key builds the cache key for one incident's mesh lookup, bucketed to
// the minute so retries within the same investigation share a hit.
func Key(service string, startedAt time.Time) string {
	return fmt.Sprintf("meshscout:%s:%d", service, startedAt.Unix()/60)
}

func (c *Cache) Get(ctx context.Context, key string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var r Result
	if json.Unmarshal([]byte(val), &r) != nil {
		return nil, false
	}
	return &r, true
}

func (c *Cache) Set(ctx context.Context, key string, r *Result) {
	if c == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
