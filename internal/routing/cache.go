package routing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// estimateCache stores travel estimates in Redis. A nil cache is valid
// and behaves as a permanent miss.
type estimateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newEstimateCache(client *redis.Client, ttl time.Duration) *estimateCache {
	if client == nil {
		return nil
	}
	return &estimateCache{client: client, ttl: ttl}
}

func (c *estimateCache) Get(ctx context.Context, from, to Location) (int, int64, bool) {
	if c == nil {
		return 0, 0, false
	}

	val, err := c.client.Get(ctx, estimateKey(from, to)).Result()
	if err != nil {
		return 0, 0, false
	}
	minutesStr, metersStr, found := strings.Cut(val, ":")
	if !found {
		return 0, 0, false
	}
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil {
		return 0, 0, false
	}
	meters, err := strconv.ParseInt(metersStr, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return minutes, meters, true
}

func (c *estimateCache) Set(ctx context.Context, from, to Location, minutes int, meters int64) {
	if c == nil {
		return
	}
	val := strconv.Itoa(minutes) + ":" + strconv.FormatInt(meters, 10)
	// Cache write failures are not worth failing the request over.
	_ = c.client.Set(ctx, estimateKey(from, to), val, c.ttl).Err()
}

// estimateKey rounds coordinates to ~100m so nearby lookups share entries.
func estimateKey(from, to Location) string {
	return fmt.Sprintf("travel:%.3f,%.3f:%.3f,%.3f", from.Lat, from.Lng, to.Lat, to.Lng)
}
