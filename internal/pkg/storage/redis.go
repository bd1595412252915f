package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// CoefficientCache remembers the last coefficient written per odds key so
// re-ingesting an unchanged line doesn't touch Postgres at all.
type CoefficientCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCoefficientCache(addr, password string, db int, ttl time.Duration) (*CoefficientCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CoefficientCache{client: client, ttl: ttl}, nil
}

func cacheKey(k models.OddsKey) string {
	return fmt.Sprintf("odds:%d:%d:%d:%d:%s", k.SourceID, k.FixtureID, k.MarketID, k.MarketTypeID, k.ExternalFixtureID)
}

// Unchanged reports whether the cached coefficient for this key equals the
// new one. A cache miss or error counts as changed, the upsert then decides.
func (c *CoefficientCache) Unchanged(ctx context.Context, rec models.OddsRecord) bool {
	val, err := c.client.Get(ctx, cacheKey(rec.Key())).Result()
	if err != nil {
		return false
	}
	prev, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return false
	}
	return prev == rec.Coefficient
}

// Remember stores the coefficient just written, with TTL.
func (c *CoefficientCache) Remember(ctx context.Context, rec models.OddsRecord) error {
	val := strconv.FormatFloat(rec.Coefficient, 'f', -1, 64)
	return c.client.Set(ctx, cacheKey(rec.Key()), val, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *CoefficientCache) Close() error {
	return c.client.Close()
}
