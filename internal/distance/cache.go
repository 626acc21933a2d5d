// Package distance estimates road distances between addresses with a
// Redis memoization layer in front of a pluggable resolver (typically a
// map-service client).
package distance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/logger"
)

// ErrUnknownDistance is returned when neither the cache nor the resolver
// can produce an estimate.
var ErrUnknownDistance = errors.New("distance unknown")

// Resolver is the upstream estimator consulted on cache misses.
type Resolver interface {
	Resolve(ctx context.Context, from, to string) (decimal.Decimal, error)
}

const cacheTTL = 30 * 24 * time.Hour

// Cache memoizes resolved distances in Redis. Cache failures degrade to
// the resolver rather than failing the lookup.
type Cache struct {
	rdb      *redis.Client
	resolver Resolver
	log      logger.Logger
}

func NewCache(rdb *redis.Client, resolver Resolver, log logger.Logger) *Cache {
	return &Cache{rdb: rdb, resolver: resolver, log: log}
}

func cacheKey(from, to string) string {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return fmt.Sprintf("distance:%s|%s", norm(from), norm(to))
}

// Lookup returns the distance in kilometers between two addresses,
// serving from Redis when possible.
func (c *Cache) Lookup(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, fmt.Errorf("cache not initialized")
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return decimal.Zero, ErrUnknownDistance
	}

	key := cacheKey(from, to)
	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
			if d, err := decimal.NewFromString(cached); err == nil {
				return d, nil
			}
		} else if !errors.Is(err, redis.Nil) && c.log != nil {
			c.log.Warnf("distance cache read failed: %v", err)
		}
	}

	if c.resolver == nil {
		return decimal.Zero, ErrUnknownDistance
	}
	d, err := c.resolver.Resolve(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve distance: %w", err)
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, d.String(), cacheTTL).Err(); err != nil && c.log != nil {
			c.log.Warnf("distance cache write failed: %v", err)
		}
	}
	return d, nil
}
