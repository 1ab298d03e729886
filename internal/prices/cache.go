package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
)

// Cache is a read-through Redis cache in front of another Source.
//
// Key schema:
//
//	price:{symbol} - decimal string, expires after the cache TTL
type Cache struct {
	rdb  *redis.Client
	next Source
	ttl  time.Duration
}

// NewRedisClient connects to the Redis server at url and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// NewCache creates a cache in front of next. next may be nil.
func NewCache(rdb *redis.Client, next Source, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, next: next, ttl: ttl}
}

func priceKey(symbol string) string { return "price:" + symbol }

// Prices serves cached prices and loads the rest from the next source.
func (c *Cache) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = priceKey(s)
	}

	missing := symbols
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err == nil {
		missing = nil
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, symbols[i])
				continue
			}
			p, err := decimal.NewFromString(s)
			if err != nil {
				missing = append(missing, symbols[i])
				continue
			}
			out[symbols[i]] = p
		}
	}

	if len(missing) == 0 || c.next == nil {
		if err != nil {
			return out, fmt.Errorf("redis: mget: %w", err)
		}
		return out, nil
	}

	loaded, loadErr := c.next.Prices(ctx, missing)
	pipe := c.rdb.Pipeline()
	for symbol, p := range loaded {
		out[symbol] = p
		pipe.Set(ctx, priceKey(symbol), p.String(), c.ttl)
	}
	if len(loaded) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && loadErr == nil {
			loadErr = fmt.Errorf("redis: fill: %w", err)
		}
	}
	return out, loadErr
}

// Set stores fresh prices, replacing cached values.
func (c *Cache) Set(ctx context.Context, prices []domain.Price) error {
	if len(prices) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, p := range prices {
		pipe.Set(ctx, priceKey(p.Symbol), p.Price.String(), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set prices: %w", err)
	}
	return nil
}
