package repository

import (
	model "auction-site/internal/models"
	"auction-site/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

const (
	categoriesKey = "auction:categories"
	// epochKey is bumped by every flush; genKey by every write to one auction
	epochKey = "auction:epoch"
	genTTL   = 24 * time.Hour
)

var errStaleFill = errors.New("cache fill raced an invalidation")

func detailKey(auctionID uint) string {
	return fmt.Sprintf("auction:detail:%d", auctionID)
}

func genKey(auctionID uint) string {
	return fmt.Sprintf("auction:gen:%d", auctionID)
}

// CachedRepo decorates an AuctionDB with a Redis read-through cache for auction details and categories.
// Methods it does not override go straight to the wrapped store.
type CachedRepo struct {
	AuctionDB
	rdb *redis.Client
	cb  *gobreaker.CircuitBreaker
	sf  singleflight.Group
	ttl time.Duration
}

func NewCachedRepo(next AuctionDB, rdb *redis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	st := gobreaker.Settings{
		Name:        "RedisCircuitBreaker",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			utils.Warn("circuit breaker state changed", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	return &CachedRepo{
		AuctionDB: next,
		rdb:       rdb,
		cb:        gobreaker.NewCircuitBreaker(st),
		ttl:       ttl,
	}
}

// readCache returns the cached value for key; ok is false on a miss or when Redis is unavailable
func (c *CachedRepo) readCache(ctx context.Context, key string, dst any) bool {
	val, err := c.cb.Execute(func() (any, error) {
		res, err := c.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		utils.Warn("cache unavailable, reading from store", map[string]any{"key": key, "error": err.Error()})
		return false
	}
	if val == nil {
		return false
	}
	if err := json.Unmarshal([]byte(val.(string)), dst); err != nil {
		utils.Error("failed to decode cached value", map[string]any{"key": key, "error": err.Error()})
		return false
	}
	return true
}

// expiry jitters the ttl so keys written together do not expire together
func (c *CachedRepo) expiry() time.Duration {
	return c.ttl + time.Duration(rand.Intn(60))*time.Second
}

// counters reads invalidation counters; a missing counter reads as ""
func counters(cmd *redis.SliceCmd) ([]string, error) {
	vals, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i], _ = v.(string)
	}
	return out, nil
}

// fill loads a value from the store and caches it under key, unless one of the
// guard counters moved between the load and the write.
func (c *CachedRepo) fill(ctx context.Context, key string, guards []string, load func() (any, error)) (any, error) {
	seen, err := counters(c.rdb.MGet(ctx, guards...))
	if err != nil {
		utils.Warn("cache unavailable, skipping fill", map[string]any{"key": key, "error": err.Error()})
		return load()
	}
	value, err := load()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		now, err := counters(tx.MGet(ctx, guards...))
		if err != nil {
			return err
		}
		if !slices.Equal(now, seen) {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.expiry())
			return nil
		})
		return err
	}, guards...)
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		utils.Debug("dropped stale cache fill", map[string]any{"key": key})
	default:
		utils.Warn("failed to write cache", map[string]any{"key": key, "error": err.Error()})
	}
	return value, nil
}

func (c *CachedRepo) invalidate(ctx context.Context, keys ...string) {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		utils.Warn("failed to invalidate cache", map[string]any{"keys": keys, "error": err.Error()})
	}
}

// invalidateAuction bumps the auction's generation and drops its cached detail in one transaction
func (c *CachedRepo) invalidateAuction(ctx context.Context, auctionID uint) {
	gen := genKey(auctionID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, genTTL)
		pipe.Del(ctx, detailKey(auctionID))
		return nil
	})
	if err != nil {
		utils.Warn("failed to invalidate cache", map[string]any{"auctionID": auctionID, "error": err.Error()})
	}
}

func (c *CachedRepo) GetAuctionDetail(ctx context.Context, auctionID uint) (model.AuctionDetail, error) {
	key := detailKey(auctionID)
	var detail model.AuctionDetail
	if c.readCache(ctx, key, &detail) {
		return detail, nil
	}

	result, err, _ := c.sf.Do(key, func() (any, error) {
		return c.fill(ctx, key, []string{epochKey, genKey(auctionID)}, func() (any, error) {
			return c.AuctionDB.GetAuctionDetail(ctx, auctionID)
		})
	})
	if err != nil {
		return model.AuctionDetail{}, err
	}
	return result.(model.AuctionDetail), nil
}

func (c *CachedRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if c.readCache(ctx, categoriesKey, &categories) {
		return categories, nil
	}

	result, err, _ := c.sf.Do(categoriesKey, func() (any, error) {
		return c.fill(ctx, categoriesKey, []string{epochKey}, func() (any, error) {
			return c.AuctionDB.ListCategories(ctx)
		})
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.Category), nil
}

func (c *CachedRepo) UpdateAuction(ctx context.Context, auction model.Auction) error {
	if err := c.AuctionDB.UpdateAuction(ctx, auction); err != nil {
		return err
	}
	c.invalidateAuction(ctx, auction.AuctionID)
	return nil
}

func (c *CachedRepo) DeleteAuction(ctx context.Context, auctionID uint) error {
	if err := c.AuctionDB.DeleteAuction(ctx, auctionID); err != nil {
		return err
	}
	c.invalidateAuction(ctx, auctionID)
	return nil
}

func (c *CachedRepo) SetAuctionImage(ctx context.Context, auctionID uint, filename string) error {
	if err := c.AuctionDB.SetAuctionImage(ctx, auctionID, filename); err != nil {
		return err
	}
	c.invalidateAuction(ctx, auctionID)
	return nil
}

func (c *CachedRepo) RecordBid(ctx context.Context, bid *model.Bid) error {
	if err := c.AuctionDB.RecordBid(ctx, bid); err != nil {
		return err
	}
	c.invalidateAuction(ctx, bid.AuctionID)
	return nil
}

// Reset resets the wrapped store and drops every cached entry
func (c *CachedRepo) Reset(ctx context.Context) error {
	seeder, ok := c.AuctionDB.(Seeder)
	if !ok {
		return fmt.Errorf("reset: wrapped store cannot be reset")
	}
	if err := seeder.Reset(ctx); err != nil {
		return err
	}
	return c.flush(ctx)
}

func (c *CachedRepo) Resample(ctx context.Context) error {
	seeder, ok := c.AuctionDB.(Seeder)
	if !ok {
		return fmt.Errorf("resample: wrapped store cannot be resampled")
	}
	if err := seeder.Resample(ctx); err != nil {
		return err
	}
	return c.flush(ctx)
}

// flush bumps the epoch, which voids fills in flight, then removes every other auction key
func (c *CachedRepo) flush(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, epochKey).Err(); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	iter := c.rdb.Scan(ctx, 0, "auction:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		if iter.Val() != epochKey {
			keys = append(keys, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	if len(keys) > 0 {
		c.invalidate(ctx, keys...)
	}
	return nil
}

// Ping checks the Redis connection
func (c *CachedRepo) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
