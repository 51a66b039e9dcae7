package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache stores serialized recommendation lists keyed by user, strategy
// and every filter parameter. Payloads are DTO snapshots, never live
// objects.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key builds the deterministic cache key for one recommendation
// request. Parameter order is fixed so identical requests always map to
// the same entry.
type Key struct {
	UserID          int64
	Type            domain.RecommendationType
	Limit           int
	MinRating       float64
	MinYear         int
	MaxYear         int
	MinRatingsCount int
}

func (k Key) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rec:user:%d:type:%s:limit:%d", k.UserID, k.Type, k.Limit)
	fmt.Fprintf(&sb, ":minr:%.2f:years:%d-%d:minc:%d", k.MinRating, k.MinYear, k.MaxYear, k.MinRatingsCount)
	return sb.String()
}

// Get returns the cached recommendations for key, (nil, false, nil) on
// a miss.
func (c *Cache) Get(ctx context.Context, key Key) ([]domain.BookRecommendation, bool, error) {
	val, err := c.client.Get(ctx, key.String()).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var recs []domain.BookRecommendation
	if err := json.Unmarshal([]byte(val), &recs); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached recommendations %s: %w", key, err)
	}
	return recs, true, nil
}

// Set stores the recommendations with the configured TTL.
func (c *Cache) Set(ctx context.Context, key Key, recs []domain.BookRecommendation) error {
	val, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	if err := c.client.Set(ctx, key.String(), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// InvalidateUser drops every cached entry for the user. Called when the
// user's interaction history changes.
func (c *Cache) InvalidateUser(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("rec:user:%d:*", userID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
