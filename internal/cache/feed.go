package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedCacheKey is the sorted set holding the public recent-posts feed.
	FeedCacheKey = "feed:recent"

	// FeedCacheCap is the maximum number of post ids to keep cached; it is
	// also the depth of the feed the API serves.
	FeedCacheCap = 500

	// FeedCacheTTL expires a feed that has seen no writes or reads, so a
	// stale cache rebuilds from the store.
	FeedCacheTTL = 24 * time.Hour
)

// PostScore pairs a post id with its creation timestamp score.
type PostScore struct {
	PostID    string // hex document id
	Timestamp int64  // Unix timestamp
}

// FeedCache maintains the recent-posts feed ordering. The cache holds only
// ids and ordering; documents are always hydrated from the store, so embedded
// likes and comments are never stale.
type FeedCache interface {
	// AddPost inserts a post into the feed.
	// Uses pipeline: ZADD + ZREMRANGEBYRANK (maintain cap) + EXPIRE (refresh TTL)
	AddPost(ctx context.Context, postID string, timestamp int64) error

	// RemovePost drops a post from the feed. Uses ZREM.
	RemovePost(ctx context.Context, postID string) error

	// GetRecent returns up to limit post ids, newest first.
	GetRecent(ctx context.Context, limit int) ([]string, error)

	// Warm bulk-inserts posts using pipelined ZADD + EXPIRE.
	Warm(ctx context.Context, posts []PostScore) error

	// Size returns the number of posts in the feed cache.
	Size(ctx context.Context) (int64, error)
}

// RedisFeedCache implements FeedCache using a Redis sorted set scored by
// creation timestamp.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a FeedCache backed by Redis.
func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

// AddPost inserts a post into the feed using a pipeline.
// Pipeline: ZADD + ZREMRANGEBYRANK (trim to cap) + EXPIRE (refresh TTL)
func (c *RedisFeedCache) AddPost(ctx context.Context, postID string, timestamp int64) error {
	startTime := time.Now()

	pipe := c.client.Pipeline()

	pipe.ZAdd(ctx, FeedCacheKey, redis.Z{
		Score:  float64(timestamp),
		Member: postID,
	})

	// ZREMRANGEBYRANK removes [start, stop] inclusive with 0 as the lowest
	// score (oldest). Keep the newest FeedCacheCap members, drop the rest.
	pipe.ZRemRangeByRank(ctx, FeedCacheKey, 0, int64(-FeedCacheCap-1))

	pipe.Expire(ctx, FeedCacheKey, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] AddPost FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("add post to feed: %w", err)
	}

	log.Printf("[FeedCache] AddPost OK: post=%s timestamp=%d duration=%v",
		postID, timestamp, time.Since(startTime))
	return nil
}

// RemovePost drops a post from the feed.
func (c *RedisFeedCache) RemovePost(ctx context.Context, postID string) error {
	removed, err := c.client.ZRem(ctx, FeedCacheKey, postID).Result()
	if err != nil {
		log.Printf("[FeedCache] RemovePost FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("remove post from feed: %w", err)
	}

	log.Printf("[FeedCache] RemovePost OK: post=%s removed=%d", postID, removed)
	return nil
}

// GetRecent returns up to limit post ids, newest first (ZREVRANGE).
func (c *RedisFeedCache) GetRecent(ctx context.Context, limit int) ([]string, error) {
	startTime := time.Now()

	ids, err := c.client.ZRevRange(ctx, FeedCacheKey, 0, int64(limit-1)).Result()
	if err != nil {
		log.Printf("[FeedCache] GetRecent FAILED: err=%v", err)
		return nil, fmt.Errorf("get recent feed: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, FeedCacheKey, FeedCacheTTL)

	log.Printf("[FeedCache] GetRecent OK: returned=%d duration=%v", len(ids), time.Since(startTime))
	return ids, nil
}

// Warm bulk-inserts posts into the feed cache using a pipeline.
func (c *RedisFeedCache) Warm(ctx context.Context, posts []PostScore) error {
	if len(posts) == 0 {
		log.Printf("[FeedCache] Warm: posts=0 (nothing to warm)")
		return nil
	}

	startTime := time.Now()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: p.PostID,
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, FeedCacheKey, members...)
	pipe.ZRemRangeByRank(ctx, FeedCacheKey, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, FeedCacheKey, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] Warm FAILED: posts=%d err=%v", len(posts), err)
		return fmt.Errorf("warm feed cache: %w", err)
	}

	log.Printf("[FeedCache] Warm OK: posts=%d duration=%v", len(posts), time.Since(startTime))
	return nil
}

// Size returns the number of posts in the feed cache.
func (c *RedisFeedCache) Size(ctx context.Context) (int64, error) {
	size, err := c.client.ZCard(ctx, FeedCacheKey).Result()
	if err != nil {
		log.Printf("[FeedCache] Size FAILED: err=%v", err)
		return 0, fmt.Errorf("get feed cache size: %w", err)
	}
	return size, nil
}
