package service

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"devconnect/internal/cache"
	"devconnect/internal/model"
	"devconnect/internal/repository"
)

// FeedService serves the public recent-posts feed, newest first.
//
// The cache holds only ids and ordering; documents are hydrated from the
// store on every read so embedded likes and comments are never stale. When
// the cache is cold the feed falls back to a store query and warms the cache
// from the result.
type FeedService struct {
	postRepo repository.PostRepository
	cache    cache.FeedCache
}

func NewFeedService(postRepo repository.PostRepository, feedCache cache.FeedCache) *FeedService {
	return &FeedService{
		postRepo: postRepo,
		cache:    feedCache,
	}
}

// ListRecent returns up to cache.FeedCacheCap posts in descending creation
// order. An empty store yields an empty slice, never an error; only storage
// faults fail the read.
func (s *FeedService) ListRecent(ctx context.Context) ([]model.Post, error) {
	if s.cache != nil {
		posts, ok := s.listFromCache(ctx)
		if ok {
			return posts, nil
		}
	}

	posts, err := s.postRepo.ListRecent(ctx, cache.FeedCacheCap)
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}

	if s.cache != nil && len(posts) > 0 {
		s.warm(ctx, posts)
	}

	return posts, nil
}

// listFromCache serves the feed from cached ids. Returns ok=false on a cold
// or failing cache so the caller falls through to the store.
func (s *FeedService) listFromCache(ctx context.Context) ([]model.Post, bool) {
	ids, err := s.cache.GetRecent(ctx, cache.FeedCacheCap)
	if err != nil {
		log.Printf("[FeedService] cache read failed, falling back to store: %v", err)
		return nil, false
	}
	if len(ids) == 0 {
		return nil, false
	}

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			log.Printf("[FeedService] skipping malformed cached id %q", id)
			continue
		}
		objectIDs = append(objectIDs, oid)
	}

	posts, err := s.postRepo.GetByIDs(ctx, objectIDs)
	if err != nil {
		log.Printf("[FeedService] hydrate failed, falling back to store: %v", err)
		return nil, false
	}

	return posts, true
}

// warm is best-effort: a failed warm only means the next read hits the store
// again.
func (s *FeedService) warm(ctx context.Context, posts []model.Post) {
	scores := make([]cache.PostScore, len(posts))
	for i, p := range posts {
		scores[i] = cache.PostScore{
			PostID:    p.ID.Hex(),
			Timestamp: p.CreatedAt.Unix(),
		}
	}

	if err := s.cache.Warm(ctx, scores); err != nil {
		log.Printf("[FeedService] cache warm failed: %v", err)
	}
}
