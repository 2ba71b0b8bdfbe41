package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"devconnect/internal/cache"
	"devconnect/internal/queue"
)

// Handler applies feed events to the recent-posts cache.
type Handler struct {
	feedCache cache.FeedCache
}

// NewHandler creates a new event handler.
func NewHandler(feedCache cache.FeedCache) *Handler {
	return &Handler{feedCache: feedCache}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePostCreated inserts the new post into the recent feed.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] PostCreated: post=%s author=%s", event.PostID, event.AuthorID)

	if err := h.feedCache.AddPost(ctx, event.PostID, event.Timestamp); err != nil {
		return fmt.Errorf("add post to feed: %w", err)
	}
	return nil
}

// handlePostDeleted drops the post from the recent feed.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] PostDeleted: post=%s author=%s", event.PostID, event.AuthorID)

	if err := h.feedCache.RemovePost(ctx, event.PostID); err != nil {
		return fmt.Errorf("remove post from feed: %w", err)
	}
	return nil
}
