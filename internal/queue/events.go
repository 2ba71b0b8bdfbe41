package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the feed stream
const (
	EventPostCreated = "post_created"
	EventPostDeleted = "post_deleted"
)

// Stream names
const (
	StreamFeed = "stream:feed"
)

// Consumer group name for feed workers
const (
	ConsumerGroupFeed = "feed_workers"
)

// FeedEvent represents an event published to the feed stream.
type FeedEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	PostID   string `json:"post_id,omitempty"`   // hex document id
	AuthorID string `json:"author_id,omitempty"` // hex document id
}

// NewPostCreatedEvent creates an event for when a user creates a post.
// The worker inserts the post into the recent feed cache.
func NewPostCreatedEvent(postID, authorID string, createdAt time.Time) FeedEvent {
	return FeedEvent{
		Type:      EventPostCreated,
		Timestamp: createdAt.Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostDeletedEvent creates an event for when a user deletes a post.
// The worker removes the post from the recent feed cache.
func NewPostDeletedEvent(postID, authorID string) FeedEvent {
	return FeedEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Streams store field-value pairs, so the event is serialized to JSON in a
// "data" field alongside the type for quick filtering.
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseFeedEvent parses a FeedEvent from Redis stream message values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
