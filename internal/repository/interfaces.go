package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"devconnect/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PostRepository persists the post aggregate. Like/comment mutations are
// single atomic document updates with guard filters, so concurrent requests
// cannot duplicate a like or lose a write; each returns the post as it stands
// after the update.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	// GetByIDs returns posts in the order of the input ids, skipping ids that
	// no longer resolve. Used for hydrating the feed from cache.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Post, error)
	// ListRecent returns up to limit posts, newest first. An empty store
	// yields an empty slice, not an error.
	ListRecent(ctx context.Context, limit int64) ([]model.Post, error)
	// Delete removes the post if ownerID matches its owning user.
	// Returns ErrNotPostOwner or ErrPostNotFound otherwise.
	Delete(ctx context.Context, postID, ownerID primitive.ObjectID) error
	// AddLike front-inserts the like unless the user already liked the post.
	AddLike(ctx context.Context, postID primitive.ObjectID, like model.Like) (*model.Post, error)
	// RemoveLike excises the caller's like. Returns ErrNotLiked if absent.
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.Post, error)
	// AddComment front-inserts the comment.
	AddComment(ctx context.Context, postID primitive.ObjectID, comment model.Comment) (*model.Post, error)
	// RemoveComment excises the comment with the given id. Returns
	// ErrCommentNotFound if no comment on the post has that id.
	RemoveComment(ctx context.Context, postID primitive.ObjectID, commentID string) (*model.Post, error)
}
