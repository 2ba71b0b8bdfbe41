package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devconnect/internal/database"
	"devconnect/internal/model"
)

type postRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) PostRepository {
	return &postRepository{col: db.Collection(database.PostsCollection)}
}

// Create inserts a new post aggregate.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	res, err := r.col.InsertOne(ctx, post)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = id
	}
	return nil
}

// GetByID retrieves a single post with its embedded likes and comments.
func (r *postRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

// GetByIDs retrieves multiple posts and re-orders them to match the input
// order, which carries the feed ordering from the cache.
func (r *postRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	var posts []model.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	byID := make(map[primitive.ObjectID]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	ordered := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// ListRecent returns up to limit posts ordered by descending creation time.
func (r *postRepository) ListRecent(ctx context.Context, limit int64) ([]model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := []model.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	return posts, nil
}

// Delete removes the post together with its embedded likes and comments.
// The owner filter makes ownership enforcement part of the same atomic
// operation as the delete itself.
func (r *postRepository) Delete(ctx context.Context, postID, ownerID primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": postID, "user": ownerID})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if res.DeletedCount == 0 {
		// Nothing matched: either the post belongs to someone else or it is
		// gone. Distinguish the two for the caller.
		exists, err := r.exists(ctx, postID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}

	return nil
}

// AddLike front-inserts a like. The filter excludes posts the user already
// liked, so the duplicate guard and the insert are one atomic update.
func (r *postRepository) AddLike(ctx context.Context, postID primitive.ObjectID, like model.Like) (*model.Post, error) {
	filter := bson.M{
		"_id":        postID,
		"likes.user": bson.M{"$ne": like.User},
	}
	update := bson.M{
		"$push": bson.M{
			"likes": bson.M{
				"$each":     []model.Like{like},
				"$position": 0,
			},
		},
	}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrGuard(ctx, postID, model.ErrAlreadyLiked)
		}
		return nil, fmt.Errorf("add like: %w", err)
	}

	return post, nil
}

// RemoveLike excises the caller's like. The filter requires an existing like
// from this user, so a repeat unlike cannot match.
func (r *postRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.Post, error) {
	filter := bson.M{
		"_id":        postID,
		"likes.user": userID,
	}
	update := bson.M{
		"$pull": bson.M{
			"likes": bson.M{"user": userID},
		},
	}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrGuard(ctx, postID, model.ErrNotLiked)
		}
		return nil, fmt.Errorf("remove like: %w", err)
	}

	return post, nil
}

// AddComment front-inserts a comment.
func (r *postRepository) AddComment(ctx context.Context, postID primitive.ObjectID, comment model.Comment) (*model.Post, error) {
	filter := bson.M{"_id": postID}
	update := bson.M{
		"$push": bson.M{
			"comments": bson.M{
				"$each":     []model.Comment{comment},
				"$position": 0,
			},
		},
	}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}

	return post, nil
}

// RemoveComment excises the comment with the given id.
func (r *postRepository) RemoveComment(ctx context.Context, postID primitive.ObjectID, commentID string) (*model.Post, error) {
	filter := bson.M{
		"_id":         postID,
		"comments.id": commentID,
	}
	update := bson.M{
		"$pull": bson.M{
			"comments": bson.M{"id": commentID},
		},
	}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrGuard(ctx, postID, model.ErrCommentNotFound)
		}
		return nil, fmt.Errorf("remove comment: %w", err)
	}

	return post, nil
}

// findOneAndUpdate runs the guarded update and decodes the post as it stands
// after the mutation.
func (r *postRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post model.Post
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// missOrGuard resolves an ErrNoDocuments from a guarded update: if the post
// exists the guard rejected the mutation, otherwise the post is gone.
func (r *postRepository) missOrGuard(ctx context.Context, postID primitive.ObjectID, guardErr error) error {
	exists, err := r.exists(ctx, postID)
	if err != nil {
		return err
	}
	if exists {
		return guardErr
	}
	return model.ErrPostNotFound
}

func (r *postRepository) exists(ctx context.Context, postID primitive.ObjectID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return count > 0, nil
}
