package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"devconnect/internal/model"
	"devconnect/internal/queue"
	"devconnect/internal/repository"
)

// PostService implements the post mutation protocol. Every operation takes
// the caller's id explicitly; nothing is read from ambient state.
type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// Create creates a new post with author name and avatar snapshotted from the
// caller's profile at this instant, then publishes an event for the feed.
func (s *PostService) Create(ctx context.Context, userID primitive.ObjectID, req model.CreatePostRequest) (*model.Post, error) {
	text := strings.TrimSpace(req.Text)
	if err := validateText(text); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		User:      userID,
		Text:      text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		Likes:     []model.Like{},
		Comments:  []model.Comment{},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// Best-effort: the post exists either way, the feed cache catches up.
	if s.publisher != nil {
		event := queue.NewPostCreatedEvent(post.ID.Hex(), userID.Hex(), post.CreatedAt)
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			log.Printf("[PostService] Failed to publish PostCreated event: post=%s err=%v", post.ID.Hex(), err)
		}
	}

	return post, nil
}

// Get retrieves a single post with its embedded likes and comments.
func (s *PostService) Get(ctx context.Context, postID primitive.ObjectID) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// Delete removes a post. Only the owner may delete; the embedded likes and
// comments go with it. A second delete of the same id fails with not-found.
func (s *PostService) Delete(ctx context.Context, postID, userID primitive.ObjectID) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	log.Printf("[PostService] User %s deleted post %s", userID.Hex(), postID.Hex())

	if s.publisher != nil {
		event := queue.NewPostDeletedEvent(postID.Hex(), userID.Hex())
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			log.Printf("[PostService] Failed to publish PostDeleted event: post=%s err=%v", postID.Hex(), err)
		}
	}

	return nil
}

// Like front-inserts a like for the caller. A repeat like by the same user is
// an error, not a no-op.
func (s *PostService) Like(ctx context.Context, postID, userID primitive.ObjectID) (*model.Post, error) {
	// Confirm the caller's profile exists before mutating.
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	like := model.Like{
		ID:   uuid.NewString(),
		User: userID,
	}

	post, err := s.postRepo.AddLike(ctx, postID, like)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %s liked post %s", userID.Hex(), postID.Hex())
	return post, nil
}

// Unlike removes the caller's like. Fails if the caller never liked the post.
func (s *PostService) Unlike(ctx context.Context, postID, userID primitive.ObjectID) (*model.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	post, err := s.postRepo.RemoveLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %s unliked post %s", userID.Hex(), postID.Hex())
	return post, nil
}

// AddComment front-inserts a comment with author snapshots from the caller's
// profile and returns the updated post.
func (s *PostService) AddComment(ctx context.Context, postID, userID primitive.ObjectID, req model.CreateCommentRequest) (*model.Post, error) {
	text := strings.TrimSpace(req.Text)
	if err := validateText(text); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		User:      userID,
		Text:      text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		CreatedAt: time.Now().UTC(),
	}

	post, err := s.postRepo.AddComment(ctx, postID, comment)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %s commented on post %s", userID.Hex(), postID.Hex())
	return post, nil
}

// RemoveComment excises a comment by id and returns the updated post.
// Deliberately takes no caller id: any authenticated user may remove any
// comment, matching the existing product contract.
func (s *PostService) RemoveComment(ctx context.Context, postID primitive.ObjectID, commentID string) (*model.Post, error) {
	post, err := s.postRepo.RemoveComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] Comment %s removed from post %s", commentID, postID.Hex())
	return post, nil
}

func validateText(text string) error {
	if text == "" {
		return model.ErrTextRequired
	}
	if len(text) > model.MaxPostTextLength {
		return model.ErrTextTooLong
	}
	return nil
}
