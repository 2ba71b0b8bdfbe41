package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"devconnect/internal/httputil"
	"devconnect/internal/model"
	"devconnect/internal/service"
	"devconnect/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
	feedService *service.FeedService
}

func NewPostHandler(postService *service.PostService, feedService *service.FeedService) *PostHandler {
	return &PostHandler{
		postService: postService,
		feedService: feedService,
	}
}

// Create handles POST /api/posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTextRequired):
			httputil.WriteBadRequest(w, "Text is required")
		case errors.Is(err, model.ErrTextTooLong):
			httputil.WriteBadRequest(w, "Text too long (max 300 characters)")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteUnauthorized(w, "Unknown user")
		default:
			log.Printf("[ERROR] Create post handler: user=%s err=%v", userID.Hex(), err)
			httputil.WriteInternalError(w, "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// List handles GET /api/posts
// Returns recent posts, newest first. An empty feed is a 200 with an empty
// array, never an error.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feedService.ListRecent(r.Context())
	if err != nil {
		log.Printf("[ERROR] List posts handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetByID handles GET /api/posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "No post found with that id")
			return
		}
		log.Printf("[ERROR] Get post handler: post=%s err=%v", postID.Hex(), err)
		httputil.WriteInternalError(w, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}
// Only the owner can delete a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	err := h.postService.Delete(r.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "No post found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			log.Printf("[ERROR] Delete post handler: user=%s post=%s err=%v", userID.Hex(), postID.Hex(), err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.DeleteResponse{Success: true})
}

// Like handles POST /api/posts/{id}/likes
// A repeat like by the same user is rejected, not ignored.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Like(r.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "No post found")
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteBadRequestWithCode(w, model.CodeAlreadyLiked, "User already liked this post")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteUnauthorized(w, "Unknown user")
		default:
			log.Printf("[ERROR] Like post handler: user=%s post=%s err=%v", userID.Hex(), postID.Hex(), err)
			httputil.WriteInternalError(w, "Failed to like post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Unlike handles DELETE /api/posts/{id}/likes
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Unlike(r.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "No post found")
		case errors.Is(err, model.ErrNotLiked):
			httputil.WriteBadRequestWithCode(w, model.CodeNotLiked, "You have not yet liked this post")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteUnauthorized(w, "Unknown user")
		default:
			log.Printf("[ERROR] Unlike post handler: user=%s post=%s err=%v", userID.Hex(), postID.Hex(), err)
			httputil.WriteInternalError(w, "Failed to unlike post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// AddComment handles POST /api/posts/{id}/comments
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.AddComment(r.Context(), postID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "No post found")
		case errors.Is(err, model.ErrTextRequired):
			httputil.WriteBadRequest(w, "Text is required")
		case errors.Is(err, model.ErrTextTooLong):
			httputil.WriteBadRequest(w, "Text too long (max 300 characters)")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteUnauthorized(w, "Unknown user")
		default:
			log.Printf("[ERROR] Add comment handler: user=%s post=%s err=%v", userID.Hex(), postID.Hex(), err)
			httputil.WriteInternalError(w, "Failed to add comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// RemoveComment handles DELETE /api/posts/{id}/comments/{comment_id}
// Any authenticated caller may remove any comment; the route requires auth
// but the operation checks no comment ownership.
func (h *PostHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	commentID := chi.URLParam(r, "comment_id")

	post, err := h.postService.RemoveComment(r.Context(), postID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "No post found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFoundWithCode(w, model.CodeCommentNotFound, "Comment does not exist")
		default:
			log.Printf("[ERROR] Remove comment handler: post=%s comment=%s err=%v", postID.Hex(), commentID, err)
			httputil.WriteInternalError(w, "Failed to remove comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// parsePostID reads the {id} route param. A malformed id cannot address any
// post, so it reports not-found rather than bad-request.
func parsePostID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteNotFound(w, "No post found with that id")
		return primitive.NilObjectID, false
	}
	return postID, true
}
