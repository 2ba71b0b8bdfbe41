package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"devconnect/internal/config"
	"devconnect/internal/handler"
	"devconnect/internal/model"
	"devconnect/internal/repository"
	"devconnect/internal/service"
	transport "devconnect/internal/transport/http"
)

// ============================================================================
// In-memory repositories
// ============================================================================

type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]model.User
	next  byte
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]model.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return model.ErrEmailExists
		}
	}
	r.next++
	var id primitive.ObjectID
	id[11] = r.next
	user.ID = id
	r.users[id] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memPostRepo struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]model.Post
	order []primitive.ObjectID // insertion order, oldest first
	next  byte
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[primitive.ObjectID]model.Post)}
}

func (r *memPostRepo) Create(ctx context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	var id primitive.ObjectID
	id[0] = 0x0f
	id[11] = r.next
	post.ID = id
	r.posts[id] = *post
	r.order = append(r.order, id)
	return nil
}

func (r *memPostRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	return &p, nil
}

func (r *memPostRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPostRepo) ListRecent(ctx context.Context, limit int64) ([]model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Post, 0, len(r.posts))
	for i := len(r.order) - 1; i >= 0; i-- {
		if p, ok := r.posts[r.order[i]]; ok {
			out = append(out, p)
			if limit > 0 && int64(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memPostRepo) Delete(ctx context.Context, postID, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	if p.User != ownerID {
		return model.ErrNotPostOwner
	}
	delete(r.posts, postID)
	return nil
}

func (r *memPostRepo) AddLike(ctx context.Context, postID primitive.ObjectID, like model.Like) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	for _, l := range p.Likes {
		if l.User == like.User {
			return nil, model.ErrAlreadyLiked
		}
	}
	p.Likes = append([]model.Like{like}, p.Likes...)
	r.posts[postID] = p
	return &p, nil
}

func (r *memPostRepo) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	for i, l := range p.Likes {
		if l.User == userID {
			p.Likes = append(append([]model.Like{}, p.Likes[:i]...), p.Likes[i+1:]...)
			r.posts[postID] = p
			return &p, nil
		}
	}
	return nil, model.ErrNotLiked
}

func (r *memPostRepo) AddComment(ctx context.Context, postID primitive.ObjectID, comment model.Comment) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	p.Comments = append([]model.Comment{comment}, p.Comments...)
	r.posts[postID] = p
	return &p, nil
}

func (r *memPostRepo) RemoveComment(ctx context.Context, postID primitive.ObjectID, commentID string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(append([]model.Comment{}, p.Comments[:i]...), p.Comments[i+1:]...)
			r.posts[postID] = p
			return &p, nil
		}
	}
	return nil, model.ErrCommentNotFound
}

var (
	_ repository.UserRepository = (*memUserRepo)(nil)
	_ repository.PostRepository = (*memPostRepo)(nil)
)

// ============================================================================
// Test server setup
// ============================================================================

const testJWTSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:         testJWTSecret,
		AccessTokenMaxAge: 3600,
		// MinCost keeps the bcrypt work factor out of the test runtime.
		BcryptCost: bcrypt.MinCost,
	}

	userRepo := newMemUserRepo()
	postRepo := newMemPostRepo()

	userService := service.NewUserService(userRepo, cfg.BcryptCost)
	tokenService := service.NewTokenService(cfg)
	postService := service.NewPostService(postRepo, userRepo, nil)
	feedService := service.NewFeedService(postRepo, nil)

	return transport.NewRouter(transport.RouterConfig{
		AuthHandler: handler.NewAuthHandler(userService, tokenService),
		PostHandler: handler.NewPostHandler(postService, feedService),
		JWTSecret:   cfg.JWTSecret,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rec, &envelope)
	return envelope.Error.Code
}

// register creates a user through the API and returns the response payload.
func register(t *testing.T, router http.Handler, name, email string) model.RegisterResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}

	var resp model.RegisterResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("register %s: no token in response", email)
	}
	return resp
}

// ============================================================================
// TEST CASES
// ============================================================================

func TestAPI_Register(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rec.Code, rec.Body.String())
	}

	var resp model.RegisterResponse
	decodeBody(t, rec, &resp)
	if resp.User == nil || resp.User.Email != "alice@example.com" {
		t.Fatalf("response user = %+v", resp.User)
	}
	if !strings.HasPrefix(resp.User.Avatar, "https://www.gravatar.com/avatar/") {
		t.Errorf("avatar = %q, want gravatar URL", resp.User.Avatar)
	}

	// The stored hash must never leak into the wire format.
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body.String())
	}
}

func TestAPI_Register_DuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     "Impostor",
		"email":    "Alice@Example.com", // same identity after normalization
		"password": "password456",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != model.CodeEmailExists {
		t.Errorf("error code = %q, want %q", code, model.CodeEmailExists)
	}
}

func TestAPI_AuthRequired(t *testing.T) {
	router := newTestRouter(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/users/current"},
		{http.MethodPost, "/api/posts"},
		{http.MethodDelete, "/api/posts/0f0000000000000000000001"},
		{http.MethodPost, "/api/posts/0f0000000000000000000001/likes"},
	} {
		rec := doJSON(t, router, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestAPI_PublicReads(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status = %d", rec.Code)
	}
	var post model.Post
	decodeBody(t, rec, &post)

	// The feed and single-post reads need no token.
	rec = doJSON(t, router, http.MethodGet, "/api/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list posts: status = %d", rec.Code)
	}
	var posts []model.Post
	decodeBody(t, rec, &posts)
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Errorf("feed = %+v, want the created post", posts)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/posts/"+post.ID.Hex(), "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get post: status = %d", rec.Code)
	}
}

func TestAPI_EmptyFeed(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("empty feed body = %q, want []", body)
	}
}

func TestAPI_MalformedPostID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/posts/not-a-valid-id", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAPI_PostLifecycle(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "Alice", "alice@example.com")
	bob := register(t, router, "Bob", "bob@example.com")

	// Alice posts.
	rec := doJSON(t, router, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "hello world"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var post model.Post
	decodeBody(t, rec, &post)
	if post.Name != "Alice" {
		t.Errorf("author snapshot = %q, want Alice", post.Name)
	}

	postPath := "/api/posts/" + post.ID.Hex()

	// Bob likes it once.
	rec = doJSON(t, router, http.MethodPost, postPath+"/likes", bob.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var liked model.Post
	decodeBody(t, rec, &liked)
	if len(liked.Likes) != 1 {
		t.Fatalf("like count = %d, want 1", len(liked.Likes))
	}

	// A second like is rejected with the dedicated code.
	rec = doJSON(t, router, http.MethodPost, postPath+"/likes", bob.Token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("repeat like: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != model.CodeAlreadyLiked {
		t.Errorf("repeat like code = %q, want %q", code, model.CodeAlreadyLiked)
	}

	// Unlike, then unlike again.
	rec = doJSON(t, router, http.MethodDelete, postPath+"/likes", bob.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unlike: status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, postPath+"/likes", bob.Token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("repeat unlike: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != model.CodeNotLiked {
		t.Errorf("repeat unlike code = %q, want %q", code, model.CodeNotLiked)
	}

	// Bob comments; Alice removes the comment.
	rec = doJSON(t, router, http.MethodPost, postPath+"/comments", bob.Token, map[string]string{"text": "nice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("comment: status = %d", rec.Code)
	}
	var commented model.Post
	decodeBody(t, rec, &commented)
	if len(commented.Comments) != 1 {
		t.Fatalf("comment count = %d, want 1", len(commented.Comments))
	}
	commentID := commented.Comments[0].ID

	rec = doJSON(t, router, http.MethodDelete, postPath+"/comments/"+commentID, alice.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove comment: status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, postPath+"/comments/"+commentID, alice.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("remove missing comment: status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != model.CodeCommentNotFound {
		t.Errorf("remove missing comment code = %q, want %q", code, model.CodeCommentNotFound)
	}

	// Bob cannot delete Alice's post.
	rec = doJSON(t, router, http.MethodDelete, postPath, bob.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("delete by non-owner: status = %d, want 403", rec.Code)
	}

	// Alice can.
	rec = doJSON(t, router, http.MethodDelete, postPath, alice.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	var deleted model.DeleteResponse
	decodeBody(t, rec, &deleted)
	if !deleted.Success {
		t.Errorf("delete body = %s, want success=true", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, postPath, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestAPI_CurrentUser(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/users/current", alice.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var user model.User
	decodeBody(t, rec, &user)
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", user.Email)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/users/current", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}
