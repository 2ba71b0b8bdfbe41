package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"devconnect/internal/model"
)

// newTestID builds a deterministic ObjectID from a seed byte.
func newTestID(seed byte) primitive.ObjectID {
	var id primitive.ObjectID
	for i := range id {
		id[i] = seed
	}
	return id
}

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// Unit tests never hit a real database. Because UserService depends on the
// UserRepository INTERFACE, a mock with controllable behavior can be swapped
// in per test.

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)

	// Track calls for assertions
	createCalls []createCall
	existsCalls []string
}

type createCall struct {
	User *model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, createCall{User: user})
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.existsCalls = append(m.existsCalls, email)
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	// ARRANGE
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = newTestID(1)
			return nil
		},
	}
	svc := NewUserService(mockRepo, bcrypt.MinCost)

	req := &model.RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "securepassword123",
	}

	// ACT
	user, err := svc.Register(context.Background(), req)

	// ASSERT
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if user.PasswordHash == req.Password {
		t.Error("password was stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		t.Errorf("stored hash does not verify against the password: %v", err)
	}
	if user.Avatar == "" {
		t.Error("Avatar was not derived")
	}
	if !strings.Contains(user.Avatar, "gravatar.com/avatar/") {
		t.Errorf("Avatar = %q, want a gravatar URL", user.Avatar)
	}
	if len(mockRepo.createCalls) != 1 {
		t.Fatalf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
	if user.CreatedAt.IsZero() || time.Since(user.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v, want recent timestamp", user.CreatedAt)
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Test User",
		Email:    "taken@example.com",
		Password: "securepassword123",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Fatalf("Register() error = %v, want ErrEmailExists", err)
	}
	// The duplicate guard must fire before anything is written.
	if len(mockRepo.createCalls) != 0 {
		t.Errorf("Create called %d times, want 0", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_EmailCaseNormalized(t *testing.T) {
	// Two registrations differing only in case must collide: the lookup,
	// the stored email, and the avatar hash all use the normalized form.
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = newTestID(1)
			return nil
		},
	}
	svc := NewUserService(mockRepo, bcrypt.MinCost)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Test User",
		Email:    "  MiXeD@Example.COM ",
		Password: "securepassword123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	if user.Email != "mixed@example.com" {
		t.Errorf("Email = %q, want lower-cased trimmed form", user.Email)
	}
	if len(mockRepo.existsCalls) != 1 || mockRepo.existsCalls[0] != "mixed@example.com" {
		t.Errorf("uniqueness lookup used %v, want the normalized email", mockRepo.existsCalls)
	}
}

func TestUserService_Register_DeterministicAvatar(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = newTestID(1)
			return nil
		},
	}
	svc := NewUserService(mockRepo, bcrypt.MinCost)

	first, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name: "A", Email: "same@example.com", Password: "securepassword123",
	})
	if err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	second, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name: "B", Email: "SAME@example.com", Password: "otherpassword456",
	})
	if err != nil {
		t.Fatalf("second Register() error = %v", err)
	}

	if first.Avatar != second.Avatar {
		t.Errorf("same email produced different avatars:\n%q\n%q", first.Avatar, second.Avatar)
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     model.RegisterRequest
		wantErr error
	}{
		{"missing name", model.RegisterRequest{Email: "a@x.com", Password: "secret123"}, model.ErrNameRequired},
		{"missing email", model.RegisterRequest{Name: "A", Password: "secret123"}, model.ErrEmailRequired},
		{"invalid email", model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret123"}, model.ErrEmailInvalid},
		{"missing password", model.RegisterRequest{Name: "A", Email: "a@x.com"}, model.ErrPasswordRequired},
		{"short password", model.RegisterRequest{Name: "A", Email: "a@x.com", Password: "abc"}, model.ErrPasswordTooShort},
		{"name too long", model.RegisterRequest{Name: strings.Repeat("x", 31), Email: "a@x.com", Password: "secret123"}, model.ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo, bcrypt.MinCost)

			_, err := svc.Register(context.Background(), &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Errorf("Create called on invalid input")
			}
		})
	}
}

func TestUserService_Register_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return false, storeErr
		},
	}
	svc := NewUserService(mockRepo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name: "A", Email: "a@x.com", Password: "secret123",
	})

	if err == nil {
		t.Fatal("Register() error = nil, want storage error")
	}
	// Storage faults must stay distinct from domain errors.
	if errors.Is(err, model.ErrEmailExists) || errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("storage fault surfaced as domain error: %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("storage cause lost in wrapping: %v", err)
	}
}
