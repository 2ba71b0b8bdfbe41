package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"devconnect/internal/gravatar"
	"devconnect/internal/model"
	"devconnect/internal/repository"
)

// UserService handles business logic for user operations
type UserService struct {
	repo       repository.UserRepository
	bcryptCost int
}

func NewUserService(repo repository.UserRepository, bcryptCost int) *UserService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new identity: duplicate-email guard, deterministic
// gravatar derivation, then bcrypt hashing before anything is persisted. The
// plaintext password never reaches the store.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	// Emails are compared and hashed case-insensitively, so normalize once
	// up front; two registrations differing only in case collide.
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateRegistration(name, email, req.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	avatar := gravatar.URL(email)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Avatar:       avatar,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func validateRegistration(name, email, password string) error {
	if name == "" {
		return model.ErrNameRequired
	}
	if len(name) > model.MaxNameLength {
		return model.ErrNameTooLong
	}
	if email == "" {
		return model.ErrEmailRequired
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return model.ErrEmailInvalid
	}
	if password == "" {
		return model.ErrPasswordRequired
	}
	if len(password) < model.MinPasswordLength {
		return model.ErrPasswordTooShort
	}
	return nil
}
