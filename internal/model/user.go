package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered identity.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"` // "-" keeps the hash out of responses
	Avatar       string             `bson:"avatar" json:"avatar"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse pairs the created identity with an access token so the
// client can call private routes immediately.
type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// User field constraints
const (
	MinPasswordLength = 6
	MaxNameLength     = 30
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register an email that is taken
	ErrEmailExists = errors.New("email already exists")

	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name too long")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is invalid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password too short")
)
