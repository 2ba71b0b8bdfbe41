package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the aggregate root: the document embeds its likes and comments, and
// every mutation goes through the posts collection. Author name and avatar
// are snapshots taken from the creator's profile at write time, not live
// references.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	Likes     []Like             `bson:"likes" json:"likes"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Like is an embedded subdocument. At most one like per (post, user) pair;
// newest likes sit at the front of the array.
type Like struct {
	ID   string             `bson:"id" json:"id"`
	User primitive.ObjectID `bson:"user" json:"user"`
}

// Comment is an embedded subdocument with its own generated id and author
// snapshots. Comments are never edited, only added and removed.
type Comment struct {
	ID        string             `bson:"id" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text string `json:"text"`
}

// CreateCommentRequest is the request body for commenting on a post.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// DeleteResponse is the body returned after a successful post deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
}

const (
	MaxPostTextLength = 300
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post not liked")
	ErrCommentNotFound = errors.New("comment not found")
	ErrTextRequired    = errors.New("text is required")
	ErrTextTooLong     = errors.New("text too long")
)
