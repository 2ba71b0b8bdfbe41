package model

// Error codes surfaced by the auth middleware and registration flow.
const (
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeEmailExists     = "EMAIL_EXISTS"
	CodeAlreadyLiked    = "ALREADY_LIKED"
	CodeNotLiked        = "NOT_LIKED"
	CodeCommentNotFound = "COMMENT_NOT_FOUND"
)
