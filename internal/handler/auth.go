package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"devconnect/internal/httputil"
	"devconnect/internal/model"
	"devconnect/internal/service"
	"devconnect/internal/transport/http/middleware"
)

// AuthHandler groups registration and current-user endpoints.
type AuthHandler struct {
	userService  *service.UserService
	tokenService *service.TokenService
}

// NewAuthHandler wires dependencies for identity endpoints.
func NewAuthHandler(userService *service.UserService, tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
	}
}

// Register handles POST /api/users/register
// Creates a new identity and returns it with an access token. The stored
// password hash is never serialized into the response.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, model.CodeEmailExists, "Email already exists")
		case errors.Is(err, model.ErrNameRequired):
			httputil.WriteBadRequest(w, "Name is required")
		case errors.Is(err, model.ErrNameTooLong):
			httputil.WriteBadRequest(w, "Name too long (max 30 characters)")
		case errors.Is(err, model.ErrEmailRequired):
			httputil.WriteBadRequest(w, "Email is required")
		case errors.Is(err, model.ErrEmailInvalid):
			httputil.WriteBadRequest(w, "Email is invalid")
		case errors.Is(err, model.ErrPasswordRequired):
			httputil.WriteBadRequest(w, "Password is required")
		case errors.Is(err, model.ErrPasswordTooShort):
			httputil.WriteBadRequest(w, "Password too short (min 6 characters)")
		default:
			log.Printf("[ERROR] Register handler: email=%s err=%v", req.Email, err)
			httputil.WriteInternalError(w, "Failed to register")
		}
		return
	}

	token, err := h.tokenService.Issue(user.ID)
	if err != nil {
		log.Printf("[ERROR] Register handler: token issue failed user=%s err=%v", user.ID.Hex(), err)
		httputil.WriteInternalError(w, "Failed to register")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.RegisterResponse{
		User:  user,
		Token: token,
	})
}

// Current handles GET /api/users/current
// Returns the authenticated caller's profile.
func (h *AuthHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Current user handler: user=%s err=%v", userID.Hex(), err)
		httputil.WriteInternalError(w, "Failed to get current user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
