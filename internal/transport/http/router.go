package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"devconnect/internal/handler"
	"devconnect/internal/httputil"
	authmw "devconnect/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler *handler.AuthHandler
	PostHandler *handler.PostHandler
	JWTSecret   string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/users/register", cfg.AuthHandler.Register)
		r.Get("/posts", cfg.PostHandler.List)
		r.Get("/posts/{id}", cfg.PostHandler.GetByID)

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

			r.Get("/users/current", cfg.AuthHandler.Current)

			r.Post("/posts", cfg.PostHandler.Create)
			r.Delete("/posts/{id}", cfg.PostHandler.Delete)

			r.Post("/posts/{id}/likes", cfg.PostHandler.Like)
			r.Delete("/posts/{id}/likes", cfg.PostHandler.Unlike)

			r.Post("/posts/{id}/comments", cfg.PostHandler.AddComment)
			r.Delete("/posts/{id}/comments/{comment_id}", cfg.PostHandler.RemoveComment)
		})
	})

	return r
}
