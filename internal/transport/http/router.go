package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pulsechat/internal/handler"
	"pulsechat/internal/httputil"
	authmw "pulsechat/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	FriendHandler *handler.FriendHandler
	Resolver      authmw.UserResolver
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

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Public user lookups
	r.Route("/users", func(r chi.Router) {
		r.Get("/{id}", cfg.UserHandler.GetProfile)
		r.Get("/{id}/admin", cfg.UserHandler.IsAdmin)
	})

	// Protected routes - require a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Resolver))

		r.Get("/me", cfg.UserHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateSelf)
		r.Put("/me/status", cfg.UserHandler.SetStatus)
		r.Get("/me/friends", cfg.FriendHandler.ListFriends)
	})

	return r
}
