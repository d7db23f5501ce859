package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/msomdec/todo-api/internal/service"
)

// NewRouter builds the HTTP router. Signup, login, and the health probe are
// public; everything else sits behind the auth gate.
func NewRouter(auth *service.AuthService, todos *service.TodoService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders: []string{"Accept", "Content-Type", AuthHeader},
		// Clients read the session token off responses, so expose it.
		ExposedHeaders: []string{AuthHeader},
		MaxAge:         300,
	}))

	authHandler := NewAuthHandler(auth)
	todoHandler := NewTodoHandler(todos)

	r.Get("/healthz", HandleHealthz)

	r.Post("/users", authHandler.HandleSignup)
	r.Post("/users/login", authHandler.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(auth))

		r.Get("/users/details", authHandler.HandleMe)
		r.Delete("/users/details/token", authHandler.HandleLogout)
		r.Put("/users/details/password", authHandler.HandleChangePassword)

		r.Route("/todos", func(r chi.Router) {
			r.Post("/", todoHandler.HandleCreate)
			r.Get("/", todoHandler.HandleList)
			r.Get("/{id}", todoHandler.HandleGet)
			r.Patch("/{id}", todoHandler.HandleUpdate)
			r.Delete("/{id}", todoHandler.HandleDelete)
		})
	})

	return r
}
