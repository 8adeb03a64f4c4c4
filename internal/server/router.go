package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reactive-calculator/internal/handlers"
	"reactive-calculator/internal/keypad"
	"reactive-calculator/internal/observability"
)

// Deps are the application handlers mounted by NewRouter.
type Deps struct {
	Keypad *keypad.Handler
	Keys   http.Handler // WebSocket keypad transport
	Assets http.Handler // front-end bundle
}

func NewRouter(deps Deps) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	if deps.Keypad != nil {
		deps.Keypad.RegisterRoutes(r)
	}

	if deps.Keys != nil {
		r.Get("/ws", deps.Keys.ServeHTTP)
	}

	if deps.Assets != nil {
		r.Get("/*", deps.Assets.ServeHTTP)
	}

	return r
}
