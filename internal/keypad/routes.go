package keypad

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the keypad API onto the given router under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/buttons", h.Buttons)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/", h.ListSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/press", h.Press)
				r.Post("/events", h.Dispatch)
				r.Get("/tape", h.Tape)
			})
		})
	})
}
