package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/pvidal/amigoinvisible/internal/auth"
	"github.com/pvidal/amigoinvisible/internal/middleware"
)

// SetupRoutes mounts the public auth endpoints and the authenticated
// group endpoints on the router.
func (h *Handlers) SetupRoutes(r chi.Router, jwtManager *auth.JWTManager) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtManager))

		r.Get("/me", h.me)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.listGroups)
			r.Post("/", h.createGroup)
			r.Post("/join", h.joinGroup)
			r.Get("/{groupID}", h.getGroup)
			r.Delete("/{groupID}", h.deleteGroup)
			r.Post("/{groupID}/draw", h.performDraw)
			r.Get("/{groupID}/assignment", h.revealAssignment)
		})
	})
}
