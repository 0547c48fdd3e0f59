package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.GzipMiddleware)

	r.Get("/ping", h.PingHandler)

	r.Route("/links", func(r chi.Router) {
		r.With(h.authMW.Optional).Post("/shorten/", h.ShortenHandler)
		r.Get("/search/", h.SearchHandler)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.RedirectHandler)
			r.Get("/stats", h.StatsHandler)
			r.With(h.authMW.Require).Delete("/", h.DeleteHandler)
			r.With(h.authMW.Require).Put("/", h.RotateHandler)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register/", h.RegisterHandler)
		r.Post("/token/", h.TokenHandler)
	})

	r.With(h.authMW.Require).Get("/user/me/", h.MeHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	return r
}
