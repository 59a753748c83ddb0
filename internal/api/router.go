package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"storefront-banners/internal/observability"
)

type AuthOptions struct {
	JWTSecret string
	AdminKey  string
	AdminRole string
}

func Router(h *BannerHandler, auth AuthOptions, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(Identity(auth.JWTSecret))

		r.Get("/banners", h.BannersForPage)
		r.Post("/banners/{id}/view", h.RecordView)
		r.Post("/banners/{id}/click", h.RecordClick)
		r.Post("/analytics/pageview", h.TrackPageView)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(auth.AdminRole, auth.AdminKey))

			r.Post("/banners", h.Create)
			r.Get("/banners", h.List)
			r.Get("/banners/{id}", h.Get)
			r.Patch("/banners/{id}", h.Update)
			r.Delete("/banners/{id}", h.Delete)
			r.Get("/analytics/pageviews", h.PageViews)
		})
	})
	return r
}
