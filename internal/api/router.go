// Package api exposes the kennel service over a JSON HTTP API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kennelcore/internal/backups"
	"kennelcore/internal/core"
)

// Option configures the router.
type Option func(*Handler)

// WithBackups enables the /api/backups endpoints.
func WithBackups(w *backups.Worker) Option {
	return func(h *Handler) { h.backups = w }
}

// NewRouter builds the HTTP surface over svc.
func NewRouter(svc *core.Service, opts ...Option) chi.Router {
	h := &Handler{svc: svc}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/due", h.Due)

		r.Route("/dogs", func(r chi.Router) {
			r.Get("/", h.ListDogs)
			r.Post("/", create(svc.CreateDog))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDog)
				r.Delete("/", remove(svc.DeleteDog))
				r.Get("/heat-prediction", h.HeatPrediction)
				r.Get("/pedigree", h.Pedigree)
				r.Get("/weights", h.WeightLog)
			})
		})

		r.Route("/litters", func(r chi.Router) {
			r.Get("/", h.ListLitters)
			r.Post("/", create(svc.CreateLitter))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLitter)
				r.Delete("/", remove(svc.DeleteLitter))
				r.Post("/health-tasks", h.GenerateHealthTasks)
				r.Post("/photos/reorder", h.ReorderLitterPhotos)
				r.Get("/financials", h.LitterFinancials)
				r.Get("/growth", h.GrowthChart)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", create(svc.CreateClient))
			r.Get("/{id}", h.GetClient)
			r.Delete("/{id}", remove(svc.DeleteClient))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", create(svc.CreateSale))
			r.Get("/{id}", h.GetSale)
			r.Delete("/{id}", remove(svc.DeleteSale))
			r.Post("/{id}/puppies", h.AddSalePuppy)
			r.Delete("/{id}/puppies/{dogID}", h.RemoveSalePuppy)
		})

		r.Post("/interests", create(svc.CreateClientInterest))
		r.Post("/interests/{id}/convert", h.ConvertInterest)
		r.Post("/waitlist", create(svc.CreateWaitlistEntry))
		r.Post("/waitlist/reorder", h.ReorderWaitlist)

		r.Get("/breeding-recommendation", h.BreedingRecommendation)
		r.Get("/compatibility", h.Compatibility)
		r.Get("/expenses/summary", h.ExpenseSummary)

		r.Put("/documents/{id}/content", h.UploadDocumentContent)
		r.Get("/documents/{id}/content", h.DownloadDocumentContent)

		r.Get("/export", h.Export)
		r.Post("/import", h.Import)

		r.Route("/backups", func(r chi.Router) {
			r.Use(h.requireBackups)
			r.Get("/", h.ListBackups)
			r.Post("/", h.CreateBackup)
			r.Get("/{id}", h.GetBackup)
		})
	})
	return r
}

func (h *Handler) requireBackups(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.backups == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("backups are not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
