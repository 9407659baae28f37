package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// Handlers groups the stock service's HTTP handlers
type Handlers struct {
	Products *ProductHandler
	Batches  *BatchHandler
	Stock    *StockHandler
	Deletion *DeletionHandler
}

// Mount registers the stock API under r. deletesPerMinute caps product
// deletes per client IP; zero disables the cap.
func (h *Handlers) Mount(r chi.Router, deletesPerMinute int) {
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Get("/dashboard", h.Stock.Dashboard)
		r.Get("/packaging/calculate", h.Stock.CalculatePacks)

		r.Route("/summaries", func(r chi.Router) {
			r.Get("/", h.Stock.List)
			r.Get("/export", h.Stock.Export)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Post("/", h.Products.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Products.Get)
				r.Put("/", h.Products.Update)
				r.Post("/deactivate", h.Products.Deactivate)
				r.Get("/stock", h.Stock.Summary)
				r.Get("/batches", h.Batches.ListByProduct)
				r.Post("/batches", h.Batches.Create)
				r.Get("/deletion-check", h.Deletion.Check)

				r.Group(func(r chi.Router) {
					if deletesPerMinute > 0 {
						r.Use(httprate.LimitByIP(deletesPerMinute, time.Minute))
					}
					r.Delete("/", h.Deletion.Delete)
				})
			})
		})

		r.Route("/batches/{id}", func(r chi.Router) {
			r.Get("/", h.Batches.Get)
			r.Post("/deactivate", h.Batches.Deactivate)
		})
	})
}
