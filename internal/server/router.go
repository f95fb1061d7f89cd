// Package server は撮影スタジオをHTTP APIとして公開します。
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

// NewRouter はルーティングとミドルウェアを組み立てます。metrics は nil でも構いません。
func NewRouter(h *Handlers, metrics *Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger, metrics),
		middleware.Recoverer,
	)

	r.Get("/healthz", h.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/presets", h.Presets)
		r.Get("/stock-models", h.StockModels)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)

			r.Put("/model", h.UploadModel)
			r.Put("/model/stock/{stockID}", h.SelectStockModel)
			r.Put("/product", h.UploadProduct)

			r.Post("/photoshoot", h.Photoshoot)
			r.Get("/photoshoot/download", h.Download(studio.SlotPhotoshoot))

			r.Post("/logo", h.Logo)
			r.Delete("/logo", h.ResetLogo)
			r.Get("/logo/download", h.Download(studio.SlotLogo))
		})
	})

	return r
}
