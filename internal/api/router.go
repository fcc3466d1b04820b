package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fundadmin/internal/api/handlers"
	custommiddleware "fundadmin/internal/api/middleware"
	"fundadmin/internal/config"
	"fundadmin/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	masterService *service.MasterService,
	ingestService *service.IngestService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		masterHandler := handlers.NewMasterHandler(masterService)
		r.Route("/amc", func(r chi.Router) {
			r.Get("/", masterHandler.ListAmcs)
			r.Get("/{id}/funds", masterHandler.ListFunds)
		})
		r.Get("/fund/{id}/nav", masterHandler.GetNavHistory)

		r.Route("/nav", func(r chi.Router) {
			navHandler := handlers.NewNavHandler(ingestService)
			r.Post("/ingest", navHandler.Ingest)
		})
	})

	return r
}
