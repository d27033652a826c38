package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/spendly/internal/http/documents"
	"github.com/MrJamesThe3rd/spendly/internal/http/identity"
)

func New(
	expensesV1 *documents.Handler,
	identityV1 *identity.Handler,
	metrics *Metrics,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(metrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", metrics.Handler())

	router.Route("/expenses", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		expensesV1.Routes(r)
	})

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		identityV1.Routes(r)
	})

	return router
}
