package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	authHandler "github.com/MrJamesThe3rd/invoicer/internal/http/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/http/client"
	"github.com/MrJamesThe3rd/invoicer/internal/http/company"
	"github.com/MrJamesThe3rd/invoicer/internal/http/export"
	"github.com/MrJamesThe3rd/invoicer/internal/http/importcsv"
	"github.com/MrJamesThe3rd/invoicer/internal/http/invoice"
	authmw "github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/http/user"
	"github.com/MrJamesThe3rd/invoicer/internal/tenant"
)

type Handlers struct {
	Auth     *authHandler.Handler
	Users    *user.Handler
	Company  *company.Handler
	Clients  *client.Handler
	Import   *importcsv.Handler
	Invoices *invoice.Handler
	Export   *export.Handler
}

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func New(h Handlers, tokens *auth.TokenService, resolver *tenant.Resolver, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Timeout > 0 {
			r.Use(middleware.Timeout(opts.Timeout))
		}

		r.Route("/auth", h.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(tokens))

			r.Route("/users", h.Users.Routes)
			r.Route("/company", h.Company.Routes)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireCompany(resolver))

				r.Route("/clients/import", h.Import.Routes)
				r.Route("/clients", h.Clients.Routes)
				r.Route("/invoices", h.Invoices.Routes)

				r.Route("/export", func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					h.Export.Routes(r)
				})
			})
		})
	})

	return router
}
