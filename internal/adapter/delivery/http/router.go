// Package http provides the HTTP delivery layer of the link shortener.
// It contains the management API under /api/links, the public redirect
// endpoint, health, metrics and API documentation routes.
package http

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/tinylink/docs"
	"github.com/vadimbarashkov/tinylink/internal/shortcode"
)

// newValidate returns a validator that reports fields by their JSON name and
// understands the "shortcode" and "notreserved" tags.
func newValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = validate.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		return shortcode.Valid(fl.Field().String())
	})
	_ = validate.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !shortcode.Reserved(fl.Field().String())
	})

	return validate
}

func serveSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(docs.SwaggerYAML)
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes.
func NewRouter(logger *httplog.Logger, linkUseCase linkUseCase) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", serveSwaggerDoc)

	h := newLinkHandler(linkUseCase, newValidate())

	r.Route("/api/links", func(r chi.Router) {
		r.Post("/", h.createLink)
		r.Get("/", h.listLinks)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.getLinkStats)
			r.Delete("/", h.deleteLink)
		})
	})

	r.Get("/{code}", h.redirect)

	return r
}
