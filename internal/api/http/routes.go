package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/gureli35/url-kisaltici/internal/models"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL returns the record for the original URL, creating it on
	// first sight. created reports whether this call inserted the record.
	ShortenURL(ctx context.Context, originalURL string) (url *models.URL, created bool, err error)

	// ListURLs returns all shortened URLs, newest first.
	ListURLs(ctx context.Context) ([]models.URL, error)

	// GetURLStats retrieves the record with the given id and its recent access logs.
	GetURLStats(ctx context.Context, id int64) (*models.URLStats, error)
}

// RedirectResolver defines the interface for the redirect read path.
type RedirectResolver interface {
	// Resolve maps a short code to its original URL and records the access
	// in the background.
	Resolve(ctx context.Context, shortCode string, meta models.AccessMeta) (string, error)
}

// Pinger reports store connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// getValidate initializes a validator instance for request payloads.
// Tag names are taken from json tags so validation issues reference the
// fields the client actually sent.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, baseURL string, urlSvc URLService, resolver RedirectResolver, pinger Pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth(pinger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		validate := getValidate()

		r.Route("/urls", func(r chi.Router) {
			r.Post("/", handleShortenURL(urlSvc, validate, baseURL))
			r.Get("/", handleListURLs(urlSvc, baseURL))
			r.Get("/stats/{id}", handleGetURLStats(urlSvc, baseURL))
		})
	})

	r.Get("/{shortCode}", handleRedirect(resolver))

	return r
}
