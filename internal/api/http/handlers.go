package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/gureli35/url-kisaltici/internal/database"
	"github.com/gureli35/url-kisaltici/internal/models"
	"github.com/gureli35/url-kisaltici/internal/service"
	"github.com/gureli35/url-kisaltici/pkg/response"
)

// shortenRequest represents the request payload for shortening a URL.
type shortenRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// urlResponse represents a shortened URL record in API responses.
type urlResponse struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func toURLResponse(baseURL string, url *models.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		OriginalURL: url.OriginalURL,
		ShortCode:   url.ShortCode,
		ShortURL:    baseURL + "/" + url.ShortCode,
		ClickCount:  url.ClickCount,
		CreatedAt:   url.CreatedAt,
	}
}

// accessLogResponse represents a recorded access in the statistics response.
type accessLogResponse struct {
	ID         int64     `json:"id"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	AccessedAt time.Time `json:"accessed_at"`
}

// statsResponse bundles a URL record with its most recent access logs.
type statsResponse struct {
	URL  urlResponse         `json:"url"`
	Logs []accessLogResponse `json:"logs"`
}

func toStatsResponse(baseURL string, stats *models.URLStats) statsResponse {
	resp := statsResponse{
		URL:  toURLResponse(baseURL, &stats.URL),
		Logs: make([]accessLogResponse, 0, len(stats.Logs)),
	}

	for _, log := range stats.Logs {
		resp.Logs = append(resp.Logs, accessLogResponse{
			ID:         log.ID,
			IPAddress:  log.IPAddress,
			UserAgent:  log.UserAgent,
			Referrer:   log.Referrer,
			AccessedAt: log.AccessedAt,
		})
	}

	return resp
}

// accessMetaFromRequest captures the request metadata recorded on each
// resolved redirect. RemoteAddr has already been rewritten by the RealIP
// middleware.
func accessMetaFromRequest(r *http.Request) models.AccessMeta {
	return models.AccessMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}

// handleShortenURL handles POST requests to shorten a URL.
//
// Shortening is idempotent: the first request for a URL creates a record and
// responds 201, repeated requests return the existing record with 200.
func handleShortenURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const createdMsg = "The URL has been shortened successfully."
	const existsMsg = "The URL has already been shortened."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, created, err := svc.ShortenURL(r.Context(), req.URL)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		if created {
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, response.SuccessResponse(createdMsg, toURLResponse(baseURL, url)))
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(existsMsg, toURLResponse(baseURL, url)))
	}
}

// handleListURLs handles GET requests for all shortened URLs, newest first.
func handleListURLs(svc URLService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleListURLs"
	const successMsg = "The URLs were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		urls, err := svc.ListURLs(r.Context())
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]urlResponse, 0, len(urls))
		for i := range urls {
			data = append(data, toURLResponse(baseURL, &urls[i]))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleGetURLStats handles GET requests for the statistics of a single URL:
// the record itself plus its most recent access logs.
func handleGetURLStats(svc URLService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		stats, err := svc.GetURLStats(r.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toStatsResponse(baseURL, stats)))
	}
}

// handleRedirect handles GET requests for a short code and issues the
// redirect to the original URL.
func handleRedirect(resolver RedirectResolver) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		originalURL, err := resolver.Resolve(r.Context(), shortCode, accessMetaFromRequest(r))
		if err != nil {
			if errors.Is(err, service.ErrInvalidShortCode) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.BadRequestResponse)
				return
			}

			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, originalURL, http.StatusFound)
	}
}

// healthResponse is the payload of the health endpoint.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth reports whether the service can reach its store.
func handleHealth(pinger Pinger) http.HandlerFunc {
	const op = "api.http.handleHealth"

	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
		})
	}
}
