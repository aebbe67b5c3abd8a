package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gureli35/url-kisaltici/internal/models"
)

// ErrInvalidShortCode is returned when an empty short code is resolved.
var ErrInvalidShortCode = errors.New("invalid short code")

type urlResolver interface {
	ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error)
}

type clickTracker interface {
	Track(ctx context.Context, url *models.URL, meta models.AccessMeta)
}

// Resolver is the redirect read path. It maps a short code to its original
// URL and hands click accounting to the tracker without waiting for it.
type Resolver struct {
	svc     urlResolver
	tracker clickTracker
}

// NewResolver creates a Resolver over the given service and tracker.
func NewResolver(svc urlResolver, tracker clickTracker) *Resolver {
	return &Resolver{
		svc:     svc,
		tracker: tracker,
	}
}

// Resolve returns the original URL for the given short code. Unknown codes
// are reported as not found rather than rejected on shape, so stale or
// foreign links degrade to a 404. On success the access is recorded in the
// background; the returned URL is ready to be used as a redirect target.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, meta models.AccessMeta) (string, error) {
	const op = "service.Resolver.Resolve"

	if shortCode == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidShortCode)
	}

	url, err := r.svc.ResolveShortCode(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	r.tracker.Track(ctx, url, meta)

	return url.OriginalURL, nil
}
