package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gureli35/url-kisaltici/internal/database"
	"github.com/gureli35/url-kisaltici/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortCodeAlphabet is the fixed character set short codes are drawn from.
const shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short code is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL into the repository.
	// Returns database.ErrShortCodeExists on a code collision and
	// database.ErrOriginalURLExists when the URL is already shortened.
	Create(ctx context.Context, shortCode, originalURL string) (*models.URL, error)

	// GetByShortCode retrieves a URL by its short code.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetByOriginalURL retrieves a URL by the original URL it was created for.
	GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error)

	// List returns all URL records, newest first.
	List(ctx context.Context) ([]models.URL, error)

	// GetStats retrieves a URL by its id together with its recent access logs.
	GetStats(ctx context.Context, id int64) (*models.URLStats, error)
}

// URLService implements the create/find/list orchestration over a URLRepository.
type URLService struct {
	repo            URLRepository
	shortCodeLength int
}

// NewURLService creates a new URLService generating codes of the given length.
func NewURLService(repo URLRepository, shortCodeLength int) *URLService {
	return &URLService{
		repo:            repo,
		shortCodeLength: shortCodeLength,
	}
}

// ShortenURL returns the record for originalURL, creating it if necessary.
// Shortening the same URL twice yields the same record; created reports
// whether this call inserted it. Code collisions are retried with a freshly
// generated code up to a bounded number of attempts. A concurrent create of
// the same URL that wins the store's uniqueness constraint is resolved by
// re-reading the winner's record.
func (s *URLService) ShortenURL(ctx context.Context, originalURL string) (url *models.URL, created bool, err error) {
	const op = "service.URLService.ShortenURL"
	const maxRetries = 5

	url, err = s.repo.GetByOriginalURL(ctx, originalURL)
	if err == nil {
		return url, false, nil
	}
	if !errors.Is(err, database.ErrURLNotFound) {
		return nil, false, fmt.Errorf("%s: failed to check existing url: %w", op, err)
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.Generate(shortCodeAlphabet, s.shortCodeLength)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := s.repo.Create(ctx, shortCode, originalURL)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			if errors.Is(err, database.ErrOriginalURLExists) {
				url, err := s.repo.GetByOriginalURL(ctx, originalURL)
				if err != nil {
					return nil, false, fmt.Errorf("%s: failed to get concurrently created url: %w", op, err)
				}
				return url, false, nil
			}

			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, true, nil
	}

	return nil, false, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode retrieves the record associated with the provided short
// code. It does not touch the click counter; accounting is the tracker's job.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return url, nil
}

// ListURLs returns all shortened URLs, newest first.
func (s *URLService) ListURLs(ctx context.Context) ([]models.URL, error) {
	const op = "service.URLService.ListURLs"

	urls, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, nil
}

// GetURLStats retrieves the record with the given id and its recent access logs.
func (s *URLService) GetURLStats(ctx context.Context, id int64) (*models.URLStats, error) {
	const op = "service.URLService.GetURLStats"

	stats, err := s.repo.GetStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return stats, nil
}
