package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gureli35/url-kisaltici/internal/database"
	"github.com/gureli35/url-kisaltici/internal/models"
)

type MockURLResolver struct {
	mock.Mock
}

func (s *MockURLResolver) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

type MockClickTracker struct {
	mock.Mock
}

func (t *MockClickTracker) Track(ctx context.Context, url *models.URL, meta models.AccessMeta) {
	t.Called(ctx, url, meta)
}

func setupResolver(t testing.TB) (*Resolver, *MockURLResolver, *MockClickTracker) {
	t.Helper()

	svcMock := new(MockURLResolver)
	trackerMock := new(MockClickTracker)
	resolver := NewResolver(svcMock, trackerMock)

	t.Cleanup(func() {
		svcMock.AssertExpectations(t)
		trackerMock.AssertExpectations(t)
	})

	return resolver, svcMock, trackerMock
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	meta := models.AccessMeta{IPAddress: "203.0.113.7"}

	t.Run("empty code", func(t *testing.T) {
		resolver, svcMock, trackerMock := setupResolver(t)

		originalURL, err := resolver.Resolve(ctx, "", meta)

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidShortCode)
		assert.Empty(t, originalURL)
		svcMock.AssertNotCalled(t, "ResolveShortCode", mock.Anything, mock.Anything)
		trackerMock.AssertNotCalled(t, "Track", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("url not found", func(t *testing.T) {
		resolver, svcMock, trackerMock := setupResolver(t)

		svcMock.
			On("ResolveShortCode", ctx, "doesnotexist").
			Once().
			Return(nil, database.ErrURLNotFound)

		originalURL, err := resolver.Resolve(ctx, "doesnotexist", meta)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Empty(t, originalURL)
		trackerMock.AssertNotCalled(t, "Track", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		resolver, svcMock, trackerMock := setupResolver(t)

		url := &models.URL{ID: 1, OriginalURL: "https://example.com", ShortCode: "abc123"}

		svcMock.
			On("ResolveShortCode", ctx, "abc123").
			Once().
			Return(url, nil)
		trackerMock.
			On("Track", ctx, url, meta).
			Once()

		originalURL, err := resolver.Resolve(ctx, "abc123", meta)

		assert.NoError(t, err)
		assert.Equal(t, "https://example.com", originalURL)
	})
}
