package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/gureli35/url-kisaltici/internal/database"
	"github.com/gureli35/url-kisaltici/internal/models"
)

type MockClickRepository struct {
	mock.Mock
}

func (r *MockClickRepository) IncrementClickCount(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockClickRepository) InsertAccessLog(ctx context.Context, urlID int64, meta models.AccessMeta) error {
	args := r.Called(ctx, urlID, meta)
	return args.Error(0)
}

func setupClickTracker(t testing.TB) (*ClickTracker, *MockClickRepository) {
	t.Helper()

	repoMock := new(MockClickRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := NewClickTracker(repoMock, logger)

	t.Cleanup(func() {
		repoMock.AssertExpectations(t)
	})

	return tracker, repoMock
}

func TestClickTracker_Track(t *testing.T) {
	url := &models.URL{ID: 1, OriginalURL: "https://example.com", ShortCode: "abc123"}
	meta := models.AccessMeta{IPAddress: "203.0.113.7", UserAgent: "curl/8.0"}

	t.Run("success", func(t *testing.T) {
		tracker, repoMock := setupClickTracker(t)

		repoMock.
			On("IncrementClickCount", mock.Anything, "abc123").
			Once().
			Return(nil)
		repoMock.
			On("InsertAccessLog", mock.Anything, int64(1), meta).
			Once().
			Return(nil)

		tracker.Track(context.Background(), url, meta)
		tracker.Flush()
	})

	t.Run("increment failure skips access log", func(t *testing.T) {
		tracker, repoMock := setupClickTracker(t)

		repoMock.
			On("IncrementClickCount", mock.Anything, "abc123").
			Once().
			Return(database.ErrURLNotFound)

		tracker.Track(context.Background(), url, meta)
		tracker.Flush()

		repoMock.AssertNotCalled(t, "InsertAccessLog", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("access log failure is swallowed", func(t *testing.T) {
		tracker, repoMock := setupClickTracker(t)

		repoMock.
			On("IncrementClickCount", mock.Anything, "abc123").
			Once().
			Return(nil)
		repoMock.
			On("InsertAccessLog", mock.Anything, int64(1), meta).
			Once().
			Return(errors.New("insert failed"))

		tracker.Track(context.Background(), url, meta)
		tracker.Flush()
	})

	t.Run("request cancellation does not drop the click", func(t *testing.T) {
		tracker, repoMock := setupClickTracker(t)

		repoMock.
			On("IncrementClickCount", mock.MatchedBy(func(ctx context.Context) bool {
				return ctx.Err() == nil
			}), "abc123").
			Once().
			Return(nil)
		repoMock.
			On("InsertAccessLog", mock.Anything, int64(1), meta).
			Once().
			Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tracker.Track(ctx, url, meta)
		tracker.Flush()
	})
}
