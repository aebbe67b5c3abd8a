package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gureli35/url-kisaltici/internal/models"
)

// defaultRecordTimeout bounds a single accounting attempt once it has been
// detached from the request that triggered it.
const defaultRecordTimeout = 5 * time.Second

// ClickRepository defines the store operations click accounting needs.
type ClickRepository interface {
	// IncrementClickCount bumps the click counter of the record matching
	// the short code. Returns database.ErrURLNotFound if the code is gone.
	IncrementClickCount(ctx context.Context, shortCode string) error

	// InsertAccessLog appends an access log row for the url id.
	InsertAccessLog(ctx context.Context, urlID int64, meta models.AccessMeta) error
}

// ClickTracker records accesses of shortened URLs on a best-effort basis.
// Failures are logged and swallowed: a redirect must never be delayed or
// failed by accounting, so a click may occasionally go uncounted.
type ClickTracker struct {
	repo    ClickRepository
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewClickTracker creates a tracker writing through repo and reporting
// failures to logger.
func NewClickTracker(repo ClickRepository, logger *slog.Logger) *ClickTracker {
	return &ClickTracker{
		repo:    repo,
		logger:  logger,
		timeout: defaultRecordTimeout,
	}
}

// Track records the access in the background and returns immediately.
// The work is detached from the request's cancellation so an early client
// disconnect does not drop the count.
func (t *ClickTracker) Track(ctx context.Context, url *models.URL, meta models.AccessMeta) {
	t.wg.Add(1)

	ctx = context.WithoutCancel(ctx)

	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()

		t.record(ctx, url, meta)
	}()
}

func (t *ClickTracker) record(ctx context.Context, url *models.URL, meta models.AccessMeta) {
	const op = "service.ClickTracker.record"

	if err := t.repo.IncrementClickCount(ctx, url.ShortCode); err != nil {
		t.logger.Error(
			"failed to increment click count",
			slog.String("op", op),
			slog.String("short_code", url.ShortCode),
			slog.Any("err", err),
		)
		return
	}

	if err := t.repo.InsertAccessLog(ctx, url.ID, meta); err != nil {
		t.logger.Error(
			"failed to insert access log",
			slog.String("op", op),
			slog.Int64("url_id", url.ID),
			slog.Any("err", err),
		)
	}
}

// Flush blocks until all in-flight accounting work has finished. It is used
// by tests and during graceful shutdown.
func (t *ClickTracker) Flush() {
	t.wg.Wait()
}
