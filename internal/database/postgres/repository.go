package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gureli35/url-kisaltici/internal/database"
	"github.com/gureli35/url-kisaltici/internal/models"
)

// statsLogLimit caps how many access logs a statistics read returns.
const statsLogLimit = 100

type urlRecord struct {
	ID          int64     `db:"id"`
	OriginalURL string    `db:"original_url"`
	ShortCode   string    `db:"short_code"`
	ClickCount  int64     `db:"click_count"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *urlRecord) toURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt,
	}
}

type accessLogRecord struct {
	ID         int64          `db:"id"`
	URLID      int64          `db:"url_id"`
	IPAddress  sql.NullString `db:"ip_address"`
	UserAgent  sql.NullString `db:"user_agent"`
	Referrer   sql.NullString `db:"referrer"`
	AccessedAt time.Time      `db:"accessed_at"`
}

func (r *accessLogRecord) toAccessLog() models.AccessLog {
	return models.AccessLog{
		ID:         r.ID,
		URLID:      r.URLID,
		IPAddress:  r.IPAddress.String,
		UserAgent:  r.UserAgent.String,
		Referrer:   r.Referrer.String,
		AccessedAt: r.AccessedAt,
	}
}

// URLRepository provides access to the urls and access_logs tables.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Create inserts a new url record. The urls table carries unique constraints
// on both short_code and original_url; violations are mapped to
// database.ErrShortCodeExists and database.ErrOriginalURLExists so callers
// can tell a code collision apart from a concurrently shortened URL.
func (r *URLRepository) Create(ctx context.Context, shortCode, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(original_url, short_code)
		VALUES ($1, $2)
		RETURNING id, original_url, short_code, click_count, created_at`

	err := r.db.GetContext(ctx, rec, query, originalURL, shortCode)
	if err != nil {
		switch constraint := uniqueViolationConstraint(err); {
		case strings.Contains(constraint, "short_code"):
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		case strings.Contains(constraint, "original_url"):
			return nil, fmt.Errorf("%s: %w", op, database.ErrOriginalURLExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.toURL(), nil
}

// GetByShortCode retrieves the url record matching the given short code.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT id, original_url, short_code, click_count, created_at FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.toURL(), nil
}

// GetByOriginalURL retrieves the url record matching the given original URL.
func (r *URLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByOriginalURL"

	rec := new(urlRecord)
	query := `SELECT id, original_url, short_code, click_count, created_at FROM urls
		WHERE original_url = $1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.toURL(), nil
}

// IncrementClickCount bumps the click counter of the record matching the
// given short code. The increment is expressed relative to the stored value,
// so concurrent bumps never lose updates. A missing code is reported as
// database.ErrURLNotFound and left to the caller to log.
func (r *URLRepository) IncrementClickCount(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.IncrementClickCount"

	query := `UPDATE urls
		SET click_count = click_count + 1
		WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// InsertAccessLog appends an access log row for the given url id. Empty
// metadata fields are stored as NULL.
func (r *URLRepository) InsertAccessLog(ctx context.Context, urlID int64, meta models.AccessMeta) error {
	const op = "database.postgres.URLRepository.InsertAccessLog"

	query := `INSERT INTO access_logs(url_id, ip_address, user_agent, referrer)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))`

	_, err := r.db.ExecContext(ctx, query, urlID, meta.IPAddress, meta.UserAgent, meta.Referrer)
	if err != nil {
		return fmt.Errorf("%s: failed to insert access log: %w", op, err)
	}

	return nil
}

// List returns all url records, newest first.
func (r *URLRepository) List(ctx context.Context) ([]models.URL, error) {
	const op = "database.postgres.URLRepository.List"

	var recs []urlRecord
	query := `SELECT id, original_url, short_code, click_count, created_at FROM urls
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("%s: failed to list url records: %w", op, err)
	}

	urls := make([]models.URL, 0, len(recs))
	for _, rec := range recs {
		urls = append(urls, *rec.toURL())
	}

	return urls, nil
}

// GetStats returns the url record matching the given id together with its
// most recent access logs, newest first, capped at statsLogLimit.
func (r *URLRepository) GetStats(ctx context.Context, id int64) (*models.URLStats, error) {
	const op = "database.postgres.URLRepository.GetStats"

	rec := new(urlRecord)
	urlQuery := `SELECT id, original_url, short_code, click_count, created_at FROM urls
		WHERE id = $1`

	err := r.db.GetContext(ctx, rec, urlQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	var logRecs []accessLogRecord
	logQuery := `SELECT id, url_id, ip_address, user_agent, referrer, accessed_at FROM access_logs
		WHERE url_id = $1
		ORDER BY accessed_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &logRecs, logQuery, id, statsLogLimit); err != nil {
		return nil, fmt.Errorf("%s: failed to get access logs: %w", op, err)
	}

	stats := &models.URLStats{
		URL:  *rec.toURL(),
		Logs: make([]models.AccessLog, 0, len(logRecs)),
	}
	for _, logRec := range logRecs {
		stats.Logs = append(stats.Logs, logRec.toAccessLog())
	}

	return stats, nil
}

// Ping verifies store connectivity.
func (r *URLRepository) Ping(ctx context.Context) error {
	const op = "database.postgres.URLRepository.Ping"

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return nil
}
