package models

import "time"

// URL represents a shortened URL record.
type URL struct {
	// ID is the unique identifier assigned by the store at creation.
	ID int64
	// OriginalURL is the full target URL the short code resolves to.
	OriginalURL string
	// ShortCode is the fixed-length code associated with the original URL.
	ShortCode string
	// ClickCount tracks how many times the short code has been resolved.
	ClickCount int64
	// CreatedAt is the timestamp indicating when the record was created.
	CreatedAt time.Time
}

// AccessLog represents a single recorded access of a shortened URL.
type AccessLog struct {
	ID         int64
	URLID      int64
	IPAddress  string
	UserAgent  string
	Referrer   string
	AccessedAt time.Time
}

// AccessMeta carries the request metadata captured when a short code is resolved.
type AccessMeta struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// URLStats bundles a URL record with its most recent access logs.
type URLStats struct {
	URL  URL
	Logs []AccessLog
}
