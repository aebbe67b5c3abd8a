package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a new shortened URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrOriginalURLExists is returned when an attempt is made to create
	// a record for an original URL that has already been shortened.
	ErrOriginalURLExists = errors.New("original url exists")
	// ErrURLNotFound is returned when no record matches the given
	// short code, original URL or id.
	ErrURLNotFound = errors.New("url not found")
)
