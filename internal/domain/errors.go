package domain

import "errors"

var (
	ErrEmptyTerm   = errors.New("empty search term")
	ErrTermTooLong = errors.New("search term too long")
)

var ErrNoSources = errors.New("no sources registered")
