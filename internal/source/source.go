package source

import (
	"context"
	"errors"
)

var (
	ErrSearchFailed = errors.New("source search failed")
	ErrBadStatus    = errors.New("unexpected status code")
	ErrNotFound     = errors.New("source not registered")
)

// RawListing is the source-specific shape handed to the normalizer.
// Adapters fill whichever fields their marketplace exposes; Link and URL
// are alternatives, the normalizer resolves whichever is present. Source
// is stamped by the dispatcher, adapters may leave it empty.
type RawListing struct {
	Title       string
	Price       string
	Link        string
	URL         string
	Image       string
	Description string
	PostedAt    string
	Location    string
	Source      string
}

// Adapter is one marketplace connector. Implementations own their own
// HTTP timeouts and retry policy; the fan-out treats any error (or a
// timeout) as an empty contribution.
type Adapter interface {
	Name() string
	Search(ctx context.Context, term, location string, maxPages int) ([]RawListing, error)
}

// GeoPinned is implemented by adapters whose upstream fetch is already
// country-scoped (e.g. routed through a UK proxy); the region filter
// trusts their listings without further evidence.
type GeoPinned interface {
	GeoPinnedUK() bool
}
