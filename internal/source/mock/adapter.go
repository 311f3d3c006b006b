package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dealhound/dealhound/internal/source"
)

// Adapter is a builder-style test double for source.Adapter.
type Adapter struct {
	AdapterName string
	Listings    []source.RawListing
	Error       error
	Delay       time.Duration
	Panic       bool
	UKPinned    bool

	CallCount int
	LastTerm  string
	AllTerms  []string

	mu sync.Mutex
}

func New(name string) *Adapter {
	return &Adapter{AdapterName: name}
}

func (a *Adapter) WithListings(listings []source.RawListing) *Adapter {
	a.Listings = listings
	return a
}

func (a *Adapter) WithError(err error) *Adapter {
	a.Error = err
	return a
}

func (a *Adapter) WithDelay(delay time.Duration) *Adapter {
	a.Delay = delay
	return a
}

func (a *Adapter) WithPanic() *Adapter {
	a.Panic = true
	return a
}

func (a *Adapter) WithUKPinned() *Adapter {
	a.UKPinned = true
	return a
}

func (a *Adapter) Name() string { return a.AdapterName }

func (a *Adapter) GeoPinnedUK() bool { return a.UKPinned }

func (a *Adapter) Search(ctx context.Context, term, location string, maxPages int) ([]source.RawListing, error) {
	a.mu.Lock()
	a.CallCount++
	a.LastTerm = term
	a.AllTerms = append(a.AllTerms, term)
	delay := a.Delay
	err := a.Error
	listings := a.Listings
	a.mu.Unlock()

	if a.Panic {
		panic("mock adapter panic")
	}

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}

	return listings, nil
}

func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.CallCount
}

var _ source.Adapter = (*Adapter)(nil)
