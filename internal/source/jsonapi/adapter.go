package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/source"
)

// Adapter talks to a generic marketplace search API:
//
//	GET {base}/api/search?q=...&page=...&location=...
//	  -> {"listings": [...]} or a bare array
//
// It covers marketplaces reached through an aggregation proxy; when the
// proxy is country-scoped the adapter is constructed with GeoUK set.
type Adapter struct {
	name    string
	baseURL string
	geoUK   bool
	client  *http.Client
	logger  *zap.Logger
}

type Config struct {
	Name    string
	BaseURL string
	GeoUK   bool
	Timeout time.Duration
}

func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "market-api"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Adapter{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		geoUK:   cfg.GeoUK,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) GeoPinnedUK() bool { return a.geoUK }

type apiListing struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	Description string `json:"description"`
	PostedAt    string `json:"posted_at"`
	Location    string `json:"location"`
}

func (a *Adapter) Search(ctx context.Context, term, location string, maxPages int) ([]source.RawListing, error) {
	if a.baseURL == "" {
		return nil, fmt.Errorf("%w: no base url configured", source.ErrSearchFailed)
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	var listings []source.RawListing
	for page := 1; page <= maxPages; page++ {
		pageListings, err := a.searchPage(ctx, term, location, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			a.logger.Warn("api pagination stopped early",
				zap.Error(err),
				zap.String("source", a.name),
				zap.Int("page", page),
			)
			break
		}
		if len(pageListings) == 0 {
			break
		}
		listings = append(listings, pageListings...)
	}

	return listings, nil
}

func (a *Adapter) searchPage(ctx context.Context, term, location string, page int) ([]source.RawListing, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("page", strconv.Itoa(page))
	if location != "" {
		q.Set("location", location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", source.ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseListings(body)
}

// parseListings accepts either an envelope {"listings": [...]} or a bare
// array.
func parseListings(body []byte) ([]source.RawListing, error) {
	var envelope struct {
		Listings []apiListing `json:"listings"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Listings != nil {
		return convert(envelope.Listings), nil
	}

	var bare []apiListing
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("unmarshal listings: %w", err)
	}
	return convert(bare), nil
}

func convert(in []apiListing) []source.RawListing {
	out := make([]source.RawListing, len(in))
	for i, l := range in {
		out[i] = source.RawListing{
			Title:       l.Title,
			Price:       l.Price,
			Link:        l.Link,
			URL:         l.URL,
			Image:       l.Image,
			Description: l.Description,
			PostedAt:    l.PostedAt,
			Location:    l.Location,
		}
	}
	return out
}

var _ source.Adapter = (*Adapter)(nil)
var _ source.GeoPinned = (*Adapter)(nil)
