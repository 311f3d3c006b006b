package gumtree

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/source"
)

const (
	sourceName = "gumtree"
	maxPageCap = 5
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Adapter scrapes Gumtree search result pages. Gumtree is UK-only, so the
// adapter reports itself geo-pinned.
type Adapter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.gumtree.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Adapter{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func (a *Adapter) Name() string { return sourceName }

func (a *Adapter) GeoPinnedUK() bool { return true }

func (a *Adapter) Search(ctx context.Context, term, location string, maxPages int) ([]source.RawListing, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	if maxPages > maxPageCap {
		maxPages = maxPageCap
	}

	var listings []source.RawListing
	for page := 1; page <= maxPages; page++ {
		pageListings, err := a.searchPage(ctx, term, location, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			a.logger.Warn("gumtree pagination stopped early",
				zap.Error(err),
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
	q.Set("search_category", "all")
	q.Set("q", term)
	if location != "" {
		q.Set("search_location", location)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", source.ErrBadStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return a.extract(doc), nil
}

func (a *Adapter) extract(doc *goquery.Document) []source.RawListing {
	var listings []source.RawListing

	doc.Find("article[data-q=search-result]").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("[data-q=tile-title]").Text())
		link, _ := s.Find("a").First().Attr("href")
		if title == "" || link == "" {
			return
		}
		if strings.HasPrefix(link, "/") {
			link = a.baseURL + link
		}

		image, _ := s.Find("img").First().Attr("src")

		listings = append(listings, source.RawListing{
			Title:       title,
			Price:       strings.TrimSpace(s.Find("[data-q=tile-price]").Text()),
			Link:        link,
			Image:       strings.TrimSpace(image),
			Description: strings.TrimSpace(s.Find("[data-q=tile-description]").Text()),
			Location:    strings.TrimSpace(s.Find("[data-q=tile-location]").Text()),
			PostedAt:    strings.TrimSpace(s.Find("[data-q=tile-datePosted]").Text()),
		})
	})

	return listings
}

var _ source.Adapter = (*Adapter)(nil)
var _ source.GeoPinned = (*Adapter)(nil)
