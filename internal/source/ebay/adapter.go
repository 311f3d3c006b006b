package ebay

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
	sourceName   = "ebay"
	maxPageCap   = 5
	defaultPages = 1
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Adapter scrapes eBay search result pages. The .co.uk base URL already
// scopes results to the UK market.
type Adapter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.ebay.co.uk"
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

func (a *Adapter) GeoPinnedUK() bool {
	return strings.HasSuffix(a.baseURL, ".co.uk") || strings.HasSuffix(a.baseURL, ".uk")
}

func (a *Adapter) Search(ctx context.Context, term, location string, maxPages int) ([]source.RawListing, error) {
	if maxPages <= 0 {
		maxPages = defaultPages
	}
	if maxPages > maxPageCap {
		maxPages = maxPageCap
	}

	var listings []source.RawListing
	for page := 1; page <= maxPages; page++ {
		pageListings, err := a.searchPage(ctx, term, page)
		if err != nil {
			// first page failing means the source failed; later pages
			// failing just ends pagination early
			if page == 1 {
				return nil, err
			}
			a.logger.Warn("ebay pagination stopped early",
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

func (a *Adapter) searchPage(ctx context.Context, term string, page int) ([]source.RawListing, error) {
	q := url.Values{}
	q.Set("_nkw", term)
	q.Set("_pgn", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/sch/i.html?"+q.Encode(), nil)
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

	doc.Find("li.s-item").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".s-item__title").Text())
		// eBay injects a template card at the top of every result page
		if title == "" || strings.EqualFold(title, "Shop on eBay") {
			return
		}

		link, _ := s.Find("a.s-item__link").Attr("href")
		image, _ := s.Find(".s-item__image-wrapper img").Attr("src")

		listings = append(listings, source.RawListing{
			Title:    title,
			Price:    strings.TrimSpace(s.Find(".s-item__price").Text()),
			Link:     strings.TrimSpace(link),
			Image:    strings.TrimSpace(image),
			Location: strings.TrimSpace(strings.TrimPrefix(s.Find(".s-item__location").Text(), "from ")),
			PostedAt: strings.TrimSpace(s.Find(".s-item__listingDate").Text()),
		})
	})

	return listings
}

var _ source.Adapter = (*Adapter)(nil)
var _ source.GeoPinned = (*Adapter)(nil)
