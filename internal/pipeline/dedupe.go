package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dealhound/dealhound/internal/domain"
)

// Dedupe removes near-duplicates, order-preserving, first occurrence
// wins. The composite key is normalized title, rounded price (or "na")
// and the link's hostname: the same item re-listed across pages or
// re-fetched under another expansion term collapses to one entry, while
// unrelated items sharing a generic title usually differ in host or
// price.
func Dedupe(listings []domain.Listing) []domain.Listing {
	seen := make(map[string]bool, len(listings))
	out := make([]domain.Listing, 0, len(listings))

	for _, l := range listings {
		key := dedupeKey(l)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}

	return out
}

func dedupeKey(l domain.Listing) string {
	price := "na"
	if l.PriceAmount != nil {
		price = fmt.Sprintf("%.0f", *l.PriceAmount)
	}
	return normalizeTitle(l.Title) + "::" + price + "::" + hostname(l.Link)
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// hostname extracts the link's host without the www prefix, falling back
// to manual trimming when the URL does not parse.
func hostname(link string) string {
	if u, err := url.Parse(link); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}

	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "http://")
	if idx := strings.IndexAny(link, "/?#"); idx != -1 {
		link = link[:idx]
	}
	return strings.TrimPrefix(strings.ToLower(link), "www.")
}
