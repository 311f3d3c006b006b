package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dealhound/dealhound/internal/domain"
	"github.com/dealhound/dealhound/internal/source"
)

// priceRe matches a currency marker followed by a number with optional
// thousands separators and up to two decimals.
var priceRe = regexp.MustCompile(`(£|\$|€|GBP|USD|EUR)\s*([0-9]{1,3}(?:[, ][0-9]{3})+(?:\.[0-9]{1,2})?|[0-9]+(?:\.[0-9]{1,2})?)`)

var currencyBySymbol = map[string]domain.Currency{
	"£":   domain.CurrencyGBP,
	"GBP": domain.CurrencyGBP,
	"$":   domain.CurrencyUSD,
	"USD": domain.CurrencyUSD,
	"€":   domain.CurrencyEUR,
	"EUR": domain.CurrencyEUR,
}

// Normalize converts a raw source listing into the canonical shape.
// Listings without a title or a usable URL are dropped (ok=false); this
// is expected to be frequent and is not logged.
func Normalize(raw source.RawListing) (domain.Listing, bool) {
	title := strings.TrimSpace(raw.Title)

	link := strings.TrimSpace(raw.Link)
	if link == "" {
		link = strings.TrimSpace(raw.URL)
	}

	if title == "" || link == "" {
		return domain.Listing{}, false
	}

	priceLabel := strings.Join(strings.Fields(raw.Price), " ")
	amount, currency := parsePrice(priceLabel)

	return domain.Listing{
		Title:       title,
		PriceLabel:  priceLabel,
		PriceAmount: amount,
		Currency:    currency,
		Link:        link,
		Image:       strings.TrimSpace(raw.Image),
		Source:      raw.Source,
		Description: strings.TrimSpace(raw.Description),
		PostedAt:    strings.TrimSpace(raw.PostedAt),
		Location:    strings.TrimSpace(raw.Location),
	}, true
}

// NormalizeAll drops unusable listings and keeps input order.
func NormalizeAll(raw []source.RawListing) []domain.Listing {
	listings := make([]domain.Listing, 0, len(raw))
	for _, r := range raw {
		if l, ok := Normalize(r); ok {
			listings = append(listings, l)
		}
	}
	return listings
}

func parsePrice(text string) (*float64, domain.Currency) {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, domain.CurrencyUnknown
	}

	currency := currencyBySymbol[m[1]]

	numeric := strings.NewReplacer(",", "", " ", "").Replace(m[2])
	amount, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return nil, currency
	}

	return &amount, currency
}
