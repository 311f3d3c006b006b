package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/domain"
)

// FilterRegion keeps listings plausibly in the UK when a UK-scoped search
// was requested; otherwise it is a no-op. pinned names the sources whose
// upstream fetch is already geo-scoped.
//
// Fail-open: when filtering would remove every listing, the input is
// returned unchanged. Geographic evidence on scraped listings is too
// patchy to justify emptying an otherwise useful result, so availability
// deliberately wins over precision here.
func FilterRegion(listings []domain.Listing, location string, ukOnly bool, pinned map[string]bool, logger *zap.Logger) []domain.Listing {
	if !ukRequested(location, ukOnly) || len(listings) == 0 {
		return listings
	}

	kept := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if plausiblyUK(l, pinned) {
			kept = append(kept, l)
		}
	}

	if len(kept) == 0 {
		if logger != nil {
			logger.Warn("region filter would empty the result, failing open",
				zap.Int("listings", len(listings)),
			)
		}
		return listings
	}

	return kept
}

func ukRequested(location string, ukOnly bool) bool {
	if ukOnly {
		return true
	}
	return ukLocationRe.MatchString(location)
}

// plausiblyUK accepts any single piece of UK evidence.
func plausiblyUK(l domain.Listing, pinned map[string]bool) bool {
	if l.Location != "" && ukLocationRe.MatchString(l.Location) {
		return true
	}
	if l.Currency == domain.CurrencyGBP {
		return true
	}

	host := hostname(l.Link)
	if strings.HasSuffix(host, ".uk") || ukHostAllowlist[host] {
		return true
	}

	return pinned[strings.ToLower(l.Source)]
}
