package pipeline

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dealhound/dealhound/internal/domain"
)

const (
	DefaultMaxResults = 40

	weightTermMatch = 0.50
	weightPrice     = 0.15
	weightRecency   = 0.10
	weightSource    = 0.05

	defaultSourceWeight = 0.6

	shortTitleLen = 20
)

// Ranker scores and orders the filtered candidates. SourceWeights is the
// per-source trust table; unknown sources get defaultSourceWeight.
type Ranker struct {
	sourceWeights map[string]float64
	maxResults    int
	now           func() time.Time
}

func NewRanker(sourceWeights map[string]float64, maxResults int) *Ranker {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Ranker{
		sourceWeights: sourceWeights,
		maxResults:    maxResults,
		now:           time.Now,
	}
}

// Rank returns listings ordered by descending score, truncated to
// MaxResults. Equal rounded scores break deterministically: higher source
// weight first, then title ascending.
func (r *Ranker) Rank(listings []domain.Listing, rawTerm string, expansion domain.ExpansionResult) []domain.ScoredListing {
	if len(listings) == 0 {
		return nil
	}

	median := medianPrice(listings)

	scored := make([]domain.ScoredListing, len(listings))
	for i, l := range listings {
		score := weightTermMatch*r.termMatch(l, rawTerm, expansion) +
			weightPrice*priceScore(l, median) +
			weightRecency*r.recencyScore(l.PostedAt) +
			weightSource*r.sourceWeight(l.Source)

		scored[i] = domain.ScoredListing{
			Listing: l,
			Score:   math.Round(clamp01(score)*100) / 100,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		wi, wj := r.sourceWeight(scored[i].Source), r.sourceWeight(scored[j].Source)
		if wi != wj {
			return wi > wj
		}
		return scored[i].Title < scored[j].Title
	})

	if len(scored) > r.maxResults {
		scored = scored[:r.maxResults]
	}
	return scored
}

// termMatch rewards query words in the title over the description,
// expansion vocabulary less than query words, an exact phrase match most,
// and nudges for image presence and against stub titles. Clamped to [0,1]
// before weighting.
func (r *Ranker) termMatch(l domain.Listing, rawTerm string, expansion domain.ExpansionResult) float64 {
	title := strings.ToLower(l.Title)
	desc := strings.ToLower(l.Description)
	query := strings.ToLower(strings.TrimSpace(rawTerm))

	score := 0.0

	for _, word := range strings.Fields(query) {
		switch {
		case tokenRe(word).MatchString(title):
			score += 0.30
		case tokenRe(word).MatchString(desc):
			score += 0.15
		}
	}

	for _, term := range append(expansion.SearchTerms, expansion.Aliases...) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || term == query {
			continue
		}
		if strings.Contains(title, term) {
			score += 0.10
		} else if strings.Contains(desc, term) {
			score += 0.05
		}
	}

	for _, cat := range expansion.Categories {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if cat != "" && (strings.Contains(title, cat) || strings.Contains(desc, cat)) {
			score += 0.05
		}
	}

	if query != "" && strings.Contains(title, query) {
		score += 0.25
	}

	if len(l.Title) < shortTitleLen {
		score -= 0.10
	}
	if l.Image != "" {
		score += 0.05
	}

	return clamp01(score)
}

// priceScore is 1 minus the clamped relative distance to the candidate
// set's median price; listings without a parseable price are neutral.
func priceScore(l domain.Listing, median float64) float64 {
	if l.PriceAmount == nil || median <= 0 {
		return 0.5
	}
	distance := math.Abs(*l.PriceAmount-median) / median
	return 1 - clamp01(distance)
}

func medianPrice(listings []domain.Listing) float64 {
	var prices []float64
	for _, l := range listings {
		if l.PriceAmount != nil {
			prices = append(prices, *l.PriceAmount)
		}
	}
	if len(prices) == 0 {
		return 0
	}

	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		return (prices[mid-1] + prices[mid]) / 2
	}
	return prices[mid]
}

// recencyScore is a step function of listing age; an unparseable or
// missing date is neutral 0.5.
func (r *Ranker) recencyScore(postedAt string) float64 {
	posted, ok := parsePostedAt(postedAt, r.now())
	if !ok {
		return 0.5
	}

	age := r.now().Sub(posted)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 7*24*time.Hour:
		return 0.8
	case age <= 30*24*time.Hour:
		return 0.6
	case age <= 90*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

var postedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

var relativeAgeRe = regexp.MustCompile(`(?i)\b(\d+)\s*(minute|min|hour|hr|day|week|month)s?\s+ago\b`)

// parsePostedAt handles the date shapes marketplaces actually emit:
// absolute dates in a few layouts plus relative "N days ago" phrasing.
func parsePostedAt(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range postedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	lower := strings.ToLower(raw)
	switch lower {
	case "today", "just now":
		return now, true
	case "yesterday":
		return now.Add(-24 * time.Hour), true
	}

	if m := relativeAgeRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		var unit time.Duration
		switch m[2] {
		case "minute", "min":
			unit = time.Minute
		case "hour", "hr":
			unit = time.Hour
		case "day":
			unit = 24 * time.Hour
		case "week":
			unit = 7 * 24 * time.Hour
		case "month":
			unit = 30 * 24 * time.Hour
		}
		return now.Add(-time.Duration(n) * unit), true
	}

	return time.Time{}, false
}

func (r *Ranker) sourceWeight(source string) float64 {
	if w, ok := r.sourceWeights[strings.ToLower(source)]; ok {
		return w
	}
	return defaultSourceWeight
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
