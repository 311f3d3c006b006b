package domain

import "strings"

const MaxTermLength = 200

// SearchOptions controls a single search. An empty Sources slice means
// every registered source.
type SearchOptions struct {
	Sources  []string `json:"sources,omitempty"`
	MaxPages int      `json:"max_pages,omitempty"`
	UKOnly   bool     `json:"uk_only,omitempty"`
	Strict   bool     `json:"strict,omitempty"`
}

// SearchRequest is the immutable input of one search.
type SearchRequest struct {
	Term     string        `json:"term"`
	Location string        `json:"location,omitempty"`
	Options  SearchOptions `json:"options"`
}

func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Term) == "" {
		return ErrEmptyTerm
	}
	if len(r.Term) > MaxTermLength {
		return ErrTermTooLong
	}
	return nil
}

func (r *SearchRequest) Sanitize() {
	r.Term = strings.Join(strings.Fields(r.Term), " ")
	if len(r.Term) > MaxTermLength {
		r.Term = r.Term[:MaxTermLength]
	}
}

// ExpansionResult is what the query expander produced for one search.
// When expansion fails the planner substitutes the deterministic fallback
// (SearchTerms equal to the raw term, nothing else).
type ExpansionResult struct {
	SearchTerms []string `json:"search_terms"`
	Categories  []string `json:"categories,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// PrecisionMode records which tier of the staged precision filter
// produced the final listings.
type PrecisionMode string

const (
	PrecisionStrict  PrecisionMode = "strict"
	PrecisionRelaxed PrecisionMode = "relaxed"
	PrecisionNone    PrecisionMode = "none"
)

func (m PrecisionMode) IsValid() bool {
	switch m {
	case PrecisionStrict, PrecisionRelaxed, PrecisionNone:
		return true
	}
	return false
}

func (m PrecisionMode) String() string { return string(m) }

// SearchResult is returned once per search and never persisted. An empty
// Listings slice is a valid successful outcome.
type SearchResult struct {
	Listings      []ScoredListing `json:"listings"`
	Expansion     ExpansionResult `json:"expansion"`
	PrecisionMode PrecisionMode   `json:"precision_mode"`
}
