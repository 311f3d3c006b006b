package domain

// Currency is the currency inferred from a listing's price text.
type Currency string

const (
	CurrencyGBP     Currency = "GBP"
	CurrencyUSD     Currency = "USD"
	CurrencyEUR     Currency = "EUR"
	CurrencyUnknown Currency = ""
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyGBP, CurrencyUSD, CurrencyEUR, CurrencyUnknown:
		return true
	}
	return false
}

func (c Currency) String() string { return string(c) }

// Listing is the canonical listing shape used throughout the pipeline.
// Every Listing that survives normalization has a non-empty Title and Link;
// all other fields may be empty.
type Listing struct {
	Title       string   `json:"title"`
	PriceLabel  string   `json:"price_label,omitempty"`
	PriceAmount *float64 `json:"price_amount,omitempty"`
	Currency    Currency `json:"currency,omitempty"`
	Link        string   `json:"link"`
	Image       string   `json:"image,omitempty"`
	Source      string   `json:"source"`
	Description string   `json:"description,omitempty"`
	PostedAt    string   `json:"posted_at,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// ScoredListing is a Listing with its ranking score, in [0,1] rounded
// to 2 decimals.
type ScoredListing struct {
	Listing
	Score float64 `json:"score"`
}
