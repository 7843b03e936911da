package types

import (
	"time"
)

// ProviderQuery is the source-specific request built from an intent.
type ProviderQuery struct {
	Source          SourceID          `json:"source"`
	Params          map[string]string `json:"params"`
	ContractVersion string            `json:"contract_version"`
}

// RawProviderResult holds one source response. It lives only for the
// duration of a search invocation.
type RawProviderResult struct {
	ID        string    `json:"id"`
	Source    SourceID  `json:"source"`
	Payload   []byte    `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Provenance points a normalized offer back at the raw result it came from.
type Provenance struct {
	RawResultID string   `json:"raw_result_id"`
	Source      SourceID `json:"source"`
	ItemIndex   int      `json:"item_index"`
}

// NormalizedOffer is the canonical offer schema shared by every source.
type NormalizedOffer struct {
	Title            string     `json:"title"`
	Price            *float64   `json:"price"`
	Currency         string     `json:"currency"`
	PriceOriginal    *float64   `json:"price_original,omitempty"`
	CurrencyOriginal string     `json:"currency_original,omitempty"`
	MerchantName     string     `json:"merchant_name"`
	MerchantDomain   string     `json:"merchant_domain"`
	URL              string     `json:"url"`
	CanonicalURL     string     `json:"canonical_url"`
	ImageURL         *string    `json:"image_url"`
	Rating           *float64   `json:"rating"`
	ReviewCount      *int       `json:"review_count"`
	ShippingInfo     string     `json:"shipping_info,omitempty"`
	Category         string     `json:"category,omitempty"`
	Description      string     `json:"description,omitempty"`
	Source           SourceID   `json:"source"`
	Provenance       Provenance `json:"provenance"`
}

// Scores holds the component scores of one offer.
type Scores struct {
	Price     float64 `json:"price"`
	Relevance float64 `json:"relevance"`
	Quality   float64 `json:"quality"`
	Diversity float64 `json:"diversity"`
	Combined  float64 `json:"combined"`
}

// ScoredOffer is a ranked offer.
type ScoredOffer struct {
	NormalizedOffer
	Scores     Scores `json:"scores"`
	SourceTier int    `json:"source_tier"`
}

// VendorMatch is the public projection of a vendor similar to the intent.
// Contact details are never part of it.
type VendorMatch struct {
	VendorID    string   `json:"vendor_id"`
	Similarity  float64  `json:"similarity"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	ServiceArea string   `json:"service_area,omitempty"`
}
