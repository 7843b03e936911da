package types

// SourceID identifies an external offer source.
type SourceID string

const (
	SourceMarketplace     SourceID = "marketplace"
	SourceAuction         SourceID = "auction"
	SourceShopping        SourceID = "shopping"
	SourceVendorDirectory SourceID = "vendor_directory"
)

// ProviderConfig represents offer source configuration
type ProviderConfig struct {
	ID      SourceID `json:"id" yaml:"id" mapstructure:"id"`
	Name    string   `json:"name" yaml:"name" mapstructure:"name"`
	Enabled bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host" mapstructure:"api_host"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// OAuth2 client credentials (auction marketplace)
	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty" mapstructure:"client_secret"`
	TokenURL     string `json:"token_url,omitempty" yaml:"token_url,omitempty" mapstructure:"token_url"`

	// Ranking and query shaping
	Tier         int    `json:"tier" yaml:"tier" mapstructure:"tier"`
	MaxResults   int    `json:"max_results,omitempty" yaml:"max_results,omitempty" mapstructure:"max_results"`
	Marketplace  string `json:"marketplace,omitempty" yaml:"marketplace,omitempty" mapstructure:"marketplace"`
	AffiliateTag string `json:"affiliate_tag,omitempty" yaml:"affiliate_tag,omitempty" mapstructure:"affiliate_tag"`

	// Optional settings
	Timeout    int `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`             // seconds
	CallBudget int `json:"call_budget,omitempty" yaml:"call_budget,omitempty" mapstructure:"call_budget"` // calls per budget window, 0 = unlimited
}

// Validate validates the provider configuration
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidSourceID
	}
	if c.Name == "" {
		return ErrInvalidSourceName
	}
	if c.APIHost == "" {
		return ErrInvalidAPIHost
	}
	if c.Tier < 0 {
		return ErrInvalidTier
	}

	switch c.ID {
	case SourceAuction:
		// eBay style sources authenticate with client credentials
		if c.ClientID == "" || c.ClientSecret == "" {
			return ErrMissingClientCredentials
		}
	default:
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
	}

	return nil
}

// GetMaxResults returns the configured result cap or the default.
func (c *ProviderConfig) GetMaxResults() int {
	if c.MaxResults <= 0 {
		return 20
	}
	return c.MaxResults
}
