package service

import (
	"strings"
	"time"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// ChoiceFactorRequest is one answered buyer preference
type ChoiceFactorRequest struct {
	Name       string `json:"name" binding:"required,max=64"`
	Value      string `json:"value" binding:"max=256"`
	Importance string `json:"importance" binding:"omitempty,oneof=low medium high"`
}

// SearchRequest is the body of a search call
type SearchRequest struct {
	Category       string                `json:"category" binding:"max=128"`
	Query          string                `json:"query" binding:"max=512"`
	ProductName    string                `json:"product_name" binding:"max=256"`
	Brand          string                `json:"brand" binding:"max=128"`
	Condition      string                `json:"condition" binding:"omitempty,oneof=new used refurbished any"`
	BudgetMin      *float64              `json:"budget_min" binding:"omitempty,gte=0"`
	BudgetMax      *float64              `json:"budget_max" binding:"omitempty,gte=0"`
	Currency       string                `json:"currency" binding:"omitempty,len=3"`
	Preferences    map[string]string     `json:"preferences"`
	ChoiceFactors  []ChoiceFactorRequest `json:"choice_factors" binding:"omitempty,max=32,dive"`
	Keywords       []string              `json:"keywords" binding:"omitempty,max=32,dive,max=64"`
	FreshnessHours int                   `json:"freshness_hours" binding:"omitempty,gte=0"`

	ExcludeKeywords  []string `json:"exclude_keywords" binding:"omitempty,max=32,dive,max=64"`
	ExcludeMerchants []string `json:"exclude_merchants" binding:"omitempty,max=32,dive,max=128"`
	Mandatory        []string `json:"mandatory" binding:"omitempty,dive,oneof=condition price brand category"`
}

// ToIntent converts the request into a search intent
func (r *SearchRequest) ToIntent() *types.SearchIntent {
	intent := &types.SearchIntent{
		Category:    strings.TrimSpace(r.Category),
		Query:       strings.TrimSpace(r.Query),
		ProductName: strings.TrimSpace(r.ProductName),
		Brand:       strings.TrimSpace(r.Brand),
		Condition:   strings.ToLower(strings.TrimSpace(r.Condition)),
		Budget: types.Budget{
			Min:      r.BudgetMin,
			Max:      r.BudgetMax,
			Currency: strings.ToUpper(r.Currency),
		},
		Preferences:      r.Preferences,
		Keywords:         r.Keywords,
		Freshness:        time.Duration(r.FreshnessHours) * time.Hour,
		ExcludeKeywords:  r.ExcludeKeywords,
		ExcludeMerchants: r.ExcludeMerchants,
		Mandatory:        r.Mandatory,
	}
	for _, cf := range r.ChoiceFactors {
		intent.ChoiceFactors = append(intent.ChoiceFactors, types.ChoiceFactor{
			Name:       cf.Name,
			Value:      cf.Value,
			Importance: cf.Importance,
		})
	}
	return intent
}

// DoneEvent closes a search stream
type DoneEvent struct {
	SearchID    string                 `json:"search_id"`
	Offers      []*types.ScoredOffer   `json:"offers"`
	Vendors     []types.VendorMatch    `json:"vendors"`
	Statuses    []types.ProviderStatus `json:"statuses"`
	AllFailed   bool                   `json:"all_failed"`
	UserMessage string                 `json:"user_message,omitempty"`
}
