package types

import (
	"time"
)

// Status is the terminal outcome reported for one source.
type Status string

const (
	StatusOK          Status = "ok"
	StatusError       Status = "error"
	StatusTimeout     Status = "timeout"
	StatusRateLimited Status = "rate_limited"
	StatusExhausted   Status = "exhausted"
)

// ProviderStatus is the per-source health report of one search.
type ProviderStatus struct {
	Source      SourceID `json:"source"`
	Status      Status   `json:"status"`
	ResultCount int      `json:"result_count"`
	LatencyMs   int64    `json:"latency_ms"`
	Message     string   `json:"message,omitempty"`
}

// Rejection counts the offers removed by one filter.
type Rejection struct {
	Filter string `json:"filter"`
	Count  int    `json:"count"`
}

// SearchResponse is the result of one search invocation.
type SearchResponse struct {
	SearchID    string           `json:"search_id"`
	Offers      []*ScoredOffer   `json:"offers"`
	Vendors     []VendorMatch    `json:"vendors"`
	Statuses    []ProviderStatus `json:"statuses"`
	Rejections  []Rejection      `json:"rejections,omitempty"`
	AllFailed   bool             `json:"all_failed"`
	UserMessage string           `json:"user_message,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}
