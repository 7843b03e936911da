package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/currency"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/urlx"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// item holds the fields a source parser pulls out of one payload entry
type item struct {
	Title          string
	URL            string
	CanonicalURL   string // optional; derived from URL when empty
	Price          *float64
	Currency       string
	Merchant       string
	MerchantDomain string // optional; derived from URL when empty
	ImageURL       string
	Rating         *float64
	ReviewCount    *int
	Shipping       string
	Category       string
	Description    string
}

var (
	errMissingTitle = errors.New("missing title")
	errMissingURL   = errors.New("missing or unusable url")
)

// normalizeItems walks the array at path and converts every entry with
// parse. An entry that fails to parse is dropped and logged; it never fails
// the batch. A payload that is not JSON, or whose path is not an array,
// fails the batch.
func (b *BaseProvider) normalizeItems(raw *types.RawProviderResult, path string, parse func(gjson.Result) (*item, error)) ([]*types.NormalizedOffer, error) {
	if !gjson.ValidBytes(raw.Payload) {
		return nil, decodeError(b.ID(), errors.New("payload is not valid JSON"))
	}

	list := gjson.GetBytes(raw.Payload, path)
	if !list.Exists() || list.Type == gjson.Null {
		return []*types.NormalizedOffer{}, nil
	}
	if !list.IsArray() {
		return nil, decodeError(b.ID(), fmt.Errorf("%s is not an array", path))
	}

	limit := b.config.GetMaxResults()
	offers := make([]*types.NormalizedOffer, 0, len(list.Array()))
	index := -1
	list.ForEach(func(_, entry gjson.Result) bool {
		index++
		if !entry.IsObject() {
			b.logger.Warn("dropping malformed item", zap.Int("index", index), zap.String("reason", "not an object"))
			return true
		}
		it, err := parse(entry)
		if err == nil {
			err = it.validate()
		}
		if err != nil {
			b.logger.Warn("dropping malformed item", zap.Int("index", index), zap.Error(err))
			return true
		}
		offers = append(offers, b.toOffer(raw, index, it))
		return len(offers) < limit
	})
	return offers, nil
}

func (it *item) validate() error {
	it.Title = strings.TrimSpace(it.Title)
	if it.Title == "" {
		return errMissingTitle
	}
	if it.CanonicalURL == "" {
		it.CanonicalURL = urlx.Canonicalize(it.URL)
	}
	if it.CanonicalURL == "" {
		return errMissingURL
	}
	if it.URL == "" {
		it.URL = it.CanonicalURL
	}
	return nil
}

func (b *BaseProvider) toOffer(raw *types.RawProviderResult, index int, it *item) *types.NormalizedOffer {
	offer := &types.NormalizedOffer{
		Title:          it.Title,
		Currency:       currency.USD,
		MerchantName:   strings.TrimSpace(it.Merchant),
		MerchantDomain: it.MerchantDomain,
		URL:            urlx.EnsureAbsolute(it.URL),
		CanonicalURL:   it.CanonicalURL,
		Rating:         it.Rating,
		ReviewCount:    it.ReviewCount,
		ShippingInfo:   strings.TrimSpace(it.Shipping),
		Category:       it.Category,
		Description:    it.Description,
		Source:         b.ID(),
		Provenance: types.Provenance{
			RawResultID: raw.ID,
			Source:      raw.Source,
			ItemIndex:   index,
		},
	}
	if offer.MerchantDomain == "" {
		offer.MerchantDomain = urlx.Domain(it.URL)
	}
	if offer.MerchantName == "" {
		offer.MerchantName = offer.MerchantDomain
	}
	if img := strings.TrimSpace(it.ImageURL); img != "" {
		offer.ImageURL = &img
	}

	if it.Price != nil {
		from := b.converter.Normalize(it.Currency)
		if from == "" {
			from = currency.USD
		}
		if usd, ok := b.converter.ToUSD(*it.Price, from); ok {
			orig := *it.Price
			offer.Price = &usd
			offer.PriceOriginal = &orig
			offer.CurrencyOriginal = from
		} else {
			p := *it.Price
			offer.Price = &p
			offer.Currency = from
		}
	}
	return offer
}

// optFloat reads a number or numeric string; nil when absent or unparseable
func optFloat(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		v := r.Float()
		return &v
	case gjson.String:
		if v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64); err == nil {
			return &v
		}
	}
	return nil
}

// optInt reads an integer or integer-like string such as "1,204"
func optInt(r gjson.Result) *int {
	switch r.Type {
	case gjson.Number:
		v := int(r.Int())
		return &v
	case gjson.String:
		if v, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(r.Str), ",", "")); err == nil {
			return &v
		}
	}
	return nil
}

// optPrice reads a positive price from a number or a display string
func optPrice(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		if v := r.Float(); v > 0 {
			return &v
		}
	case gjson.String:
		if v, ok := ParsePrice(r.Str); ok {
			return &v
		}
	}
	return nil
}

// firstOf returns the first existing, non-null result among paths
func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}
