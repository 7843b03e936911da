package urlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tracking and normalizes path",
			in:   "HTTP://WWW.Example.com/products//laptop//?utm_source=ad&gclid=abc123&ref=foo&id=42",
			want: "https://example.com/products/laptop?id=42",
		},
		{
			name: "relative link with duplicate params",
			in:   "/shopping/deals?utm_medium=email&id=42&id=42",
			want: "https://google.com/shopping/deals?id=42",
		},
		{
			name: "drops fragment and default port, sorts keys",
			in:   "https://shop.example.com:443/item/?b=2&A=1#reviews",
			want: "https://shop.example.com/item?A=1&b=2",
		},
		{
			name: "keeps non default port",
			in:   "example.com:8080/x",
			want: "https://example.com:8080/x",
		},
		{
			name: "blank values dropped",
			in:   "//cdn.example.com/?q=&ga_session=1&sku=9",
			want: "https://cdn.example.com/?sku=9",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestCanonicalize_SameListingDifferentLinks(t *testing.T) {
	a := Canonicalize("https://www.ebay.com/itm/123?mkt_campaign=x&utm_source=y")
	b := Canonicalize("http://ebay.com/itm/123/")
	assert.Equal(t, a, b)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "amazon.com", Domain("https://www.Amazon.com/dp/B0001"))
	assert.Equal(t, "shop.example.com", Domain("shop.example.com:8443/path"))
	assert.Equal(t, "", Domain(""))
}

func TestWithParam(t *testing.T) {
	assert.Equal(t, "https://amazon.com/dp/B01?tag=aff-20", WithParam("https://amazon.com/dp/B01", "tag", "aff-20"))
	assert.Equal(t, "not a url", WithParam("not a url", "tag", "x"))
}
