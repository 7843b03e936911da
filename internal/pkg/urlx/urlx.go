// Package urlx canonicalizes offer URLs so the same listing reached through
// different links deduplicates to one key.
package urlx

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var trackingKeys = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "msclkid": {}, "yclid": {},
	"mc_eid": {}, "mc_cid": {}, "igshid": {}, "spm": {},
	"ref": {}, "affid": {}, "affidname": {},
}

var trackingPrefixes = []string{"utm", "ga_", "icid", "mkt_"}

var multiSlash = regexp.MustCompile(`/{2,}`)

// EnsureAbsolute turns scheme-less and relative links into absolute https URLs.
// Root-relative paths are resolved against google.com, where shopping
// aggregators link them from.
func EnsureAbsolute(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "www."):
		return "https://" + raw
	case strings.HasPrefix(raw, "/"):
		return "https://www.google.com" + raw
	case !strings.Contains(raw, "://"):
		return "https://" + raw
	}
	return raw
}

// Canonicalize returns a stable form of raw: https, lower-case host without
// "www." or default port, collapsed slashes, no trailing slash, tracking
// parameters removed, duplicate parameters dropped, keys sorted, no fragment.
// It returns "" for empty or unparseable input.
func Canonicalize(raw string) string {
	abs := EnsureAbsolute(raw)
	if abs == "" {
		return ""
	}
	u, err := url.Parse(abs)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if h, port, ok := strings.Cut(host, ":"); ok && port == "443" {
		host = h
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	path = multiSlash.ReplaceAllString(path, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	out := "https://" + host + path
	if q := canonicalQuery(u.RawQuery); q != "" {
		out += "?" + q
	}
	return out
}

type pair struct{ key, value string }

func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	seen := make(map[pair]struct{})
	var pairs []pair
	for _, part := range strings.Split(raw, "&") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil || value == "" {
			continue
		}
		if isTracking(key) {
			continue
		}
		sig := pair{strings.ToLower(key), value}
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		pairs = append(pairs, pair{key, value})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return strings.ToLower(pairs[i].key) < strings.ToLower(pairs[j].key)
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func isTracking(key string) bool {
	lower := strings.ToLower(key)
	if _, ok := trackingKeys[lower]; ok {
		return true
	}
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Domain returns the lower-case host of raw without "www." or port.
func Domain(raw string) string {
	abs := EnsureAbsolute(raw)
	if abs == "" {
		return ""
	}
	u, err := url.Parse(abs)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// WithParam returns raw with key=value set in its query string.
func WithParam(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
