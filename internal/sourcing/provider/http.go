package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/redact"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

const maxBodyBytes = 8 << 20

// doGet performs one GET request and returns the body of a 2xx response.
// Every failure is classified into a *types.ProviderError.
func (b *BaseProvider) doGet(ctx context.Context, endpoint string, params url.Values, headers map[string]string) ([]byte, error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &types.ProviderError{Source: b.ID(), Kind: types.KindHTTP, Message: "failed to create request", Err: err}
	}
	for k, v := range b.DefaultHeaders() {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, b.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, b.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, b.statusError(resp, body)
	}
	return body, nil
}

// statusError maps a non-2xx response to a ProviderError
func (b *BaseProvider) statusError(resp *http.Response, body []byte) *types.ProviderError {
	pe := &types.ProviderError{
		Source:     b.ID(),
		Kind:       types.KindHTTP,
		StatusCode: resp.StatusCode,
		Message:    snippet(body),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		pe.Kind = types.KindRateLimited
		pe.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode == http.StatusPaymentRequired:
		pe.Kind = types.KindExhausted
	}
	return pe
}

// transportError classifies a failure that happened before a status was read
func (b *BaseProvider) transportError(ctx context.Context, err error) *types.ProviderError {
	return &types.ProviderError{
		Source:  b.ID(),
		Kind:    classifyTransport(ctx, err),
		Message: "request failed",
		Err:     errors.New(redact.Error(err)),
	}
}

func classifyTransport(ctx context.Context, err error) types.ErrorKind {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTimeout
	}

	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return types.KindNetwork
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return types.KindNetwork
	}
	return types.KindHTTP
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return redact.Secrets(s)
}

func decodeError(source types.SourceID, err error) *types.ProviderError {
	return &types.ProviderError{
		Source:  source,
		Kind:    types.KindDecode,
		Message: "malformed payload",
		Err:     fmt.Errorf("%w: %v", types.ErrInvalidResponse, err),
	}
}
