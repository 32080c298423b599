package service

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// maxFetchBytes bounds pages and API responses read by the fetcher
const maxFetchBytes = 8 << 20

// PageFetcher downloads a document over HTTP
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is a PageFetcher backed by a fasthttp client
type HTTPFetcher struct {
	client  *fasthttp.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a fetcher identifying itself as userAgent
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client: &fasthttp.Client{
			Name:                userAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxFetchBytes,
		},
		timeout: timeout,
	}
}

// Fetch GETs url and returns the body of a 2xx response
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/html,application/json")

	if err := f.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, code)
	}

	// the response buffer is recycled on release
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}
