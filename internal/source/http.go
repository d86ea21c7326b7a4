package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPSource fetches documents from a static file server or document store.
type HTTPSource struct {
	baseURL    string
	apiKey     string
	maxBytes   int64
	limiter    *rate.Limiter
	httpClient *http.Client
}

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	APIKey            string        // Sent as a bearer token when set
	Timeout           time.Duration // Per request; defaults to 30s
	MaxBytes          int64         // <= 0 disables the limit
	RequestsPerSecond float64       // <= 0 disables rate limiting
	Burst             int
}

func NewHTTPSource(baseURL string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	s := &HTTPSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   opts.APIKey,
		maxBytes: opts.MaxBytes,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return s
}

// Open fetches the document at p relative to the base URL.
func (s *HTTPSource) Open(ctx context.Context, p string) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	u := s.baseURL + escapePath(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("fetch %s: %w", p, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", p, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fetch %s: status %d: %s", p, resp.StatusCode, string(body)),
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s: status %d: %s", p, resp.StatusCode, string(body))
	}

	r := io.Reader(resp.Body)
	if s.maxBytes > 0 {
		r = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("read %s: %w (%d bytes max)", p, ErrTooLarge, s.maxBytes)
	}
	return data, nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() {
	s.httpClient.CloseIdleConnections()
}

func escapePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Path: p}).EscapedPath()
}
