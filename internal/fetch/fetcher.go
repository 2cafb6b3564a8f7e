// SPDX-License-Identifier: MIT

// Package fetch retrieves playlist text from a source URL, optionally
// through a relay.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xglog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// ErrFetch matches every failure to obtain playlist text.
var ErrFetch = errors.New("playlist fetch failed")

// ErrBodyTooLarge is reported once a playlist body passes the size cap.
var ErrBodyTooLarge = errors.New("playlist body exceeds size limit")

// FetchError describes one failed fetch. StatusCode is 0 for transport errors.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// Fetcher opens the playlist body for sourceURL. The caller closes it.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, error)
}

// Options configures an HTTPFetcher.
type Options struct {
	// Relay is prepended to the query-escaped source URL. Empty fetches directly.
	Relay string
	// Timeout bounds a whole fetch. Zero means no timeout.
	Timeout time.Duration
	// MaxBodyBytes caps the playlist size. Zero uses defaultMaxBody.
	MaxBodyBytes int64
	UserAgent    string
	// RateLimit and RateLimitBurst throttle outbound requests.
	RateLimit      rate.Limit
	RateLimitBurst int
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

const (
	defaultMaxBody        = 64 << 20
	defaultRateLimit      = 2
	defaultRateLimitBurst = 4
	defaultUserAgent      = "tvgrid"
)

// HTTPFetcher fetches playlists over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	relay     string
	maxBody   int64
	userAgent string
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewHTTPFetcher creates a fetcher with opts applied over defaults.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	opts = normalizeOptions(opts)

	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		}
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		relay:     strings.TrimSpace(opts.Relay),
		maxBody:   opts.MaxBodyBytes,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
		logger:    xglog.WithComponent("fetch"),
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	return opts
}

// RequestURL returns the URL actually requested for sourceURL.
func (f *HTTPFetcher) RequestURL(sourceURL string) string {
	if f.relay == "" {
		return sourceURL
	}
	return f.relay + url.QueryEscape(sourceURL)
}

// Fetch issues a GET for sourceURL. Non-2xx responses and transport errors
// are returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Source: sourceURL, Err: err}
	}

	target := f.RequestURL(sourceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Source: sourceURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "audio/x-mpegurl, application/vnd.apple.mpegurl, text/plain, */*")

	logger := xglog.WithContext(ctx, f.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "fetch.start").
		Str(xglog.FieldSource, sourceURL).
		Bool("relayed", f.relay != "").
		Msg("fetching playlist")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: sourceURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &FetchError{Source: sourceURL, StatusCode: resp.StatusCode}
	}
	return &limitedBody{rc: resp.Body, source: sourceURL, limit: f.maxBody, remaining: f.maxBody}, nil
}

// limitedBody fails with ErrBodyTooLarge instead of truncating, so a cut-off
// URL line never reaches the parser as a complete one.
type limitedBody struct {
	rc        io.ReadCloser
	source    string
	limit     int64
	remaining int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.remaining < 0 {
		return 0, b.tooLarge()
	}
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.rc.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n + int(b.remaining), b.tooLarge()
	}
	return n, err
}

func (b *limitedBody) tooLarge() error {
	return &FetchError{Source: b.source, Err: fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, b.limit)}
}

func (b *limitedBody) Close() error { return b.rc.Close() }
