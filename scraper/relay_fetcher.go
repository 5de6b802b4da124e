package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"partstream/config"
)

// ErrRelaysExhausted is returned when every configured relay attempt failed.
var ErrRelaysExhausted = errors.New("all relay endpoints failed")

// Fetcher retrieves the raw document text behind a target URL.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL, cookieHeader string) (string, error)
}

// RelayFetcher fetches pages through an ordered list of public relay
// endpoints, falling back to the next relay on failure. Relays are tried
// strictly sequentially to bound outbound fan-out per scrape.
type RelayFetcher struct {
	client         *http.Client
	templates      []string
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
}

// NewRelayFetcher creates a relay fetcher from the search configuration
func NewRelayFetcher(cfg *config.SearchConfig) *RelayFetcher {
	return &RelayFetcher{
		client:         &http.Client{},
		templates:      cfg.RelayTemplates,
		timeout:        cfg.RelayTimeout,
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
	}
}

// relayEnvelope is the JSON wrapper some relays put around the page body
type relayEnvelope struct {
	Contents string `json:"contents"`
}

// Fetch retrieves the document at targetURL. It fails only when every relay
// attempt failed, carrying the last observed error.
func (f *RelayFetcher) Fetch(ctx context.Context, targetURL, cookieHeader string) (string, error) {
	referer := originOf(targetURL)

	var lastErr error
	for _, template := range f.templates {
		relayURL := fmt.Sprintf(template, url.QueryEscape(targetURL))

		body, err := f.fetchOnce(ctx, relayURL, cookieHeader, referer)
		if err != nil {
			log.Printf("Relay attempt failed (%s): %v", relayHost(relayURL), err)
			lastErr = err
			continue
		}

		return unwrapBody(body), nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrRelaysExhausted, lastErr)
	}
	return "", ErrRelaysExhausted
}

// fetchOnce issues a single relay request with its own timeout
func (f *RelayFetcher) fetchOnce(ctx context.Context, relayURL, cookieHeader, referer string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, relayURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %v", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.acceptLanguage)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read relay response: %v", err)
	}

	return string(body), nil
}

// unwrapBody extracts the page text from a relay response. Some relays wrap
// the page in a JSON envelope with a contents field; plain bodies pass
// through unchanged.
func unwrapBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return body
	}

	var envelope relayEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil && envelope.Contents != "" {
		return envelope.Contents
	}

	return body
}

// originOf returns the scheme://host of a URL, or "" when unparseable
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// relayHost extracts the host portion of a relay URL for logging
func relayHost(relayURL string) string {
	u, err := url.Parse(relayURL)
	if err != nil {
		return relayURL
	}
	return u.Host
}
