package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"partstream/config"
	"partstream/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetcherConfig(templates ...string) *config.SearchConfig {
	return &config.SearchConfig{
		RelayTemplates: templates,
		RelayTimeout:   2 * time.Second,
		UserAgent:      config.DefaultUserAgent,
		AcceptLanguage: "es-AR,es;q=0.9,en;q=0.8",
	}
}

func TestRelayFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns plain body from first relay", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body>ok</body></html>"))
		}))
		defer srv.Close()

		f := scraper.NewRelayFetcher(fetcherConfig(srv.URL + "/?%s"))
		body, err := f.Fetch(context.Background(), "https://shop.example.com/search?q=pad", "")

		require.NoError(t, err)
		assert.Equal(t, "<html><body>ok</body></html>", body)
	})

	t.Run("unwraps JSON envelope with contents field", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"contents":"<html>wrapped</html>","status":{"http_code":200}}`))
		}))
		defer srv.Close()

		f := scraper.NewRelayFetcher(fetcherConfig(srv.URL + "/get?url=%s"))
		body, err := f.Fetch(context.Background(), "https://shop.example.com/search?q=pad", "")

		require.NoError(t, err)
		assert.Equal(t, "<html>wrapped</html>", body)
	})

	t.Run("sends browser headers cookie and referer", func(t *testing.T) {
		t.Parallel()

		var got http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		f := scraper.NewRelayFetcher(fetcherConfig(srv.URL + "/?%s"))
		_, err := f.Fetch(context.Background(), "https://shop.example.com/search?q=pad", "sid=abc123")

		require.NoError(t, err)
		assert.Equal(t, config.DefaultUserAgent, got.Get("User-Agent"))
		assert.Equal(t, "sid=abc123", got.Get("Cookie"))
		assert.Equal(t, "https://shop.example.com", got.Get("Referer"))
		assert.Contains(t, got.Get("Accept"), "text/html")
		assert.NotEmpty(t, got.Get("Accept-Language"))
	})

	t.Run("falls back to next relay on failure", func(t *testing.T) {
		t.Parallel()

		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer bad.Close()

		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("fallback body"))
		}))
		defer good.Close()

		f := scraper.NewRelayFetcher(fetcherConfig(bad.URL+"/?%s", good.URL+"/?%s"))
		body, err := f.Fetch(context.Background(), "https://shop.example.com/p", "")

		require.NoError(t, err)
		assert.Equal(t, "fallback body", body)
	})

	t.Run("fails only when every relay failed", func(t *testing.T) {
		t.Parallel()

		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := scraper.NewRelayFetcher(fetcherConfig(srv.URL+"/a?%s", srv.URL+"/b?%s"))
		_, err := f.Fetch(context.Background(), "https://shop.example.com/p", "")

		require.Error(t, err)
		assert.ErrorIs(t, err, scraper.ErrRelaysExhausted)
		assert.Equal(t, 2, calls)
	})

	t.Run("fails with no relays configured", func(t *testing.T) {
		t.Parallel()

		f := scraper.NewRelayFetcher(fetcherConfig())
		_, err := f.Fetch(context.Background(), "https://shop.example.com/p", "")

		assert.ErrorIs(t, err, scraper.ErrRelaysExhausted)
	})
}
