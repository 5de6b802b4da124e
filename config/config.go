package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Browser-like user agent sent on every relay fetch. Some retailer sites
// serve a stripped page to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Default ordered relay endpoint templates. %s is the URL-encoded target.
var DefaultRelayTemplates = []string{
	"https://corsproxy.io/?%s",
	"https://api.allorigins.win/get?url=%s",
}

// SearchConfig holds the tunables of the search and scrape pipeline
type SearchConfig struct {
	RelayTemplates   []string
	RelayTimeout     time.Duration
	PolitenessDelay  time.Duration
	UserAgent        string
	AcceptLanguage   string
	DefaultMode      string
	IndexRefreshSpec string
	SessionGrace     time.Duration
	SessionPoll      time.Duration
	MaxSearchWorkers int
	RateLimitPerSec  float64
}

// DefaultSearchConfig returns the search configuration, env-overridable
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		RelayTemplates:   getEnvList("RELAY_TEMPLATES", DefaultRelayTemplates),
		RelayTimeout:     getEnvDuration("RELAY_TIMEOUT", 15*time.Second),
		PolitenessDelay:  getEnvDuration("SCRAPE_POLITENESS_DELAY", 800*time.Millisecond),
		UserAgent:        getEnv("SCRAPE_USER_AGENT", DefaultUserAgent),
		AcceptLanguage:   getEnv("SCRAPE_ACCEPT_LANGUAGE", "es-AR,es;q=0.9,en;q=0.8"),
		DefaultMode:      getEnv("SEARCH_DEFAULT_MODE", "global"),
		IndexRefreshSpec: getEnv("INDEX_REFRESH_CRON", "0 */5 * * * *"),
		SessionGrace:     getEnvDuration("SESSION_SYNC_GRACE", 5*time.Second),
		SessionPoll:      getEnvDuration("SESSION_POLL_INTERVAL", 1*time.Second),
		MaxSearchWorkers: getEnvInt("MAX_SEARCH_WORKERS", 5),
		RateLimitPerSec:  getEnvFloat("API_RATE_LIMIT_PER_SEC", 10),
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
