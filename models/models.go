package models

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// QueryPlaceholder is the literal token in a source URL template that gets
// replaced with the URL-encoded search query.
const QueryPlaceholder = "[QUERY]"

// LocalSourceLabel is the origin label used for catalog results.
const LocalSourceLabel = "Inventario Local"

// Sentinel values surfaced in place of a numeric price.
const (
	PriceLoginRequired = "Login Requerido"
	PriceNetworkError  = "Error de Red"
)

// Reference SKUs for externally sourced results.
const (
	SKUExternalRef  = "EXT-REF"
	SKUAuthRequired = "AUTH_REQUIRED"
	SKUError        = "ERROR"
)

// ErrorColor is the badge color for failed scrape results.
const ErrorColor = "#ef4444"

// Product represents a catalog entry owned by the local store.
type Product struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Cost      float64   `json:"cost" db:"cost"`
	Stock     int       `json:"stock" db:"stock"`
	Category  string    `json:"category" db:"category"`
	Image     string    `json:"image,omitempty" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ExternalSource is a configured retailer endpoint with its scraping rules.
type ExternalSource struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"nombre" db:"name"`
	URLTemplate   string    `json:"url_base" db:"url_template"`
	Color         string    `json:"color_identificador" db:"color"`
	LogoPath      string    `json:"logo_path,omitempty" db:"logo_path"`
	PriceSelector string    `json:"selector_precio_css" db:"price_selector"`
	CookiesConfig string    `json:"cookies_config,omitempty" db:"cookies_config"`
	StrategyKey   string    `json:"strategy_key,omitempty" db:"strategy_key"`
	RequiresLogin bool      `json:"requires_login" db:"requires_login"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasQueryPlaceholder reports whether the URL template can accept a query.
// Sources without the placeholder are skipped by the aggregator.
func (s *ExternalSource) HasQueryPlaceholder() bool {
	return strings.Contains(s.URLTemplate, QueryPlaceholder)
}

// TargetURL builds the concrete search URL for a query.
func (s *ExternalSource) TargetURL(query string) string {
	return strings.Replace(s.URLTemplate, QueryPlaceholder, url.QueryEscape(query), 1)
}

// Origin returns the scheme://host portion of the source URL template.
func (s *ExternalSource) Origin() string {
	u, err := url.Parse(s.URLTemplate)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// cookiePair matches the browser-export format used in cookies_config.
type cookiePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CookieHeader converts the raw cookie configuration into a Cookie header
// string. The config is either a JSON array of {name, value} pairs or an
// opaque header string used as-is when JSON parsing fails.
func (s *ExternalSource) CookieHeader() string {
	raw := strings.TrimSpace(s.CookiesConfig)
	if raw == "" {
		return ""
	}

	var pairs []cookiePair
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return raw
	}

	parts := make([]string, 0, len(pairs))
	for _, c := range pairs {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// ResultStatus tags how a search result should be rendered.
type ResultStatus string

const (
	StatusOK            ResultStatus = "ok"
	StatusRequiresLogin ResultStatus = "requires_login"
	StatusError         ResultStatus = "error"
)

// OriginKind distinguishes catalog hits from scraped ones.
type OriginKind string

const (
	OriginLocal    OriginKind = "local"
	OriginExternal OriginKind = "external"
)

// PriceValue is either a numeric price or a textual sentinel such as
// "Login Requerido". It marshals as a JSON number when numeric and as a
// string otherwise, which is the shape the presentation layer expects.
type PriceValue struct {
	Amount   float64
	Sentinel string
}

// NumericPrice builds a numeric price value.
func NumericPrice(amount float64) PriceValue {
	return PriceValue{Amount: amount}
}

// SentinelPrice builds a non-numeric placeholder price.
func SentinelPrice(text string) PriceValue {
	return PriceValue{Sentinel: text}
}

// IsNumeric reports whether the value carries a real price.
func (p PriceValue) IsNumeric() bool {
	return p.Sentinel == ""
}

// MarshalJSON emits a number for real prices and a string for sentinels.
func (p PriceValue) MarshalJSON() ([]byte, error) {
	if p.Sentinel != "" {
		return json.Marshal(p.Sentinel)
	}
	return json.Marshal(p.Amount)
}

// UnmarshalJSON accepts either form.
func (p *PriceValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Sentinel = s
		p.Amount = 0
		return nil
	}
	p.Sentinel = ""
	return json.Unmarshal(data, &p.Amount)
}

// UnifiedSearchResult is a single row in the merged search response.
// Invariant: Precio is numeric if and only if Status is ok.
type UnifiedSearchResult struct {
	ID          string       `json:"id"`
	Fuente      string       `json:"fuente"`
	Nombre      string       `json:"nombre"`
	SKU         string       `json:"sku"`
	Precio      PriceValue   `json:"precio"`
	Link        string       `json:"link"`
	Tipo        OriginKind   `json:"tipo"`
	Color       string       `json:"color"`
	Logo        string       `json:"logo,omitempty"`
	Image       string       `json:"image,omitempty"`
	Stock       *int         `json:"stock,omitempty"`
	IsBestPrice bool         `json:"isBestPrice,omitempty"`
	Status      ResultStatus `json:"status"`
}

// SearchMode selects which result pools a search draws from.
type SearchMode string

const (
	SearchModeLocal  SearchMode = "local"
	SearchModeGlobal SearchMode = "global"
)

// SaveProductRequest is the payload for creating or updating a product.
type SaveProductRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Cost     float64 `json:"cost"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	Image    string  `json:"image"`
}

// SaveSourceRequest is the payload for creating or updating an external source.
type SaveSourceRequest struct {
	Name          string `json:"nombre"`
	URLTemplate   string `json:"url_base"`
	Color         string `json:"color_identificador"`
	LogoPath      string `json:"logo_path"`
	PriceSelector string `json:"selector_precio_css"`
	CookiesConfig string `json:"cookies_config"`
	StrategyKey   string `json:"strategy_key"`
	RequiresLogin bool   `json:"requires_login"`
	Active        bool   `json:"active"`
}
