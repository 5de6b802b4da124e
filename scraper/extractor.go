package scraper

import (
	"fmt"
	"strings"

	"partstream/models"

	"github.com/PuerkitoBio/goquery"
)

// Extraction holds the fragments located on a scraped page.
type Extraction struct {
	Title            string
	RawPrice         string
	ImageURL         string
	HasSessionMarker bool
}

// Strategy describes how a particular site structure is scraped. Strategies
// are registered under a stable key and assigned to sources via their
// strategy_key configuration, so no name sniffing is involved.
type Strategy struct {
	TitleSelectors []string
	ImageSelectors []string
	// PriceSelector overrides the source's configured selector when set.
	PriceSelector string
	// TakeSecondPrice selects the second matched price element, for sites
	// that render list price first and the discounted net price second.
	TakeSecondPrice bool
	// LegacyImageBase rewrites image paths that start with ../. Empty means
	// rewrite against the source origin.
	LegacyImageBase string
}

// Builtin strategy keys.
const (
	StrategyWooCommerce   = "woocommerce"
	StrategyLegacyCatalog = "legacy-catalog"
)

// genericStrategy is the fallback applied when a source has no strategy key.
var genericStrategy = Strategy{
	TitleSelectors: []string{"h1", "h2", "h3"},
	ImageSelectors: []string{".product-image img", "img[src*='product']"},
}

// sessionMarkers are greeting phrases that indicate an authenticated page.
var sessionMarkers = []string{"usuario :", "usuario:", "hola,"}

// Lazy-load attributes probed after src, in order.
var imageAttrs = []string{"src", "data-src", "data-lazy-src"}

// Extractor resolves titles, price fragments and images from raw HTML using
// per-source strategies with a generic fallback.
type Extractor struct {
	strategies map[string]Strategy
}

// NewExtractor creates an extractor with the builtin strategies registered
func NewExtractor() *Extractor {
	e := &Extractor{strategies: make(map[string]Strategy)}

	// Elementor/WooCommerce storefronts
	e.Register(StrategyWooCommerce, Strategy{
		TitleSelectors: []string{"h1.elementor-heading-title", ".product_title", "h1"},
		ImageSelectors: []string{".elementor-widget-image img", ".woocommerce-product-gallery__image img"},
		PriceSelector:  ".price .woocommerce-Price-amount",
	})

	// Older table-based catalogs with a list/net dual price layout
	e.Register(StrategyLegacyCatalog, Strategy{
		TitleSelectors:  []string{"h3.text-uppercase", "h1"},
		ImageSelectors:  []string{".post-prev-img img"},
		PriceSelector:   ".shop-price-cont",
		TakeSecondPrice: true,
	})

	return e
}

// Register adds or replaces a strategy under the given key
func (e *Extractor) Register(key string, s Strategy) {
	e.strategies[key] = s
}

// strategyFor resolves the strategy for a source, defaulting to generic
func (e *Extractor) strategyFor(source *models.ExternalSource) Strategy {
	if s, ok := e.strategies[source.StrategyKey]; ok {
		return s
	}
	return genericStrategy
}

// Extract locates the title, raw price text and image URL on a page.
// query is substituted as the title when no usable one is found.
func (e *Extractor) Extract(html string, source *models.ExternalSource, query string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %v", err)
	}

	strategy := e.strategyFor(source)
	origin := source.Origin()

	result := &Extraction{
		Title:            e.extractTitle(doc, strategy, source, query),
		RawPrice:         e.extractPriceText(doc, strategy, source),
		ImageURL:         e.extractImageURL(doc, strategy, origin),
		HasSessionMarker: hasSessionMarker(html),
	}

	return result, nil
}

// extractTitle tries the strategy's selector candidates, then generic
// headings, then falls back to the query itself
func (e *Extractor) extractTitle(doc *goquery.Document, strategy Strategy, source *models.ExternalSource, query string) string {
	title := firstText(doc, strategy.TitleSelectors)
	if title == "" {
		title = firstText(doc, genericStrategy.TitleSelectors)
	}

	// Too short or just the site's own name means the page gave us nothing
	if len(title) < 3 || strings.EqualFold(title, source.Name) {
		return query
	}
	return title
}

// firstText returns the first non-empty trimmed text among the selectors
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractImageURL resolves the product image via the strategy's selectors
// plus lazy-load attributes, then normalizes relative forms
func (e *Extractor) extractImageURL(doc *goquery.Document, strategy Strategy, origin string) string {
	selectors := strategy.ImageSelectors
	if len(selectors) == 0 {
		selectors = genericStrategy.ImageSelectors
	}

	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		for _, attr := range imageAttrs {
			if src, ok := node.Attr(attr); ok && strings.TrimSpace(src) != "" {
				return normalizeImageURL(strings.TrimSpace(src), origin, strategy.LegacyImageBase)
			}
		}
	}

	return ""
}

// normalizeImageURL turns protocol-relative and path-relative image
// references into absolute URLs
func normalizeImageURL(src, origin, legacyBase string) string {
	if strings.HasPrefix(src, "../") {
		base := legacyBase
		if base == "" {
			base = origin + "/"
		}
		return base + strings.TrimPrefix(src, "../")
	}
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if strings.HasPrefix(src, "/") {
		return origin + src
	}
	if !strings.HasPrefix(src, "http") {
		return origin + "/" + src
	}
	return src
}

// extractPriceText locates the raw price fragment. The configured selector
// wins; when it matches nothing, short currency-bearing text nodes are
// scanned as a last resort.
func (e *Extractor) extractPriceText(doc *goquery.Document, strategy Strategy, source *models.ExternalSource) string {
	selector := strategy.PriceSelector
	if selector == "" {
		selector = source.PriceSelector
	}

	if selector != "" {
		elements := doc.Find(selector)
		if strategy.TakeSecondPrice && elements.Length() >= 2 {
			return strings.TrimSpace(elements.Eq(1).Text())
		}
		if elements.Length() > 0 {
			return strings.TrimSpace(elements.Last().Text())
		}
	}

	return fallbackPriceScan(doc)
}

// fallbackPriceScan takes the last short text node containing a currency
// symbol and a digit
func fallbackPriceScan(doc *goquery.Document) string {
	var last string
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) == 0 || len(text) >= 35 {
			return
		}
		if !strings.ContainsAny(text, "$€") {
			return
		}
		if !strings.ContainsAny(text, "0123456789") {
			return
		}
		last = text
	})
	return last
}

// hasSessionMarker scans the page for greeting phrases that only show up
// for logged-in users
func hasSessionMarker(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range sessionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
