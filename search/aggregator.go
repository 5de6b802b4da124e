package search

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"partstream/models"
	"partstream/scraper"
)

// Aggregator runs the local matcher and one scrape pipeline per active
// external source concurrently, then merges everything into a single
// price-sorted result list.
type Aggregator struct {
	Matcher   *Matcher
	Fetcher   scraper.Fetcher
	Extractor *scraper.Extractor

	// PolitenessDelay is applied once per source scrape before fetching.
	PolitenessDelay time.Duration
	// LocalColor is the badge color for catalog results.
	LocalColor string
}

// NewAggregator wires the aggregator with its collaborators
func NewAggregator(matcher *Matcher, fetcher scraper.Fetcher, extractor *scraper.Extractor, politenessDelay time.Duration, localColor string) *Aggregator {
	return &Aggregator{
		Matcher:         matcher,
		Fetcher:         fetcher,
		Extractor:       extractor,
		PolitenessDelay: politenessDelay,
		LocalColor:      localColor,
	}
}

// Search executes a unified search. An empty query returns an empty list
// immediately; local mode skips scraping entirely. A failing source never
// fails the search: it contributes a single error-status result instead.
func (a *Aggregator) Search(ctx context.Context, query string, sources []models.ExternalSource, mode models.SearchMode) []models.UnifiedSearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UnifiedSearchResult{}
	}

	localCh := make(chan []models.UnifiedSearchResult, 1)
	go func() {
		localCh <- a.searchLocal(query)
	}()

	// Local-only searches keep the matcher's best-match-first order; the
	// price sort only applies once external results join the list.
	if mode == models.SearchModeLocal {
		return <-localCh
	}

	// One independent pipeline per active source; skipped sources leave a
	// nil slot which is dropped during the merge.
	external := make([]*models.UnifiedSearchResult, len(sources))
	var wg sync.WaitGroup
	for i := range sources {
		source := sources[i]
		if !source.Active || !source.HasQueryPlaceholder() {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			external[i] = a.scrapeSource(ctx, query, &source)
		}(i)
	}

	localResults := <-localCh
	wg.Wait()

	merged := make([]models.UnifiedSearchResult, 0, len(localResults)+len(external))
	merged = append(merged, localResults...)
	for _, r := range external {
		if r != nil {
			merged = append(merged, *r)
		}
	}

	return sortByPrice(merged)
}

// searchLocal converts matcher hits into unified results, best match first
func (a *Aggregator) searchLocal(query string) []models.UnifiedSearchResult {
	matches := a.Matcher.Search(query)

	results := make([]models.UnifiedSearchResult, 0, len(matches))
	for _, match := range matches {
		p := match.Product
		stock := p.Stock
		results = append(results, models.UnifiedSearchResult{
			ID:     p.ID,
			Fuente: models.LocalSourceLabel,
			Nombre: p.Name,
			SKU:    p.Code,
			Precio: models.NumericPrice(p.Price),
			Link:   "#",
			Tipo:   models.OriginLocal,
			Color:  a.LocalColor,
			Image:  p.Image,
			Stock:  &stock,
			Status: models.StatusOK,
		})
	}
	return results
}

// scrapeSource runs the full fetch → extract → normalize → detect-login
// pipeline for one source. It never propagates a failure: any error or
// panic becomes a single error-status result.
func (a *Aggregator) scrapeSource(ctx context.Context, query string, source *models.ExternalSource) (result *models.UnifiedSearchResult) {
	targetURL := source.TargetURL(query)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SCRAPE FAIL] %s: panic: %v", source.Name, r)
			result = errorResult(query, source, targetURL)
		}
	}()

	cookieHeader := source.CookieHeader()

	// Throttle per-site request rate
	select {
	case <-time.After(a.PolitenessDelay):
	case <-ctx.Done():
		return errorResult(query, source, targetURL)
	}

	html, err := a.Fetcher.Fetch(ctx, targetURL, cookieHeader)
	if err != nil {
		log.Printf("[SCRAPE FAIL] %s: %v", source.Name, err)
		return errorResult(query, source, targetURL)
	}

	extraction, err := a.Extractor.Extract(html, source, query)
	if err != nil {
		log.Printf("[SCRAPE FAIL] %s: %v", source.Name, err)
		return errorResult(query, source, targetURL)
	}

	price := scraper.NormalizePrice(extraction.RawPrice)
	priceMissing := scraper.IsPriceMissing(price)

	cause := scraper.DetectLoginState(
		extraction.HasSessionMarker,
		source.RequiresLogin,
		cookieHeader != "",
		priceMissing,
	)
	if cause != scraper.CauseNone {
		log.Printf("Source %s requires login (%s)", source.Name, cause)
		return &models.UnifiedSearchResult{
			ID:     "ext_" + source.ID + "_" + query,
			Fuente: source.Name,
			Nombre: extraction.Title,
			SKU:    models.SKUAuthRequired,
			Precio: models.SentinelPrice(models.PriceLoginRequired),
			Link:   targetURL,
			Tipo:   models.OriginExternal,
			Color:  source.Color,
			Logo:   source.LogoPath,
			Image:  extraction.ImageURL,
			Status: models.StatusRequiresLogin,
		}
	}

	return &models.UnifiedSearchResult{
		ID:     "ext_" + source.ID + "_" + query,
		Fuente: source.Name,
		Nombre: extraction.Title,
		SKU:    models.SKUExternalRef,
		Precio: models.NumericPrice(price),
		Link:   targetURL,
		Tipo:   models.OriginExternal,
		Color:  source.Color,
		Logo:   source.LogoPath,
		Image:  extraction.ImageURL,
		Status: models.StatusOK,
	}
}

func errorResult(query string, source *models.ExternalSource, targetURL string) *models.UnifiedSearchResult {
	return &models.UnifiedSearchResult{
		ID:     "err_" + source.ID + "_" + query,
		Fuente: source.Name,
		Nombre: query,
		SKU:    models.SKUError,
		Precio: models.SentinelPrice(models.PriceNetworkError),
		Link:   targetURL,
		Tipo:   models.OriginExternal,
		Color:  models.ErrorColor,
		Status: models.StatusError,
	}
}

// sortByPrice orders results ascending by numeric price. Sentinel prices
// sort after every numeric price; ties keep their arrival order.
func sortByPrice(results []models.UnifiedSearchResult) []models.UnifiedSearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return sortKey(results[i].Precio) < sortKey(results[j].Precio)
	})
	return results
}

func sortKey(p models.PriceValue) float64 {
	if !p.IsNumeric() {
		return math.Inf(1)
	}
	return p.Amount
}
