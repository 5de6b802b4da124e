package scraper_test

import (
	"testing"

	"partstream/models"
	"partstream/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() *models.ExternalSource {
	return &models.ExternalSource{
		ID:            "src-1",
		Name:          "Repuestos Norte",
		URLTemplate:   "https://shop.example.com/search?q=[QUERY]",
		PriceSelector: ".precio",
	}
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	e := scraper.NewExtractor()

	t.Run("generic strategy resolves title image and price", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<h1>Pastilla de Freno Delantera</h1>
			<div class="product-image"><img src="/img/pastilla.jpg"></div>
			<span class="precio">$1.250,50</span>
		</body></html>`

		ext, err := e.Extract(html, testSource(), "pastilla freno")
		require.NoError(t, err)

		assert.Equal(t, "Pastilla de Freno Delantera", ext.Title)
		assert.Equal(t, "https://shop.example.com/img/pastilla.jpg", ext.ImageURL)
		assert.Equal(t, "$1.250,50", ext.RawPrice)
		assert.False(t, ext.HasSessionMarker)
	})

	t.Run("last price element wins with multiple matches", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<h1>Disco de Freno</h1>
			<span class="precio">$900</span>
			<span class="precio">$850</span>
		</body></html>`

		ext, err := e.Extract(html, testSource(), "disco")
		require.NoError(t, err)
		assert.Equal(t, "$850", ext.RawPrice)
	})

	t.Run("short title falls back to the query", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><h1>..</h1><span class="precio">$10</span></body></html>`

		ext, err := e.Extract(html, testSource(), "bomba de agua")
		require.NoError(t, err)
		assert.Equal(t, "bomba de agua", ext.Title)
	})

	t.Run("title equal to the source name falls back to the query", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><h1>Repuestos Norte</h1></body></html>`

		ext, err := e.Extract(html, testSource(), "amortiguador")
		require.NoError(t, err)
		assert.Equal(t, "amortiguador", ext.Title)
	})

	t.Run("lazy-load attributes probed after src", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<h1>Filtro de Aceite</h1>
			<div class="product-image"><img data-src="//cdn.example.com/filtro.jpg"></div>
		</body></html>`

		ext, err := e.Extract(html, testSource(), "filtro")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/filtro.jpg", ext.ImageURL)
	})

	t.Run("relative image path resolved against origin", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<h1>Correa de Distribucion</h1>
			<div class="product-image"><img src="images/correa.jpg"></div>
		</body></html>`

		ext, err := e.Extract(html, testSource(), "correa")
		require.NoError(t, err)
		assert.Equal(t, "https://shop.example.com/images/correa.jpg", ext.ImageURL)
	})

	t.Run("missing image yields empty string", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><h1>Bujia NGK</h1></body></html>`

		ext, err := e.Extract(html, testSource(), "bujia")
		require.NoError(t, err)
		assert.Equal(t, "", ext.ImageURL)
	})

	t.Run("fallback scan takes last short currency text node", func(t *testing.T) {
		t.Parallel()

		source := testSource()
		source.PriceSelector = ".does-not-exist"

		html := `<html><body>
			<h1>Kit de Embrague</h1>
			<p>Los precios publicados son finales e incluyen todos los impuestos vigentes al momento de la compra</p>
			<span>$ 15.400</span>
			<span>$ 14.900</span>
		</body></html>`

		ext, err := e.Extract(html, source, "embrague")
		require.NoError(t, err)
		assert.Equal(t, "$ 14.900", ext.RawPrice)
	})

	t.Run("session marker detected case-insensitively", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div>Hola, Carlos</div><h1>Radiador</h1></body></html>`

		ext, err := e.Extract(html, testSource(), "radiador")
		require.NoError(t, err)
		assert.True(t, ext.HasSessionMarker)
	})
}

func TestExtractor_Strategies(t *testing.T) {
	t.Parallel()

	e := scraper.NewExtractor()

	t.Run("woocommerce strategy uses elementor selectors", func(t *testing.T) {
		t.Parallel()

		source := testSource()
		source.StrategyKey = scraper.StrategyWooCommerce

		html := `<html><body>
			<h1 class="elementor-heading-title">Caliper Brembo 4 Pistones</h1>
			<div class="elementor-widget-image"><img data-lazy-src="/uploads/caliper.png"></div>
			<div class="price"><span class="woocommerce-Price-amount">$125.000,00</span></div>
		</body></html>`

		ext, err := e.Extract(html, source, "caliper")
		require.NoError(t, err)
		assert.Equal(t, "Caliper Brembo 4 Pistones", ext.Title)
		assert.Equal(t, "https://shop.example.com/uploads/caliper.png", ext.ImageURL)
		assert.Equal(t, "$125.000,00", ext.RawPrice)
	})

	t.Run("legacy catalog strategy takes the second price", func(t *testing.T) {
		t.Parallel()

		source := testSource()
		source.StrategyKey = scraper.StrategyLegacyCatalog

		html := `<html><body>
			<h3 class="text-uppercase">CILINDRO DE RUEDA</h3>
			<div class="post-prev-img"><img src="../fotos/cilindro.jpg"></div>
			<div class="shop-price-cont">$ 8.200 Lista</div>
			<div class="shop-price-cont">$ 7.380 Neto</div>
		</body></html>`

		ext, err := e.Extract(html, source, "cilindro")
		require.NoError(t, err)
		assert.Equal(t, "CILINDRO DE RUEDA", ext.Title)
		assert.Equal(t, "$ 7.380 Neto", ext.RawPrice)
		// Legacy ../ paths rewrite against the source origin by default
		assert.Equal(t, "https://shop.example.com/fotos/cilindro.jpg", ext.ImageURL)
	})

	t.Run("single price falls back to last element under two-price strategy", func(t *testing.T) {
		t.Parallel()

		source := testSource()
		source.StrategyKey = scraper.StrategyLegacyCatalog

		html := `<html><body>
			<h3 class="text-uppercase">BOMBA DE FRENO</h3>
			<div class="shop-price-cont">$ 12.000</div>
		</body></html>`

		ext, err := e.Extract(html, source, "bomba")
		require.NoError(t, err)
		assert.Equal(t, "$ 12.000", ext.RawPrice)
	})

	t.Run("custom registered strategy overrides the builtin set", func(t *testing.T) {
		t.Parallel()

		custom := scraper.NewExtractor()
		custom.Register("tienda", scraper.Strategy{
			TitleSelectors: []string{".product-name"},
			ImageSelectors: []string{".gallery img"},
			PriceSelector:  ".final-price",
		})

		source := testSource()
		source.StrategyKey = "tienda"

		html := `<html><body>
			<div class="product-name">Junta de Tapa</div>
			<div class="gallery"><img src="https://cdn.tienda.com/junta.jpg"></div>
			<div class="final-price">$3.300</div>
		</body></html>`

		ext, err := custom.Extract(html, source, "junta")
		require.NoError(t, err)
		assert.Equal(t, "Junta de Tapa", ext.Title)
		assert.Equal(t, "https://cdn.tienda.com/junta.jpg", ext.ImageURL)
		assert.Equal(t, "$3.300", ext.RawPrice)
	})
}
