package models_test

import (
	"encoding/json"
	"testing"

	"partstream/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalSource_TargetURL(t *testing.T) {
	t.Parallel()

	source := models.ExternalSource{
		URLTemplate: "https://shop.example.com/buscar?q=[QUERY]",
	}

	assert.Equal(t, "https://shop.example.com/buscar?q=bujia", source.TargetURL("bujia"))
	assert.Equal(t, "https://shop.example.com/buscar?q=pastilla+de+freno", source.TargetURL("pastilla de freno"))
	assert.Equal(t, "https://shop.example.com/buscar?q=filtro+%26+aceite", source.TargetURL("filtro & aceite"))
}

func TestExternalSource_HasQueryPlaceholder(t *testing.T) {
	t.Parallel()

	with := models.ExternalSource{URLTemplate: "https://a.example.com/?s=[QUERY]"}
	without := models.ExternalSource{URLTemplate: "https://a.example.com/catalogo"}

	assert.True(t, with.HasQueryPlaceholder())
	assert.False(t, without.HasQueryPlaceholder())
}

func TestExternalSource_Origin(t *testing.T) {
	t.Parallel()

	source := models.ExternalSource{URLTemplate: "https://shop.example.com/buscar?q=[QUERY]"}
	assert.Equal(t, "https://shop.example.com", source.Origin())

	broken := models.ExternalSource{URLTemplate: "not a url"}
	assert.Equal(t, "", broken.Origin())
}

func TestExternalSource_CookieHeader(t *testing.T) {
	t.Parallel()

	t.Run("joins browser-export pairs", func(t *testing.T) {
		t.Parallel()

		source := models.ExternalSource{
			CookiesConfig: `[{"name":"session","value":"abc123"},{"name":"cart","value":"9"}]`,
		}
		assert.Equal(t, "session=abc123; cart=9", source.CookieHeader())
	})

	t.Run("passes through opaque header strings", func(t *testing.T) {
		t.Parallel()

		source := models.ExternalSource{CookiesConfig: "session=abc123; cart=9"}
		assert.Equal(t, "session=abc123; cart=9", source.CookieHeader())
	})

	t.Run("empty config yields empty header", func(t *testing.T) {
		t.Parallel()

		source := models.ExternalSource{}
		assert.Equal(t, "", source.CookieHeader())

		source.CookiesConfig = "   "
		assert.Equal(t, "", source.CookieHeader())
	})
}

func TestPriceValue_JSON(t *testing.T) {
	t.Parallel()

	t.Run("numeric price marshals as number", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(models.NumericPrice(1250.5))
		require.NoError(t, err)
		assert.Equal(t, "1250.5", string(data))
	})

	t.Run("sentinel marshals as string", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(models.SentinelPrice(models.PriceLoginRequired))
		require.NoError(t, err)
		assert.Equal(t, `"Login Requerido"`, string(data))
	})

	t.Run("unmarshal accepts both forms", func(t *testing.T) {
		t.Parallel()

		var numeric models.PriceValue
		require.NoError(t, json.Unmarshal([]byte("99.9"), &numeric))
		assert.True(t, numeric.IsNumeric())
		assert.Equal(t, 99.9, numeric.Amount)

		var sentinel models.PriceValue
		require.NoError(t, json.Unmarshal([]byte(`"Error de Red"`), &sentinel))
		assert.False(t, sentinel.IsNumeric())
		assert.Equal(t, models.PriceNetworkError, sentinel.Sentinel)
	})
}

func TestUnifiedSearchResult_JSON(t *testing.T) {
	t.Parallel()

	stock := 3
	result := models.UnifiedSearchResult{
		ID:     "p1",
		Fuente: models.LocalSourceLabel,
		Nombre: "Brake Pad Set",
		SKU:    "BP-100",
		Precio: models.NumericPrice(4500),
		Link:   "#",
		Tipo:   models.OriginLocal,
		Color:  "#4f46e5",
		Stock:  &stock,
		Status: models.StatusOK,
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "Inventario Local", decoded["fuente"])
	assert.Equal(t, "Brake Pad Set", decoded["nombre"])
	assert.Equal(t, 4500.0, decoded["precio"])
	assert.Equal(t, "local", decoded["tipo"])
	assert.Equal(t, 3.0, decoded["stock"])
	assert.NotContains(t, decoded, "logo")
	assert.NotContains(t, decoded, "isBestPrice")
}
