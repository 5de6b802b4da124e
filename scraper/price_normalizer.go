package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Label tokens commonly wrapped around Argentine retail prices.
var priceNoisePattern = regexp.MustCompile(`(?i)Precio de lista|IVA incluido|Neto|Final|Lista|Total|Oferta`)

// Everything that is not a digit or a separator.
var nonPricePattern = regexp.MustCompile(`[^0-9,.]`)

// NormalizePrice converts an arbitrary price text fragment into a numeric
// value. Noise labels are stripped, then only digits and separators are
// kept; a comma is treated as the decimal separator with periods acting as
// thousands separators ("$1.250,50" -> 1250.50). Clean numeric input passes
// through unchanged ("1250.50" -> 1250.50).
//
// A missing or unusable price yields NaN; use IsPriceMissing to test.
func NormalizePrice(raw string) float64 {
	cleaned := priceNoisePattern.ReplaceAllString(raw, "")
	cleaned = nonPricePattern.ReplaceAllString(cleaned, "")

	if strings.Contains(cleaned, ",") {
		// Comma-decimal locale: drop thousands periods, comma becomes the point
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// IsPriceMissing reports whether a normalized value represents "no usable
// price". Zero and negative values count as missing; a product genuinely
// priced at zero never reaches this path because the catalog owns it.
func IsPriceMissing(value float64) bool {
	return math.IsNaN(value) || math.IsInf(value, 0) || value <= 0
}
