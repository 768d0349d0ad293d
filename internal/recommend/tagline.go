package recommend

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"marquee/internal/services/places"
)

var restaurantWord = regexp.MustCompile(`(?i)restaurant`)

// priceSymbol maps a price level to the euro-sign tier shown on screen.
func priceSymbol(level int) string {
	switch {
	case level <= 1:
		return "€"
	case level <= 2:
		return "€€"
	case level <= 3:
		return "€€€"
	default:
		return "€€€€"
	}
}

// priceLabel maps a price level to its spoken tier.
func priceLabel(level int) string {
	switch {
	case level <= 1:
		return "cheap"
	case level <= 2:
		return "medium"
	default:
		return "expensive"
	}
}

// Tagline composes the one-line summary under the restaurant name, e.g.
// "4.5 ⭐ · €€ - medium - delivery · terrace". Detail fields win over the
// search result when present.
func Tagline(place places.Place, details *places.Details) string {
	var parts []string
	if place.Rating != 0 {
		parts = append(parts, strconv.FormatFloat(place.Rating, 'f', -1, 64)+" ⭐")
	}

	priceLevel := place.PriceLevel
	if details != nil && details.PriceLevel != nil {
		priceLevel = details.PriceLevel
	}
	resolved := scorePriceLevel(priceLevel)

	types := effectiveTypes(place, details)
	pricePart := priceSymbol(resolved) + " - " + priceLabel(resolved)
	if hasDelivery(types) {
		pricePart += " - delivery"
	}
	parts = append(parts, pricePart)

	var hints []string
	if matchesAny(types, "terrace", "outdoor", "garden", "rooftop") {
		hints = append(hints, "terrace")
	}
	if matchesAny(types, "bar", "cafe") {
		hints = append(hints, "bar / cafe")
	}
	if len(hints) > 0 {
		parts = append(parts, strings.Join(hints, ", "))
	}

	return strings.Join(parts, " · ")
}

func matchesAny(types []string, words ...string) bool {
	for _, t := range types {
		lowered := strings.ToLower(t)
		for _, word := range words {
			if strings.Contains(lowered, word) {
				return true
			}
		}
	}
	return false
}

var titleCaser = cases.Title(language.Und)

// DisplayName prepares the on-screen restaurant name: an all-caps API name
// is normalized to title case, and a "Restaurant" prefix is added unless
// the name already contains the word.
func DisplayName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name
	}
	if name == strings.ToUpper(name) && name != strings.ToLower(name) {
		name = titleCaser.String(strings.ToLower(name))
	}
	if restaurantWord.MatchString(name) {
		return name
	}
	return "Restaurant " + name
}
