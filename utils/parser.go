package utils

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// priceRegex finds the first number-like run in a price string, including
// thousands and decimal separators of either convention.
var priceRegex = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice converts a displayed price such as "12,34 €", "1.234,56 €" or
// "AED 1,079.00" to a float64. A separator followed by one or two trailing
// digits is the decimal separator; every other separator groups thousands.
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0.0
	}

	foundPrice := strings.TrimRight(priceRegex.FindString(priceStr), ".,")
	if foundPrice == "" {
		return 0.0
	}

	cleaned := foundPrice
	if i := strings.LastIndexAny(foundPrice, ".,"); i >= 0 {
		intPart, frac := foundPrice[:i], foundPrice[i+1:]
		intPart = strings.NewReplacer(",", "", ".", "").Replace(intPart)
		if len(frac) <= 2 {
			cleaned = intPart + "." + frac
		} else {
			cleaned = intPart + frac
		}
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		slog.Warn("ParsePrice: failed to parse price", "cleaned", cleaned, "original", priceStr, "err", err)
		return 0.0
	}
	return price
}
