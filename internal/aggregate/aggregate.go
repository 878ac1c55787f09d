// Package aggregate combines the offers of several product pages.
package aggregate

import (
	"github.com/keponer/cardmarket-card-finder/internal/models"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Prices maps a seller href to every price observed for it, in the order
// the sellers first appear across the inputs.
type Prices = orderedmap.OrderedMap[string, []string]

// Intersect keeps the sellers present in every result and gathers all of
// their prices, input order first, duplicates kept, empty prices skipped.
// No results yields an empty map.
func Intersect(results [][]models.SellerRecord) *Prices {
	out := orderedmap.New[string, []string]()
	if len(results) == 0 {
		return out
	}

	counts := make(map[string]int)
	for _, result := range results {
		seen := make(map[string]bool)
		for _, r := range result {
			if !seen[r.SellerHref] {
				seen[r.SellerHref] = true
				counts[r.SellerHref]++
			}
		}
	}

	for _, result := range results {
		for _, r := range result {
			if counts[r.SellerHref] != len(results) {
				continue
			}
			prices, _ := out.Get(r.SellerHref)
			if r.Price != "" {
				prices = append(prices, r.Price)
			}
			out.Set(r.SellerHref, prices)
		}
	}
	return out
}

// IntersectResults is Intersect over collected per-URL results.
func IntersectResults(results []models.PerURLResult) *Prices {
	sellers := make([][]models.SellerRecord, 0, len(results))
	for _, r := range results {
		sellers = append(sellers, r.Sellers)
	}
	return Intersect(sellers)
}

// Hrefs returns the keys of p in order.
func Hrefs(p *Prices) []string {
	hrefs := make([]string, 0, p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		hrefs = append(hrefs, pair.Key)
	}
	return hrefs
}
