package cardmarket

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/keponer/cardmarket-card-finder/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	currentBlockSelector = "div.col-sellerProductInfo.col"
	legacyAnchorSelector = "span.seller-name.d-flex span.d-flex.has-content-centered.me-1 a[href]"
	priceSelector        = "span.color-primary.fw-bold"
	articleRowSelector   = ".article-row"
)

// SellerStrategy finds offer rows written in one generation of the site markup.
type SellerStrategy interface {
	Name() string
	Extract(root *goquery.Selection) []models.SellerRecord
}

// CurrentMarkup reads div.col-sellerProductInfo blocks: the first link in
// the block is the seller, the price sits in the block or its row.
type CurrentMarkup struct{}

func (CurrentMarkup) Name() string { return "current" }

func (CurrentMarkup) Extract(root *goquery.Selection) []models.SellerRecord {
	var records []models.SellerRecord
	root.Find(currentBlockSelector).Each(func(_ int, block *goquery.Selection) {
		href := firstHref(block.Find("a[href]"))
		if href == "" {
			return
		}
		records = append(records, models.SellerRecord{
			SellerHref: href,
			Price:      priceIn(block, block.Closest(articleRowSelector), block.Parent()),
		})
	})
	return records
}

// LegacyMarkup reads the nested span.seller-name wrappers of the older
// layout. Anchors inside a current-markup block are left to CurrentMarkup.
type LegacyMarkup struct{}

func (LegacyMarkup) Name() string { return "legacy" }

func (LegacyMarkup) Extract(root *goquery.Selection) []models.SellerRecord {
	var records []models.SellerRecord
	root.Find(legacyAnchorSelector).Each(func(_ int, a *goquery.Selection) {
		if a.Closest(currentBlockSelector).Length() > 0 {
			return
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		records = append(records, models.SellerRecord{
			SellerHref: href,
			Price:      priceIn(a.Closest(articleRowSelector)),
		})
	})
	return records
}

func firstHref(anchors *goquery.Selection) string {
	var href string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href = strings.TrimSpace(a.AttrOr("href", ""))
		return href == ""
	})
	return href
}

// priceIn returns the text of the first price element found, trying each
// scope in turn.
func priceIn(scopes ...*goquery.Selection) string {
	for _, scope := range scopes {
		if p := scope.Find(priceSelector).First(); p.Length() > 0 {
			return strings.TrimSpace(p.Text())
		}
	}
	return ""
}

// Extractor runs every strategy and unions their results.
type Extractor struct {
	Strategies []SellerStrategy
}

// NewExtractor returns an extractor for both known markups.
func NewExtractor() *Extractor {
	return &Extractor{Strategies: []SellerStrategy{CurrentMarkup{}, LegacyMarkup{}}}
}

// Sellers returns the union of all strategies' records, or ErrNoSellersFound.
func (e *Extractor) Sellers(root *goquery.Selection) ([]models.SellerRecord, error) {
	var records []models.SellerRecord
	for _, strategy := range e.Strategies {
		found := strategy.Extract(root)
		if len(found) > 0 {
			slog.Debug("Extractor: strategy matched", "strategy", strategy.Name(), "sellers", len(found))
		}
		records = append(records, found...)
	}
	if len(records) == 0 {
		return nil, ErrNoSellersFound
	}
	return records, nil
}

// ExtractSellers parses html and returns its seller records with the
// default strategies.
func ExtractSellers(html string) ([]models.SellerRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return NewExtractor().Sellers(doc.Selection)
}
