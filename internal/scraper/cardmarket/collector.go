package cardmarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keponer/cardmarket-card-finder/internal/models"
	"github.com/keponer/cardmarket-card-finder/internal/scraper"
	"github.com/keponer/cardmarket-card-finder/pkg/config"
)

// Collector fetches a product page and pages through all of its offers.
type Collector struct {
	sender scraper.Sender
	pager  *Pager
}

var _ scraper.Collector = (*Collector)(nil)

func NewCollector(sender scraper.Sender, conf config.CardmarketConfig) *Collector {
	return &Collector{sender: sender, pager: NewPager(sender, conf)}
}

// Collect issues one GET for productURL, then the load-more POSTs, all with
// the same headers.
func (c *Collector) Collect(ctx context.Context, productURL string, headers map[string]string) (models.PerURLResult, error) {
	slog.Debug("Collector: fetching product page", "url", productURL)

	res, err := c.sender.Get(ctx, productURL, headers)
	if err != nil {
		return models.PerURLResult{}, fmt.Errorf("fetching %s: %w", productURL, err)
	}

	result, err := c.pager.CollectAllPages(ctx, res.Body, productURL, headers)
	if err != nil {
		return models.PerURLResult{}, err
	}

	slog.Debug("Collector: finished", "url", productURL, "pages", result.Pages, "sellers", len(result.Sellers))
	return result, nil
}
