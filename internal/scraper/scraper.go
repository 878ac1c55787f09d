package scraper

import (
	"context"

	"github.com/keponer/cardmarket-card-finder/internal/fetch"
	"github.com/keponer/cardmarket-card-finder/internal/models"
)

// Sender issues the requests a marketplace scraper needs. *fetch.Client
// satisfies it; tests substitute scripted fakes.
type Sender interface {
	Get(ctx context.Context, url string, headers map[string]string) (*fetch.Response, error)
	PostForm(ctx context.Context, url string, fields map[string]string, files []fetch.FormFile, headers map[string]string) (*fetch.Response, error)
}

// Collector gathers every offer of one product URL across all its pages.
// Any new marketplace scraper follows the same structure.
type Collector interface {
	Collect(ctx context.Context, productURL string, headers map[string]string) (models.PerURLResult, error)
}
