package cardmarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/keponer/cardmarket-card-finder/internal/fetch"
	"github.com/keponer/cardmarket-card-finder/internal/models"
	"github.com/keponer/cardmarket-card-finder/pkg/config"

	"github.com/PuerkitoBio/goquery"
)

// Poster sends the load-more requests.
type Poster interface {
	PostForm(ctx context.Context, url string, fields map[string]string, files []fetch.FormFile, headers map[string]string) (*fetch.Response, error)
}

// Pager drives the "load more" loop of one product page.
type Pager struct {
	sender    Poster
	extractor *Extractor
	conf      config.CardmarketConfig
}

func NewPager(sender Poster, conf config.CardmarketConfig) *Pager {
	return &Pager{sender: sender, extractor: NewExtractor(), conf: conf}
}

func (p *Pager) endpoint(productURL string) (string, error) {
	if p.conf.LoadMoreURL != "" {
		return p.conf.LoadMoreURL, nil
	}
	return LoadMoreURL(productURL)
}

// CollectAllPages extracts the tokens and sellers of initialHTML, then posts
// load-more requests with the same headers until the server answers with a
// cursor of -1. Any failure discards everything collected for the URL.
func (p *Pager) CollectAllPages(ctx context.Context, initialHTML, productURL string, headers map[string]string) (models.PerURLResult, error) {
	endpoint, err := p.endpoint(productURL)
	if err != nil {
		return models.PerURLResult{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(initialHTML))
	if err != nil {
		return models.PerURLResult{}, fmt.Errorf("parsing %s: %w", productURL, err)
	}
	tokens, err := tokensFrom(doc.Selection)
	if err != nil {
		return models.PerURLResult{}, fmt.Errorf("%s: %w", productURL, err)
	}
	sellers, err := p.extractor.Sellers(doc.Selection)
	if err != nil {
		return models.PerURLResult{}, fmt.Errorf("%s: %w", productURL, err)
	}

	filterSettings := p.conf.FilterSettings
	if filterSettings == "" {
		filterSettings = config.DefaultFilterSettings
	}

	pages := 1
	cursor := 1
	for requests := 1; ; requests++ {
		fields := tokens.Fields()
		fields["page"] = strconv.Itoa(cursor)
		fields["filterSettings"] = filterSettings

		res, err := p.sender.PostForm(ctx, endpoint, fields, nil, headers)
		if err != nil {
			return models.PerURLResult{}, fmt.Errorf("loading page %d of %s: %w", cursor, productURL, err)
		}
		page, err := DecodeAjaxResponse(res.Body)
		if err != nil {
			return models.PerURLResult{}, fmt.Errorf("loading page %d of %s: %w", cursor, productURL, err)
		}
		pages++

		rows, err := goquery.NewDocumentFromReader(strings.NewReader(page.Rows))
		if err != nil {
			return models.PerURLResult{}, fmt.Errorf("parsing page %d of %s: %w", cursor, productURL, err)
		}
		if hasTokenInputs(rows.Selection) {
			if tokens, err = tokensFrom(rows.Selection); err != nil {
				return models.PerURLResult{}, fmt.Errorf("page %d of %s: %w", cursor, productURL, err)
			}
		}

		batch, err := p.extractor.Sellers(rows.Selection)
		if errors.Is(err, ErrNoSellersFound) && page.NewPage == LastPage && strings.TrimSpace(page.Rows) == "" {
			// an exhausted listing may close with an empty batch
			err = nil
		}
		if err != nil {
			return models.PerURLResult{}, fmt.Errorf("page %d of %s: %w", cursor, productURL, err)
		}
		sellers = append(sellers, batch...)

		slog.Debug("Pager: page loaded",
			"url", productURL,
			"page", cursor,
			"sellers", len(batch),
			"newPage", page.NewPage,
		)

		if page.NewPage == LastPage {
			break
		}
		if p.conf.MaxPages > 0 && requests >= p.conf.MaxPages {
			return models.PerURLResult{}, &PaginationLimitError{URL: productURL, Limit: p.conf.MaxPages}
		}
		cursor = page.NewPage
	}

	return models.PerURLResult{URL: productURL, Sellers: sellers, Pages: pages}, nil
}
