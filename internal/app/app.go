package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/keponer/cardmarket-card-finder/internal/aggregate"
	"github.com/keponer/cardmarket-card-finder/internal/browser"
	"github.com/keponer/cardmarket-card-finder/internal/fetch"
	"github.com/keponer/cardmarket-card-finder/internal/models"
	"github.com/keponer/cardmarket-card-finder/internal/scraper"
	"github.com/keponer/cardmarket-card-finder/internal/scraper/cardmarket"
	"github.com/keponer/cardmarket-card-finder/pkg/config"
	"github.com/keponer/cardmarket-card-finder/utils"

	"dario.cat/mergo"
)

// Warmer prepares cookies for a URL before it is fetched.
type Warmer interface {
	Warm(ctx context.Context, pageURL, cookie string) (browser.Session, error)
}

// App is the main application structure holding all dependencies.
type App struct {
	Config    *config.Config
	Sender    scraper.Sender
	Collector scraper.Collector
	Warmer    Warmer // nil unless the browser warm-up is enabled

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New wires the request layer, the marketplace collector and, when enabled,
// the browser warm-up from cfg.
func New(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) *App {
	client := fetch.New(cfg.HTTP)
	a := &App{
		Config:    cfg,
		Sender:    client,
		Collector: cardmarket.NewCollector(client, cfg.Cardmarket),
		Stdin:     stdin,
		Stdout:    stdout,
		Stderr:    stderr,
	}
	if cfg.Browser.Enabled {
		a.Warmer = browser.New(cfg.Browser)
	}
	return a
}

// Run executes a parsed request in its mode.
func (a *App) Run(ctx context.Context, req Request) error {
	slog.Debug("App: running", "mode", req.Mode.String())
	switch req.Mode {
	case ModeGet:
		return a.RunGet(ctx, req)
	case ModePost:
		return a.RunPost(ctx, req)
	default:
		return a.RunInteractive(ctx, req.Headers)
	}
}

// requestHeaders combines the cookie with the extra headers under canonical
// names; extra headers win on conflicts, whatever their case. With a warmer,
// the browser's cookies and User-Agent are folded in.
func (a *App) requestHeaders(ctx context.Context, pageURL, cookie string, extra map[string]string) (map[string]string, error) {
	headers := make(map[string]string, len(extra)+2)
	if cookie != "" {
		headers["Cookie"] = cookie
	}
	if err := mergo.Merge(&headers, utils.CanonicalHeaders(extra), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging headers: %w", err)
	}

	if a.Warmer == nil {
		return headers, nil
	}
	session, err := a.Warmer.Warm(ctx, pageURL, headers["Cookie"])
	if err != nil {
		return nil, fmt.Errorf("browser warm-up for %s: %w", pageURL, err)
	}
	if session.Cookie != "" {
		headers["Cookie"] = session.Cookie
	}
	if session.UserAgent != "" {
		headers["User-Agent"] = session.UserAgent
	}
	return headers, nil
}

// RunGet fetches one page and prints its tokens and the sellers on it, or
// the raw response with --raw.
func (a *App) RunGet(ctx context.Context, req Request) error {
	headers, err := a.requestHeaders(ctx, req.URL, req.Cookie, req.Headers)
	if err != nil {
		return err
	}
	res, err := a.Sender.Get(ctx, req.URL, headers)
	if err != nil {
		return err
	}
	if req.Raw {
		printRaw(a.Stdout, res)
		return nil
	}

	tokens, err := cardmarket.ExtractTokens(res.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", req.URL, err)
	}
	fields := tokens.Fields()
	for _, name := range cardmarket.TokenFields {
		fmt.Fprintf(a.Stdout, "%s=%s\n", name, fields[name])
	}

	sellers, err := cardmarket.ExtractSellers(res.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", req.URL, err)
	}
	printSellers(a.Stdout, sellers)
	return nil
}

// RunPost submits a multipart form. A load-more envelope in the response is
// decoded and its sellers and cursor printed; anything else is printed raw.
func (a *App) RunPost(ctx context.Context, req Request) error {
	headers, err := a.requestHeaders(ctx, req.URL, req.Cookie, req.Headers)
	if err != nil {
		return err
	}
	res, err := a.Sender.PostForm(ctx, req.URL, req.Fields, req.Files, headers)
	if err != nil {
		return err
	}
	if req.Raw || !cardmarket.IsAjaxResponse(res.Body) {
		printRaw(a.Stdout, res)
		return nil
	}

	page, err := cardmarket.DecodeAjaxResponse(res.Body)
	if err != nil {
		return err
	}
	if strings.TrimSpace(page.Rows) != "" {
		sellers, err := cardmarket.ExtractSellers(page.Rows)
		if err != nil && !errors.Is(err, cardmarket.ErrNoSellersFound) {
			return err
		}
		printSellers(a.Stdout, sellers)
	}
	fmt.Fprintf(a.Stdout, "newPage=%d\n", page.NewPage)
	return nil
}

// CompareURLs collects every URL in turn and intersects the results. The
// first failure aborts the comparison; no partial result is returned.
func (a *App) CompareURLs(ctx context.Context, urls []string, cookie string, extra map[string]string) (*aggregate.Prices, error) {
	results := make([]models.PerURLResult, 0, len(urls))
	for _, u := range urls {
		headers, err := a.requestHeaders(ctx, u, cookie, extra)
		if err != nil {
			return nil, err
		}

		stop := startProgress(a.Stderr, "collecting "+u)
		result, err := a.Collector.Collect(ctx, u, headers)
		stop()
		if err != nil {
			return nil, fmt.Errorf("processing %s: %w", u, err)
		}
		slog.Info("App: collected", "url", u, "pages", result.Pages, "sellers", len(result.Sellers))
		results = append(results, result)
	}
	return aggregate.IntersectResults(results), nil
}
