// Package browser visits a page in a stealth headless browser so that the
// cookies and User-Agent a protected site hands out can be reused by plain
// HTTP requests.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keponer/cardmarket-card-finder/pkg/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Session is what a browser visit leaves behind.
type Session struct {
	Cookie    string
	UserAgent string
}

// Warmer launches a browser per visit.
type Warmer struct {
	conf config.BrowserConfig
}

func New(conf config.BrowserConfig) *Warmer {
	return &Warmer{conf: conf}
}

// Warm loads pageURL with cookie set and returns cookie merged with the
// browser's cookies for that URL, plus the browser's User-Agent.
func (w *Warmer) Warm(ctx context.Context, pageURL, cookie string) (Session, error) {
	if w.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.conf.Timeout)
		defer cancel()
	}

	l := launcher.New().Headless(w.conf.Headless).Context(ctx)
	defer l.Cleanup()
	controlURL, err := l.Launch()
	if err != nil {
		return Session{}, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return Session{}, fmt.Errorf("connecting to browser: %w", err)
	}
	defer b.Close()

	page, err := stealth.Page(b)
	if err != nil {
		return Session{}, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if params := cookieParams(pageURL, cookie); len(params) > 0 {
		if err := page.SetCookies(params); err != nil {
			return Session{}, fmt.Errorf("setting cookies: %w", err)
		}
	}

	slog.Info("Browser: loading page", "url", pageURL)
	if err := page.Navigate(pageURL); err != nil {
		return Session{}, fmt.Errorf("navigating to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return Session{}, fmt.Errorf("waiting for %s: %w", pageURL, err)
	}

	cookies, err := page.Cookies([]string{pageURL})
	if err != nil {
		return Session{}, fmt.Errorf("reading cookies: %w", err)
	}
	ua, err := page.Eval(`() => navigator.userAgent`)
	if err != nil {
		return Session{}, fmt.Errorf("reading user agent: %w", err)
	}

	session := Session{Cookie: MergeCookies(cookie, cookies), UserAgent: ua.Value.Str()}
	slog.Debug("Browser: session ready", "cookies", len(cookies), "userAgent", session.UserAgent)
	return session, nil
}

type pair struct {
	name, value string
}

func splitCookieHeader(header string) []pair {
	var pairs []pair
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		pairs = append(pairs, pair{name: name, value: value})
	}
	return pairs
}

func cookieParams(pageURL, header string) []*proto.NetworkCookieParam {
	var params []*proto.NetworkCookieParam
	for _, p := range splitCookieHeader(header) {
		params = append(params, &proto.NetworkCookieParam{Name: p.name, Value: p.value, URL: pageURL})
	}
	return params
}

// MergeCookies overlays browser cookies on a Cookie header value. Existing
// names keep their position and take the browser's value; new names are
// appended in browser order.
func MergeCookies(header string, cookies []*proto.NetworkCookie) string {
	pairs := splitCookieHeader(header)
	index := make(map[string]int, len(pairs))
	for i, p := range pairs {
		index[p.name] = i
	}
	for _, c := range cookies {
		if i, ok := index[c.Name]; ok {
			pairs[i].value = c.Value
			continue
		}
		index[c.Name] = len(pairs)
		pairs = append(pairs, pair{name: c.Name, value: c.Value})
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.name+"="+p.value)
	}
	return strings.Join(parts, "; ")
}
