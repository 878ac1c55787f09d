package cardmarket

import (
	"fmt"
	"net/url"
	"strings"
)

const loadMorePath = "AjaxAction/Product_LoadMoreArticles"

// LoadMoreURL derives the pagination endpoint from a product URL. Product
// pages live under /<language>/<game>/..., and so does the endpoint.
func LoadMoreURL(productURL string) (string, error) {
	u, err := url.Parse(productURL)
	if err != nil {
		return "", fmt.Errorf("parsing product url: %w", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Scheme == "" || u.Host == "" || len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", fmt.Errorf("cannot derive load-more endpoint from %q: expected /<language>/<game>/...", productURL)
	}
	return fmt.Sprintf("%s://%s/%s/%s/%s", u.Scheme, u.Host, segments[0], segments[1], loadMorePath), nil
}
