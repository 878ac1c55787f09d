package cardmarket

import (
	"fmt"
	"slices"
	"strings"

	"github.com/keponer/cardmarket-card-finder/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// TokenFields are the hidden input names in the order they are validated.
var TokenFields = []string{"__cmtkn", "idProduct", "isSingle"}

func isHiddenInput(s *goquery.Selection) bool {
	t, ok := s.Attr("type")
	return !ok || strings.EqualFold(strings.TrimSpace(t), "hidden")
}

// hiddenTokenValues returns the value of the first hidden input for each
// token name present under root.
func hiddenTokenValues(root *goquery.Selection) map[string]string {
	found := make(map[string]string, len(TokenFields))
	root.Find("input[name]").Each(func(_ int, s *goquery.Selection) {
		if !isHiddenInput(s) {
			return
		}
		name := s.AttrOr("name", "")
		if !slices.Contains(TokenFields, name) {
			return
		}
		if _, seen := found[name]; !seen {
			found[name] = s.AttrOr("value", "")
		}
	})
	return found
}

// hasTokenInputs reports whether root carries any token input at all.
func hasTokenInputs(root *goquery.Selection) bool {
	return len(hiddenTokenValues(root)) > 0
}

func tokensFrom(root *goquery.Selection) (models.TokenSet, error) {
	found := hiddenTokenValues(root)
	for _, field := range TokenFields {
		if _, ok := found[field]; !ok {
			return models.TokenSet{}, &MissingTokenError{Field: field}
		}
	}
	return models.TokenSet{
		Cmtkn:     found["__cmtkn"],
		IDProduct: found["idProduct"],
		IsSingle:  found["isSingle"],
	}, nil
}

// ExtractTokens returns the three hidden token values of a page. A present
// input with an empty value counts as found; a missing one is a
// *MissingTokenError.
func ExtractTokens(html string) (models.TokenSet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.TokenSet{}, fmt.Errorf("parsing html: %w", err)
	}
	return tokensFrom(doc.Selection)
}
