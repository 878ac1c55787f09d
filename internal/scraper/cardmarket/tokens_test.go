package cardmarket

import (
	"errors"
	"testing"

	"github.com/keponer/cardmarket-card-finder/internal/models"

	"github.com/stretchr/testify/require"
)

func TestExtractTokens(t *testing.T) {
	noisy := page(
		`<nav><input type="text" name="searchString" value="pikachu"></nav>`,
		`<form action="/x"><input type="hidden" name="other" value="1">`,
		`<input type="HIDDEN" name="isSingle" value="1">`,
		`<div><p>noise</p><input name="idProduct" value="273548"></div>`,
		`<input type="hidden" name="__cmtkn" value="a1b2c3"></form>`,
		`<input type="hidden" name="__cmtkn" value="second">`,
	)

	tokens, err := ExtractTokens(noisy)
	require.NoError(t, err)
	require.Equal(t, models.TokenSet{Cmtkn: "a1b2c3", IDProduct: "273548", IsSingle: "1"}, tokens)
}

func TestExtractTokensEmptyValueIsPresent(t *testing.T) {
	tokens, err := ExtractTokens(page(tokenInputs("tok", "1", "")))
	require.NoError(t, err)
	require.Equal(t, "", tokens.IsSingle)
}

func TestExtractTokensMissing(t *testing.T) {
	testCases := []struct {
		name    string
		html    string
		missing string
	}{
		{"No Inputs", page("<p>nothing</p>"), "__cmtkn"},
		{"Missing Cmtkn", page(`<input type="hidden" name="idProduct" value="1"><input type="hidden" name="isSingle" value="1">`), "__cmtkn"},
		{"Missing IDProduct", page(`<input type="hidden" name="__cmtkn" value="t"><input type="hidden" name="isSingle" value="1">`), "idProduct"},
		{"Missing IsSingle", page(`<input type="hidden" name="__cmtkn" value="t"><input type="hidden" name="idProduct" value="1">`), "isSingle"},
		{"Visible Input Ignored", page(`<input type="text" name="__cmtkn" value="t"><input type="hidden" name="idProduct" value="1"><input type="hidden" name="isSingle" value="1">`), "__cmtkn"},
		{"Name Is Case Sensitive", page(`<input type="hidden" name="__CMTKN" value="t"><input type="hidden" name="idProduct" value="1"><input type="hidden" name="isSingle" value="1">`), "__cmtkn"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractTokens(tc.html)
			var missing *MissingTokenError
			require.True(t, errors.As(err, &missing), "got %v", err)
			require.Equal(t, tc.missing, missing.Field)
		})
	}
}
