package models

// TokenSet holds the hidden form fields a product page embeds. All three are
// required to request further pages of offers.
type TokenSet struct {
	Cmtkn     string `json:"__cmtkn"`
	IDProduct string `json:"idProduct"`
	IsSingle  string `json:"isSingle"`
}

// Fields returns the tokens as form fields keyed by their input names.
func (t TokenSet) Fields() map[string]string {
	return map[string]string{
		"__cmtkn":   t.Cmtkn,
		"idProduct": t.IDProduct,
		"isSingle":  t.IsSingle,
	}
}

// SellerRecord is one offer row: the seller profile link and the price as displayed.
type SellerRecord struct {
	SellerHref string `json:"sellerHref"`
	Price      string `json:"price"` // raw display text, e.g. "12,34 €"; empty when the row shows none
}

// PerURLResult is every offer collected across all pages of one product URL.
type PerURLResult struct {
	URL     string
	Sellers []SellerRecord
	Pages   int
}

