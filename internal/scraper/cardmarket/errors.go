package cardmarket

import (
	"errors"
	"fmt"
)

// ErrNoSellersFound means neither markup strategy matched a single offer row.
// A listing page always has at least one seller, so this points at changed
// markup rather than an empty product.
var ErrNoSellersFound = errors.New("no sellers found on page")

// MissingTokenError names the first required hidden input absent from a page.
type MissingTokenError struct {
	Field string
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("missing required hidden input: %s", e.Field)
}

// PaginationLimitError is returned when the server keeps announcing more
// pages after Limit load-more requests.
type PaginationLimitError struct {
	URL   string
	Limit int
}

func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("pagination for %s exceeded %d load-more requests", e.URL, e.Limit)
}

// MalformedResponseError reports a load-more response that is not a valid
// ajaxResponse envelope.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed ajax response: " + e.Reason
}
