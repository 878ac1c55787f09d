package cardmarket

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/keponer/cardmarket-card-finder/internal/fetch"

	"github.com/PuerkitoBio/goquery"
)

// AjaxPage is one decoded load-more response.
type AjaxPage struct {
	Rows    string // HTML fragment of the next batch of offer rows
	NewPage int    // next cursor, -1 when there are no more pages
}

// LastPage is the cursor value the server sends once the listing is exhausted.
const LastPage = -1

// IsAjaxResponse reports whether body looks like a load-more envelope.
func IsAjaxResponse(body string) bool {
	return strings.Contains(strings.ToLower(body), "<ajaxresponse")
}

// DecodeAjaxResponse reads an <ajaxResponse> envelope: the base64 <rows>
// payload and the <newPage> cursor.
func DecodeAjaxResponse(body string) (AjaxPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return AjaxPage{}, &MalformedResponseError{Reason: err.Error()}
	}

	// the HTML parser lowercases element names
	rows := doc.Find("rows").First()
	newPage := doc.Find("newpage").First()
	var missing []string
	if rows.Length() == 0 {
		missing = append(missing, "rows")
	}
	if newPage.Length() == 0 {
		missing = append(missing, "newPage")
	}
	if len(missing) > 0 {
		return AjaxPage{}, &MalformedResponseError{Reason: "missing tags: " + strings.Join(missing, ", ")}
	}

	cursor, err := strconv.Atoi(strings.TrimSpace(newPage.Text()))
	if err != nil {
		return AjaxPage{}, &MalformedResponseError{Reason: fmt.Sprintf("newPage is not an integer: %q", newPage.Text())}
	}

	decoded, err := decodeBase64(rows.Text())
	if err != nil {
		return AjaxPage{}, &MalformedResponseError{Reason: "rows are not valid base64: " + err.Error()}
	}

	return AjaxPage{Rows: fetch.DecodeBody(decoded, ""), NewPage: cursor}, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
