package cardmarket

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/keponer/cardmarket-card-finder/internal/fetch"
)

func tokenInputs(cmtkn, idProduct, isSingle string) string {
	return fmt.Sprintf(`<input type="hidden" name="__cmtkn" value="%s">
<input type="hidden" name="idProduct" value="%s">
<input type="hidden" name="isSingle" value="%s">`, cmtkn, idProduct, isSingle)
}

// currentRow renders an offer row in the current markup. The seller block
// also contains the legacy span chain, as the live site does.
func currentRow(href, price string) string {
	return fmt.Sprintf(`<div class="row g-0 article-row">
  <div class="col-sellerProductInfo col">
    <div class="row g-0"><div class="col-seller col-12 col-lg-auto">
      <span class="seller-info d-flex align-items-center">
        <span class="seller-name d-flex"><span class="d-flex has-content-centered me-1"><a href="%s">seller</a></span></span>
      </span>
    </div></div>
  </div>
  <div class="col-offer col-auto">
    <div class="price-container d-none d-md-flex"><span class="color-primary small text-end text-nowrap fw-bold">%s</span></div>
  </div>
</div>`, href, price)
}

// legacyRow renders the same offer in the older markup.
func legacyRow(href, price string) string {
	return fmt.Sprintf(`<div class="article-row">
  <div class="col-seller">
    <span class="seller-name d-flex"><span class="d-flex has-content-centered me-1"><a href="%s">seller</a></span></span>
  </div>
  <div class="col-price"><span class="color-primary fw-bold">%s</span></div>
</div>`, href, price)
}

func page(parts ...string) string {
	return "<!DOCTYPE html><html><head><title>Product</title></head><body>" +
		strings.Join(parts, "\n") + "</body></html>"
}

func ajaxBody(rows string, newPage int) string {
	return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<ajaxResponse><rows>%s</rows><newPage>%d</newPage></ajaxResponse>",
		base64.StdEncoding.EncodeToString([]byte(rows)), newPage)
}

type postCall struct {
	URL     string
	Fields  map[string]string
	Headers map[string]string
}

// scriptedSender answers GETs with getBody and POSTs with the scripted
// responses in order. A nil entry in errs at the POST index means success.
type scriptedSender struct {
	getBody   string
	gets      []string
	posts     []postCall
	responses []string
	errs      map[int]error
}

func (s *scriptedSender) Get(_ context.Context, url string, _ map[string]string) (*fetch.Response, error) {
	s.gets = append(s.gets, url)
	return &fetch.Response{StatusCode: 200, Body: s.getBody}, nil
}

func (s *scriptedSender) PostForm(_ context.Context, url string, fields map[string]string, _ []fetch.FormFile, headers map[string]string) (*fetch.Response, error) {
	i := len(s.posts)
	s.posts = append(s.posts, postCall{URL: url, Fields: fields, Headers: headers})
	if err := s.errs[i]; err != nil {
		return nil, err
	}
	if i >= len(s.responses) {
		return nil, fmt.Errorf("unexpected post #%d", i+1)
	}
	return &fetch.Response{StatusCode: 200, Body: s.responses[i]}, nil
}
