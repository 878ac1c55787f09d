package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/keponer/cardmarket-card-finder/internal/browser"
	"github.com/keponer/cardmarket-card-finder/internal/fetch"
	"github.com/keponer/cardmarket-card-finder/internal/scraper/cardmarket"
	"github.com/keponer/cardmarket-card-finder/pkg/config"

	"github.com/stretchr/testify/require"
)

type offer struct {
	href, price string
}

func productHTML(offers ...offer) string {
	var b strings.Builder
	b.WriteString(`<html><body><form>
<input type="hidden" name="__cmtkn" value="tok">
<input type="hidden" name="idProduct" value="7">
<input type="hidden" name="isSingle" value="1">
</form>`)
	b.WriteString(rowsHTML(offers...))
	b.WriteString("</body></html>")
	return b.String()
}

func rowsHTML(offers ...offer) string {
	var b strings.Builder
	for _, o := range offers {
		fmt.Fprintf(&b, `<div class="article-row"><div class="col-sellerProductInfo col"><a href="%s">s</a></div>`+
			`<div class="col-offer"><span class="color-primary fw-bold">%s</span></div></div>`, o.href, o.price)
	}
	return b.String()
}

func ajax(newPage int, offers ...offer) string {
	return fmt.Sprintf("<ajaxResponse><rows>%s</rows><newPage>%d</newPage></ajaxResponse>",
		base64.StdEncoding.EncodeToString([]byte(rowsHTML(offers...))), newPage)
}

// site serves product pages under /en/Pokemon/Products/<name>. Every
// product answers its first load-more request with its extra offers and
// the last-page cursor.
type site struct {
	products map[string][]offer
	more     map[string][]offer
	cookies  []string
	failing  map[string]bool
}

func (s *site) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/en/Pokemon/Products/", func(w http.ResponseWriter, r *http.Request) {
		s.cookies = append(s.cookies, r.Header.Get("Cookie"))
		name := strings.TrimPrefix(r.URL.Path, "/en/Pokemon/Products/")
		if s.failing[name] {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		offers, ok := s.products[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		// the id lets the load-more handler find the product again
		io.WriteString(w, strings.Replace(productHTML(offers...), `value="7"`, `value="`+name+`"`, 1))
	})
	mux.HandleFunc("/en/Pokemon/AjaxAction/Product_LoadMoreArticles", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("load-more request is not multipart: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		s.cookies = append(s.cookies, r.Header.Get("Cookie"))
		io.WriteString(w, ajax(cardmarket.LastPage, s.more[r.FormValue("idProduct")]...))
	})
	return mux
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.GetTimeout = 5 * time.Second
	cfg.HTTP.PostTimeout = 5 * time.Second
	return cfg
}

func newTestApp(cfg *config.Config, stdin string) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return New(cfg, strings.NewReader(stdin), &stdout, &stderr), &stdout, &stderr
}

func TestSelectMode(t *testing.T) {
	testCases := []struct {
		name     string
		flags    Flags
		expected Mode
		wantErr  bool
	}{
		{"Nothing", Flags{}, ModeInteractive, false},
		{"URL And Cookie", Flags{URL: "u", Cookie: "c"}, ModeGet, false},
		{"URL Only", Flags{URL: "u"}, 0, true},
		{"Cookie Only", Flags{Cookie: "c"}, 0, true},
		{"Post URL", Flags{PostURL: "p"}, ModePost, false},
		{"Post URL With Cookie", Flags{PostURL: "p", Cookie: "c"}, ModePost, false},
		{"Post Wins Over Get", Flags{PostURL: "p", URL: "u"}, ModePost, false},
		{"Form Without Post URL", Flags{Forms: []string{"a=1"}}, 0, true},
		{"File Without Post URL", Flags{Files: []string{"f=x"}, URL: "u", Cookie: "c"}, 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mode, err := SelectMode(tc.flags)
			if tc.wantErr {
				var invalid *InvalidArgumentsError
				require.True(t, errors.As(err, &invalid))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, mode)
		})
	}
}

func TestParseFlags(t *testing.T) {
	req, err := ParseFlags(Flags{
		PostURL: "https://example.test/post",
		Headers: []string{"X-Test: 1"},
		Forms:   []string{"page=1", "page=2", "filterSettings=[]"},
		Files:   []string{"upload=/tmp/deck.txt"},
	})
	require.NoError(t, err)
	require.Equal(t, ModePost, req.Mode)
	require.Equal(t, "https://example.test/post", req.URL)
	require.Equal(t, map[string]string{"X-Test": "1"}, req.Headers)
	require.Equal(t, map[string]string{"page": "2", "filterSettings": "[]"}, req.Fields)
	require.Equal(t, []fetch.FormFile{{Field: "upload", Path: "/tmp/deck.txt"}}, req.Files)

	for _, bad := range []Flags{
		{Headers: []string{"nocolon"}},
		{PostURL: "p", Forms: []string{"novalue"}},
		{PostURL: "p", Files: []string{"nopath"}},
	} {
		_, err := ParseFlags(bad)
		var invalid *InvalidArgumentsError
		require.True(t, errors.As(err, &invalid), "flags %+v", bad)
	}
}

func TestCompareURLsEndToEnd(t *testing.T) {
	s := &site{
		products: map[string][]offer{
			"a": {{"S1", "10€"}, {"S2", "20€"}},
			"b": {{"S1", "11€"}, {"S3", "30€"}},
		},
	}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	a, _, _ := newTestApp(testConfig(), "")
	prices, err := a.CompareURLs(context.Background(),
		[]string{srv.URL + "/en/Pokemon/Products/a", srv.URL + "/en/Pokemon/Products/b"}, "sid=1", nil)
	require.NoError(t, err)

	require.Equal(t, 1, prices.Len())
	got, ok := prices.Get("S1")
	require.True(t, ok)
	require.Equal(t, []string{"10€", "11€"}, got)
	for _, c := range s.cookies {
		require.Equal(t, "sid=1", c)
	}
}

func TestCompareURLsAbortsOnFailure(t *testing.T) {
	s := &site{
		products: map[string][]offer{"a": {{"S1", "1€"}}},
		failing:  map[string]bool{"b": true},
	}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	a, _, _ := newTestApp(testConfig(), "")
	prices, err := a.CompareURLs(context.Background(),
		[]string{srv.URL + "/en/Pokemon/Products/a", srv.URL + "/en/Pokemon/Products/b"}, "", nil)
	require.Nil(t, prices)
	var reqErr *fetch.RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
}

func TestRunInteractive(t *testing.T) {
	s := &site{
		products: map[string][]offer{
			"a": {{"/u/S1", "10,00 €"}, {"/u/S2", "20,00 €"}},
			"b": {{"/u/S2", "21,00 €"}},
			"c": {{"/u/S3", "1,00 €"}},
		},
		more: map[string][]offer{
			"b": {{"/u/S1", "12,00 €"}, {"/u/S1", "9,50 €"}},
		},
	}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	base := srv.URL + "/en/Pokemon/Products/"
	stdin := strings.Join([]string{
		"Set-Cookie: sid=abc; Path=/; HttpOnly",
		base + "a, " + base + "b",
		" , ",
		base + "a," + base + "c",
		"",
		"never read",
	}, "\n")

	a, stdout, stderr := newTestApp(testConfig(), stdin)
	require.NoError(t, a.RunInteractive(context.Background(), nil))

	require.Contains(t, stdout.String(), "sellerHref=/u/S1 | prices=[10,00 €, 12,00 €, 9,50 €]\n")
	require.Contains(t, stdout.String(), "sellerHref=/u/S2 | prices=[20,00 €, 21,00 €]\n")
	require.Less(t, strings.Index(stdout.String(), "/u/S1"), strings.Index(stdout.String(), "/u/S2"))
	require.NotContains(t, stdout.String(), "/u/S3")
	require.Contains(t, stderr.String(), "Error: no valid URLs provided.")
	require.Contains(t, stderr.String(), "Error: "+noCommonSellers)

	for _, c := range s.cookies {
		require.Equal(t, "sid=abc", c)
	}
}

func TestRunInteractiveTable(t *testing.T) {
	s := &site{products: map[string][]offer{
		"a": {{"/u/S1", "10,00 €"}},
		"b": {{"/u/S1", "8,00 €"}},
	}}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	cfg := testConfig()
	cfg.Output.Format = "table"
	base := srv.URL + "/en/Pokemon/Products/"
	a, stdout, _ := newTestApp(cfg, "\n"+base+"a,"+base+"b\n")
	require.NoError(t, a.RunInteractive(context.Background(), nil))

	out := stdout.String()
	require.Contains(t, out, "CHEAPEST")
	require.Contains(t, out, "/u/S1")
	require.Contains(t, out, "10,00 €, 8,00 €")
	require.Contains(t, out, "│ 8,00 €")
}

func TestRunInteractiveStopsOnError(t *testing.T) {
	s := &site{products: map[string][]offer{}}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	a, _, _ := newTestApp(testConfig(), "\n"+srv.URL+"/en/Pokemon/Products/missing\n")
	err := a.RunInteractive(context.Background(), nil)
	require.Error(t, err)
}

func TestRunGet(t *testing.T) {
	s := &site{products: map[string][]offer{"a": {{"/u/S1", "1,00 €"}, {"/u/S2", ""}}}}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	a, stdout, _ := newTestApp(testConfig(), "")
	err := a.RunGet(context.Background(), Request{Mode: ModeGet, URL: srv.URL + "/en/Pokemon/Products/a", Cookie: "sid=1"})
	require.NoError(t, err)
	require.Equal(t, "__cmtkn=tok\nidProduct=a\nisSingle=1\nsellerHref=/u/S1 | price=1,00 €\nsellerHref=/u/S2\n", stdout.String())
	require.Equal(t, []string{"sid=1"}, s.cookies)
}

func TestRunGetRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		io.WriteString(w, "hello")
	}))
	defer srv.Close()

	a, stdout, _ := newTestApp(testConfig(), "")
	require.NoError(t, a.RunGet(context.Background(), Request{Mode: ModeGet, URL: srv.URL, Cookie: "c=1", Raw: true}))
	require.True(t, strings.HasPrefix(stdout.String(), "HTTP 200 OK\n"))
	require.Contains(t, stdout.String(), "X-Test: yes\n")
	require.True(t, strings.HasSuffix(stdout.String(), "\nhello\n"))
}

func TestRunGetMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>login</body></html>")
	}))
	defer srv.Close()

	a, _, _ := newTestApp(testConfig(), "")
	err := a.RunGet(context.Background(), Request{Mode: ModeGet, URL: srv.URL, Cookie: "c=1"})
	var missing *cardmarket.MissingTokenError
	require.True(t, errors.As(err, &missing))
}

func TestRunPostAjax(t *testing.T) {
	var fields map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = r.MultipartForm.Value
		io.WriteString(w, ajax(4, offer{"/u/S9", "2,00 €"}))
	}))
	defer srv.Close()

	a, stdout, _ := newTestApp(testConfig(), "")
	err := a.RunPost(context.Background(), Request{
		Mode:   ModePost,
		URL:    srv.URL,
		Fields: map[string]string{"page": "3"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, fields["page"])
	require.Equal(t, "sellerHref=/u/S9 | price=2,00 €\nnewPage=4\n", stdout.String())
}

func TestRunPostEmptyAjaxBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, ajax(cardmarket.LastPage))
	}))
	defer srv.Close()

	a, stdout, _ := newTestApp(testConfig(), "")
	require.NoError(t, a.RunPost(context.Background(), Request{Mode: ModePost, URL: srv.URL}))
	require.Equal(t, "newPage=-1\n", stdout.String())
}

func TestRunPostPlainResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	a, stdout, _ := newTestApp(testConfig(), "")
	require.NoError(t, a.RunPost(context.Background(), Request{Mode: ModePost, URL: srv.URL}))
	require.Contains(t, stdout.String(), "Content-Type: application/json\n")
	require.Contains(t, stdout.String(), `{"ok":true}`)
}

type fakeWarmer struct {
	calls []string
}

func (f *fakeWarmer) Warm(_ context.Context, pageURL, cookie string) (browser.Session, error) {
	f.calls = append(f.calls, pageURL+"|"+cookie)
	return browser.Session{Cookie: cookie + "; cf_clearance=ok", UserAgent: "HeadlessChrome"}, nil
}

func TestRequestHeadersWithWarmer(t *testing.T) {
	a, _, _ := newTestApp(testConfig(), "")
	warmer := &fakeWarmer{}
	a.Warmer = warmer

	headers, err := a.requestHeaders(context.Background(), "https://x.test/p", "sid=1", map[string]string{"X-A": "b"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"Cookie":     "sid=1; cf_clearance=ok",
		"User-Agent": "HeadlessChrome",
		"X-A":        "b",
	}, headers)
	require.Equal(t, []string{"https://x.test/p|sid=1"}, warmer.calls)
}

func TestRequestHeadersExtraWins(t *testing.T) {
	a, _, _ := newTestApp(testConfig(), "")
	headers, err := a.requestHeaders(context.Background(), "u", "sid=1", map[string]string{"Cookie": "override=1"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Cookie": "override=1"}, headers)
}

func TestRequestHeadersCaseVariantCookie(t *testing.T) {
	a, _, _ := newTestApp(testConfig(), "")
	warmer := &fakeWarmer{}
	a.Warmer = warmer

	headers, err := a.requestHeaders(context.Background(), "https://x.test/p", "a=b",
		map[string]string{"cookie": "x=1", "x-requested-with": "XMLHttpRequest"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"Cookie":           "x=1; cf_clearance=ok",
		"User-Agent":       "HeadlessChrome",
		"X-Requested-With": "XMLHttpRequest",
	}, headers)
	require.Equal(t, []string{"https://x.test/p|x=1"}, warmer.calls)
}

func TestRunGetHeaderCookieWins(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = append(sent, r.Header.Values("Cookie")...)
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	req, err := ParseFlags(Flags{URL: srv.URL, Cookie: "a=b", Headers: []string{"cookie: x=1"}, Raw: true})
	require.NoError(t, err)

	a, _, _ := newTestApp(testConfig(), "")
	const runs = 20
	for i := 0; i < runs; i++ {
		require.NoError(t, a.RunGet(context.Background(), req))
	}
	require.Len(t, sent, runs)
	for _, c := range sent {
		require.Equal(t, "x=1", c)
	}
}

func TestCheapest(t *testing.T) {
	require.Equal(t, "8,00 €", cheapest([]string{"10,00 €", "8,00 €", "1.200,00 €"}))
	require.Equal(t, "", cheapest(nil))
}
