// Package fetch is the request layer: GET and multipart POST with default
// headers, per-request timeouts and charset-aware body decoding.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/keponer/cardmarket-card-finder/pkg/config"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// Response is the outcome of one successful (2xx) request.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       string // decoded using the Content-Type charset, UTF-8 otherwise
}

// RequestError reports a transport failure or a non-2xx status.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: received non-2xx status code: %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// FormFile is one file field of a multipart POST.
type FormFile struct {
	Field string
	Path  string
}

// Client holds the defaults every request carries.
type Client struct {
	http *resty.Client
	conf config.HTTPConfig
}

// New creates a client from the HTTP section of the configuration.
func New(conf config.HTTPConfig) *Client {
	client := resty.New()
	// the caller's Cookie header is sent verbatim, never merged with server cookies
	client.SetCookieJar(nil)
	if conf.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if conf.UserAgent != "" {
		client.SetHeader("User-Agent", conf.UserAgent)
	}
	if conf.Accept != "" {
		client.SetHeader("Accept", conf.Accept)
	}
	client.SetHeaders(conf.Headers)

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		slog.Debug("Fetch: response received",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"elapsed", res.Time(),
		)
		return nil
	})

	return &Client{http: client, conf: conf}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Get performs a GET. headers override the client defaults.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	ctx, cancel := withTimeout(ctx, c.conf.GetTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	return finish(http.MethodGet, url, res, err)
}

// PostForm performs a multipart/form-data POST with the given fields and
// files. Files are opened and closed by the client while the body is built.
func (c *Client) PostForm(ctx context.Context, url string, fields map[string]string, files []FormFile, headers map[string]string) (*Response, error) {
	ctx, cancel := withTimeout(ctx, c.conf.PostTimeout)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetMultipartFormData(fields)
	for _, f := range files {
		req.SetFile(f.Field, f.Path)
	}

	res, err := req.Post(url)
	return finish(http.MethodPost, url, res, err)
}

func finish(method, url string, res *resty.Response, err error) (*Response, error) {
	if err != nil {
		return nil, &RequestError{Method: method, URL: url, Err: err}
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, &RequestError{
			Method:     method,
			URL:        url,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("status %s", res.Status()),
		}
	}
	return &Response{
		StatusCode: res.StatusCode(),
		Status:     res.Status(),
		Header:     res.Header(),
		Body:       DecodeBody(res.Body(), res.Header().Get("Content-Type")),
	}, nil
}
