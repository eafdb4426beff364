package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	baseURL   = "https://query2.finance.yahoo.com"
	cookieURL = "https://fc.yahoo.com"
)

var (
	// ErrNotFound is returned when Yahoo has no data for a symbol.
	ErrNotFound = errors.New("symbol not found")
	// ErrUnauthorized is returned when the cookie/crumb pair was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is the error object embedded in Yahoo finance responses.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// YahooAPIClient is a client for the Yahoo finance query API.
type YahooAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// cookieURL is visited once to obtain the session cookie the crumb is bound to.
	cookieURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values

	mu      sync.Mutex
	crumb   string
	cookies []*http.Cookie
}

// YahooAPIClientOption is a configuration option for the Yahoo API client.
type YahooAPIClientOption func(*YahooAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) YahooAPIClientOption {
	return func(c *YahooAPIClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCookieURL sets the URL visited to obtain a session cookie.
func WithCookieURL(cookieURL string) YahooAPIClientOption {
	return func(c *YahooAPIClient) {
		c.cookieURL = cookieURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) YahooAPIClientOption {
	return func(c *YahooAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) YahooAPIClientOption {
	return func(c *YahooAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithCrumb presets the crumb, skipping the cookie handshake.
func WithCrumb(crumb string) YahooAPIClientOption {
	return func(c *YahooAPIClient) {
		c.crumb = crumb
	}
}

// NewYahooAPIClient creates a new Yahoo API client.
func NewYahooAPIClient(options ...YahooAPIClientOption) (*YahooAPIClient, error) {
	var yahooAPIClient = &YahooAPIClient{
		baseURL:    baseURL,
		cookieURL:  cookieURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	for _, option := range options {
		option(yahooAPIClient)
	}
	if _, err := url.Parse(yahooAPIClient.baseURL); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	return yahooAPIClient, nil
}

// ensureCrumb performs the cookie/crumb handshake once per client.
func (c *YahooAPIClient) ensureCrumb(ctx context.Context) (string, []*http.Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb, c.cookies, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cookieURL, http.NoBody)
	if err != nil {
		return "", nil, fmt.Errorf("creating cookie request: %w", err)
	}
	req.Header = c.header.Clone()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching cookie: %w", err)
	}
	// The cookie endpoint answers 404 but still sets the session cookie.
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
	cookies := res.Cookies()

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", http.NoBody)
	if err != nil {
		return "", nil, fmt.Errorf("creating crumb request: %w", err)
	}
	req.Header = c.header.Clone()
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	res, err = c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching crumb: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetching crumb: unexpected status code: %d", res.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 1<<10))
	if err != nil {
		return "", nil, fmt.Errorf("reading crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(b))
	if crumb == "" {
		return "", nil, errors.New("fetching crumb: empty crumb")
	}

	c.crumb, c.cookies = crumb, cookies
	return crumb, cookies, nil
}

// resetCrumb forgets a crumb the API rejected so the next call redoes the handshake.
func (c *YahooAPIClient) resetCrumb() {
	c.mu.Lock()
	c.crumb, c.cookies = "", nil
	c.mu.Unlock()
}

// get performs an authenticated GET of path with the client's query merged
// with query, applying per-call options to a copy of the client.
func (c *YahooAPIClient) get(ctx context.Context, path string, query url.Values, opts ...YahooAPIClientOption) (*http.Response, error) {
	var override = &YahooAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	crumb, cookies, err := c.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	q := maps.Clone(override.query)
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("crumb", crumb)

	url := fmt.Sprintf("%s%s?%s", override.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	switch res.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		// 404 carries an error object in the body
		return res, nil

	case http.StatusUnauthorized, http.StatusForbidden:
		res.Body.Close()
		c.resetCrumb()
		return nil, ErrUnauthorized

	case http.StatusTooManyRequests:
		res.Body.Close()
		return nil, fmt.Errorf("rate limited")

	default:
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
}
