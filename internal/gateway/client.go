package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"vocabflow/internal/models"
)

const (
	// SessionCookieName is the backend's session cookie
	SessionCookieName = "sessionid"
	// CSRFCookieName is the backend's CSRF cookie
	CSRFCookieName = "csrftoken"
	// CSRFHeader carries the token on mutating requests
	CSRFHeader = "X-CSRFToken"

	maxErrorBody = 512
)

// CSRFSource decides where the CSRF token for mutating requests comes from
type CSRFSource string

const (
	// CSRFFromCookie reads the token from the backend's csrftoken cookie
	CSRFFromCookie CSRFSource = "cookie"
	// CSRFStatic uses a token handed to the client up front
	CSRFStatic CSRFSource = "static"
)

// ParseCSRFSource validates a configured CSRF source
func ParseCSRFSource(s string) (CSRFSource, error) {
	switch CSRFSource(strings.ToLower(strings.TrimSpace(s))) {
	case CSRFFromCookie, "":
		return CSRFFromCookie, nil
	case CSRFStatic:
		return CSRFStatic, nil
	default:
		return "", fmt.Errorf("unknown csrf source %q", s)
	}
}

// Client talks to the vocabulary backend. A Client carries one user's
// cookies; create one per backend session.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	jar         http.CookieJar
	csrfSource  CSRFSource
	staticToken string
	logger      *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithCSRF selects the CSRF source. token is only used by CSRFStatic.
func WithCSRF(source CSRFSource, token string) Option {
	return func(c *Client) {
		c.csrfSource = source
		c.staticToken = token
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    u,
		jar:        jar,
		httpClient: &http.Client{Jar: jar, Timeout: 15 * time.Second},
		csrfSource: CSRFFromCookie,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewWithCredentials creates a client already logged in with creds
func NewWithCredentials(baseURL string, creds models.Credentials, opts ...Option) (*Client, error) {
	c, err := New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	c.SetCredentials(creds)
	return c, nil
}

// SetCredentials loads backend cookies into the client's jar
func (c *Client) SetCredentials(creds models.Credentials) {
	var cookies []*http.Cookie
	if creds.SessionCookie != "" {
		cookies = append(cookies, &http.Cookie{Name: SessionCookieName, Value: creds.SessionCookie, Path: "/"})
	}
	if creds.CSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: CSRFCookieName, Value: creds.CSRFToken, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

// Credentials returns the backend cookies currently held by the client
func (c *Client) Credentials() models.Credentials {
	var creds models.Credentials
	for _, ck := range c.jar.Cookies(c.baseURL) {
		switch ck.Name {
		case SessionCookieName:
			creds.SessionCookie = ck.Value
		case CSRFCookieName:
			creds.CSRFToken = ck.Value
		}
	}
	return creds
}

// csrfToken resolves the token for a mutating request
func (c *Client) csrfToken() string {
	if c.csrfSource == CSRFStatic {
		return c.staticToken
	}
	return c.Credentials().CSRFToken
}

// do performs one JSON request. body may be nil; out may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return fmt.Errorf("%s: invalid path: %w", op, err)
	}
	u := c.baseURL.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(CSRFHeader, token)
		}
		// Django checks the referer of secure unsafe requests.
		req.Header.Set("Referer", c.baseURL.String())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"op", op,
		"method", method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// excludedQuery builds the excluded_ids query parameter
func excludedQuery(excluded models.IDSet) url.Values {
	q := url.Values{}
	if len(excluded) > 0 {
		q.Set("excluded_ids", excluded.CSV())
	}
	return q
}
