// Package upstream implements the client side of the remote racing service:
// session management, the two-hop indirection fetch pattern, authentication,
// and the catalog, schedule, driver, and results fetchers.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// Schedule and catalog payloads run to hundreds of kilobytes; jsoniter keeps
// decode cost down without changing semantics.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig configures the upstream client.
type ClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration

	// InsecureSkipVerify tolerates the upstream host's legacy certificate
	// chain. This is a deliberate trust decision toward a single pinned
	// host, not a general TLS opt-out.
	InsecureSkipVerify bool
}

// Client performs authenticated HTTP calls against the upstream racing
// service and resolves its indirection envelopes in one place. Failures are
// never retried at this layer; retry policy belongs to AuthManager or the
// caller.
type Client struct {
	baseURL    *url.URL
	session    *SessionStore
	httpClient *http.Client
}

// NewClient creates an upstream client sharing the given session store.
func NewClient(cfg ClientConfig, session *SessionStore) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	return &Client{
		baseURL:    base,
		session:    session,
		httpClient: httpClient,
	}, nil
}

// RequestOptions describes one upstream call.
type RequestOptions struct {
	Method string
	Path   string
	Query  map[string]string // optional query parameters
	Body   any               // optional JSON body
}

// envelopeVariant discriminates the upstream response shapes. The upstream
// uses {"link": url} on most endpoints and {"data_url": url} on a few older
// ones; some endpoints return the payload directly.
type envelopeVariant int

const (
	envelopeDirect envelopeVariant = iota
	envelopeLink
	envelopeDataURL
)

// classifyEnvelope resolves the envelope variant and pointer URL once, so
// callers never shape-sniff.
func classifyEnvelope(body []byte) (envelopeVariant, string) {
	if link := gjson.GetBytes(body, "link"); link.Type == gjson.String && link.Str != "" {
		return envelopeLink, link.Str
	}
	if link := gjson.GetBytes(body, "data_url"); link.Type == gjson.String && link.Str != "" {
		return envelopeDataURL, link.Str
	}
	return envelopeDirect, ""
}

// Request performs an authenticated call and resolves the indirection
// envelope: when the response is a pointer envelope, a second unauthenticated
// GET fetches the real payload and that body is returned.
func (c *Client) Request(ctx context.Context, opts RequestOptions) ([]byte, apperrors.Error) {
	status, body, _, err := c.do(ctx, opts)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, statusError(status, body)
	}

	variant, link := classifyEnvelope(body)
	if variant == envelopeDirect {
		if !gjson.ValidBytes(body) {
			return nil, ErrMalformedEnvelope.Err(errors.New("response is not valid JSON"))
		}
		return body, nil
	}
	return c.followLink(ctx, link)
}

// do performs one HTTP call with the current session cookies attached.
// Returns the status code, body, and any Set-Cookie values from the response.
func (c *Client) do(ctx context.Context, opts RequestOptions) (int, []byte, []*http.Cookie, apperrors.Error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var bodyReader io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return 0, nil, nil, ErrUpstream.MsgErr("unable to encode request body", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bodyReader)
	if err != nil {
		return 0, nil, nil, ErrUpstream.MsgErr("unable to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Snapshot the cookie set once; a session swap mid-request must never
	// mix headers from two sessions within one call.
	for _, cookie := range c.session.Current() {
		req.AddCookie(cookie)
	}

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, ErrUpstream.MsgErr("request failed", err)
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return 0, nil, nil, ErrUpstream.MsgErr("unable to read response body", err)
	}

	return rsp.StatusCode, body, rsp.Cookies(), nil
}

// followLink fetches the real payload behind an indirection envelope. The
// pointer URL is pre-signed by the upstream; no session cookies are sent.
func (c *Client) followLink(ctx context.Context, link string) ([]byte, apperrors.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, ErrMalformedEnvelope.MsgErr("invalid pointer URL", err)
	}

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrUpstream.MsgErr("pointer fetch failed", err)
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, ErrUpstream.MsgErr("unable to read pointer response", err)
	}
	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, statusError(rsp.StatusCode, body)
	}
	return body, nil
}

// statusError builds an upstream status error carrying the status code and
// a bounded slice of the response body for diagnostics.
func statusError(status int, body []byte) apperrors.Error {
	const maxDiag = 512
	diag := body
	if len(diag) > maxDiag {
		diag = diag[:maxDiag]
	}
	return ErrUpstreamStatus.MsgErr(
		fmt.Sprintf("upstream returned status %d", status),
		errors.New(string(diag)),
	)
}
