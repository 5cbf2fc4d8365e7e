/*
Package backend is the HTTP client for the document indexing service.

Every endpoint tolerates the two response dialects the service has
shipped: bare arrays and wrapper objects. Responses that fit neither
come back as ErrMalformedResponse; connectivity and HTTP-status failures
come back as *TransportError, so the session layer can keep old results
on screen for the latter and complain loudly about the former.
*/
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mvillard/docsearch/pkg/query"
	"github.com/mvillard/docsearch/pkg/results"
	"github.com/mvillard/docsearch/pkg/session"
)

// DefaultTimeout bounds one backend round trip.
const DefaultTimeout = 10 * time.Second

// Client talks to one backend instance on behalf of one session.
type Client struct {
	baseURL string
	httpc   *http.Client
	info    session.Info
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, mostly for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpc = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpc.Timeout = d }
}

// NewClient creates a client for the backend at baseURL, sending the
// session's role and token on every request.
func NewClient(baseURL string, info session.Info, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: DefaultTimeout},
		info:    info,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one GET against the backend and returns the body.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) (io.ReadCloser, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if c.info.Role != "" {
		req.Header.Set("X-Role", c.info.Role)
	}
	if c.info.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.info.Token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return resp.Body, nil
}

// Autocomplete fetches completion candidates for a prefix. The response
// may be a bare array of words or {"suggestions": [...]}.
func (c *Client) Autocomplete(ctx context.Context, text string) ([]string, error) {
	params := url.Values{"q": {text}}
	body, err := c.get(ctx, "autocomplete", "/api/autocomplete", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Op: "autocomplete", Err: err}
	}
	var words []string
	if err := json.Unmarshal(data, &words); err == nil {
		return words, nil
	}
	var wrapped struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: autocomplete: %v", ErrMalformedResponse, err)
	}
	return wrapped.Suggestions, nil
}

// Suggest adapts Autocomplete to the suggestion engine's provider
// contract.
func (c *Client) Suggest(ctx context.Context, text string, limit int) ([]string, error) {
	words, err := c.Autocomplete(ctx, text)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words, nil
}

// Search runs one search and normalizes the result payload.
func (c *Client) Search(ctx context.Context, q query.Query) (*session.Response, error) {
	body, err := c.get(ctx, "search", "/api/search", valuesOf(q))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	resp, err := parseSearchResponse(body)
	if err != nil {
		return nil, err
	}
	log.Debugf("backend: search %q returned %d results", q.Trimmed(), len(resp.Items))
	return resp, nil
}

// DocumentTypes lists the type filters the backend knows about.
func (c *Client) DocumentTypes(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "document_types", "/api/document_types", nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Op: "document_types", Err: err}
	}
	var types []string
	if err := json.Unmarshal(data, &types); err == nil {
		return types, nil
	}
	var wrapped struct {
		Types []string `json:"types"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: document_types: %v", ErrMalformedResponse, err)
	}
	return wrapped.Types, nil
}

// WordFrequencies fetches the per-document word statistics used by the
// word cloud. Order is the backend's: descending by count.
func (c *Client) WordFrequencies(ctx context.Context, filename string) ([]results.WordCount, error) {
	params := url.Values{"filename": {filename}}
	body, err := c.get(ctx, "file_stats", "/api/admin/file_stats", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var wrapped struct {
		Words []wordPair `json:"words"`
	}
	if err := json.NewDecoder(body).Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("%w: file_stats: %v", ErrMalformedResponse, err)
	}
	out := make([]results.WordCount, len(wrapped.Words))
	for i, w := range wrapped.Words {
		out[i] = results.WordCount(w)
	}
	return out, nil
}

func valuesOf(q query.Query) url.Values {
	vals := url.Values{}
	for k, v := range q.Values() {
		vals.Set(k, v)
	}
	return vals
}

var _ session.Searcher = (*Client)(nil)
