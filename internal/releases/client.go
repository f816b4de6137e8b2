package releases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// DefaultBaseURL is the public VMS update server
const DefaultBaseURL = "https://updates.vmsproxy.com"

// Doer is the HTTP transport the client sends requests through.
// Timeouts and connection reuse are the transport's business.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when the update server answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("update server error: %d %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client fetches release feeds from the update server
type Client struct {
	http    Doer
	baseURL string
	decoder sonic.API
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another update server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger used for request logging
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDecoder replaces the JSON decoder configuration
func WithDecoder(api sonic.API) Option {
	return func(c *Client) {
		c.decoder = api
	}
}

// New creates a feed client sending requests through doer
func New(doer Doer, opts ...Option) *Client {
	c := &Client{
		http:    doer,
		baseURL: DefaultBaseURL,
		decoder: DecoderConfig,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FeedURL builds the releases.json location for a product
func FeedURL(baseURL, product string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(product) + "/releases.json"
}

// GetReleases fetches the feed of one product and returns its releases in
// feed order. The result always has at least one element.
func (c *Client) GetReleases(ctx context.Context, product string) ([]Release, error) {
	doc, err := c.GetDocument(ctx, product)
	if err != nil {
		return nil, err
	}
	return doc.Releases, nil
}

// GetDocument fetches and validates the full feed document of one product.
// A single request is made, failures are returned to the caller as-is.
func (c *Client) GetDocument(ctx context.Context, product string) (*Document, error) {
	if product == "" {
		return nil, errors.New("product name is empty")
	}

	feedURL := FeedURL(c.baseURL, product)
	c.logger.Info("Getting release information", "url", feedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s failed", feedURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: feedURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", feedURL)
	}

	doc, err := Decode(c.decoder, body)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, errors.Wrap(err, product)
	}

	return doc, nil
}

// GetReleases is a one-shot fetch against the public update server
func GetReleases(ctx context.Context, doer Doer, product string) ([]Release, error) {
	return New(doer).GetReleases(ctx, product)
}
